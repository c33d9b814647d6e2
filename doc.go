// Package mindvault is the composition root of the mindvault note engine.
//
// It wires the domain packages (core, storage, views, mindmap) to the
// file-system bridge, the configuration store and its cache, and exposes
// a single App for hosts to drive.
//
// Philosophy:
//
// mindvault is a headless mind-map notebook application. A workspace is a
// plain directory: top-level folders are categories, second-level folders
// are subcategories and every notebook is a JSON (mind map) or Markdown
// (plain text) file inside them. Any shell can sit on top: the bundled CLI,
// a webview talking to `mindvault serve`, or a Go program using this package.
//
// Features:
//
//   - **Category tree on disk**: no index file, the directory layout is the hierarchy.
//   - **Derived views**: tasks, questions and projects come from node tags.
//   - **Resilient config**: app-config.json mirrored to a SQLite cache.
//   - **Auto-save**: editor changes are debounced and persisted in the background.
//   - **Optional Git**: every workspace change can be committed.
//   - **Dev sandbox**: `go run` and `go test` never touch real user data.
//
// Usage:
//
//	a, err := mindvault.New(ctx, mindvault.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	meta, err := a.Coordinator.CreateNote(ctx, "plan", "work", "")
package mindvault
