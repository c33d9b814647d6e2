package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	c := NewClient(t.TempDir(), nil)
	c.AuthorName = "mindvault test"
	c.AuthorEmail = "test@mindvault.local"
	return c
}

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, nil)
	ctx := context.Background()

	unlock, err := client.Lock(ctx)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	lockPath := filepath.Join(tmpDir, LockFile)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	t.Run("Contended lock honours the context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		if _, err := client.Lock(ctx); err == nil {
			t.Error("expected lock acquisition to time out")
		}
	})

	unlock()
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_CommitFlow(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if err := c.Init(ctx); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if !c.IsRepo() {
		t.Fatal("expected a repository after init")
	}

	if err := os.WriteFile(filepath.Join(c.WorkDir, "plan.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Stage(ctx, "plan.json"); err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if err := c.Commit(ctx, "save plan"); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	t.Run("Empty commit is skipped", func(t *testing.T) {
		if err := c.Commit(ctx, "nothing"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	subjects, err := c.Log(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 1 || subjects[0] != "save plan" {
		t.Errorf("log = %v", subjects)
	}
}
