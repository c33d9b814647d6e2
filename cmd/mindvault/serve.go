package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/mindvault/internal/server"
)

var (
	serveAddr    string
	serveWatch   bool
	serveToken   string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the host command bridge over HTTP",
	Long: `Serve the host commands (read_note, save_note, get_all_notes, ...) on
POST /commands/:name so a webview shell can run against this process.
Application state is available on GET /state.

Paths are confined to the workspace, browser origins must be allow-listed and
every request must carry the launch token in the X-Mindvault-Token header.
Without --token a random one is generated and printed on stderr.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := openApp(ctx)
		defer a.Close()

		if serveWatch {
			if err := a.Coordinator.Watch(ctx); err != nil {
				slog.Warn("workspace watch unavailable", "error", err)
			}
		}

		token := serveToken
		if token == "" {
			token = uuid.NewString()
			fmt.Fprintln(os.Stderr, "Token:", token)
		}

		srv := server.New(a.Bridge, slog.Default())
		srv.State = a.State
		srv.Root = a.Storage.ResolveWorkspaceRoot(ctx)
		srv.Token = token
		srv.AllowedOrigins = serveOrigins
		httpServer := &http.Server{
			Addr:              serveAddr,
			Handler:           srv.SetupRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown failed", "error", err)
			}
		}()

		slog.Info("serving", "addr", serveAddr, "workspace", a.Storage.ResolveWorkspaceRoot(ctx))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Server failed", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:7420", "Address to listen on")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Token clients must send (default: random per launch)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "Browser origin allowed to call the bridge (repeatable)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Refresh the note index when the workspace changes on disk")
	rootCmd.AddCommand(serveCmd)
}
