// Package server exposes the host command bridge over HTTP so a webview
// shell can invoke the same commands it would send to an embedded host.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/mindvault/pkg/core"
)

// Request carries the arguments of every command, named as the webview
// invoke layer names them. Each command reads the fields it needs.
type Request struct {
	Path          string `json:"path"`
	Content       string `json:"content"`
	DataDir       string `json:"dataDir"`
	Name          string `json:"name"`
	CategoryID    string `json:"categoryId"`
	SubCategoryID string `json:"subCategoryId"`
	NoteID        string `json:"noteId"`
}

type command func(ctx context.Context, b core.Bridge, req Request) (any, error)

// commands maps command names to their bridge call.
var commands = map[string]command{
	"read_note": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return b.ReadNote(ctx, r.Path)
	},
	"save_note": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return nil, b.SaveNote(ctx, r.Path, r.Content)
	},
	"get_all_notes": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return b.GetAllNotes(ctx, r.DataDir)
	},
	"get_all_categories": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return b.GetAllCategories(ctx, r.DataDir)
	},
	"create_category": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return b.CreateCategory(ctx, r.DataDir, r.Name)
	},
	"create_subcategory": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return b.CreateSubcategory(ctx, r.DataDir, r.CategoryID, r.Name)
	},
	"delete_category": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return nil, b.DeleteCategory(ctx, r.DataDir, r.CategoryID)
	},
	"delete_subcategory": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return nil, b.DeleteSubcategory(ctx, r.DataDir, r.CategoryID, r.SubCategoryID)
	},
	"delete_note": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		return nil, b.DeleteNote(ctx, r.DataDir, r.NoteID)
	},
	"init_workspace": func(ctx context.Context, b core.Bridge, r Request) (any, error) {
		wi, ok := b.(core.WorkspaceInitializer)
		if !ok {
			return nil, core.ErrBridgeUnavailable
		}
		return nil, wi.InitWorkspace(ctx, r.DataDir)
	},
}

// TokenHeader carries the per-launch token when Server.Token is set.
const TokenHeader = "X-Mindvault-Token"

var (
	// ErrForbidden is the base of every request refused for where it comes
	// from or what it touches.
	ErrForbidden        = errors.New("forbidden")
	ErrOutsideWorkspace = fmt.Errorf("%w: path outside workspace", ErrForbidden)
	ErrOriginNotAllowed = fmt.Errorf("%w: origin not allowed", ErrForbidden)
	ErrUnauthorized     = errors.New("missing or invalid token")
)

// Server serves a bridge over HTTP.
//
// Commands only accept application/json bodies, so a browser cannot send
// them cross-origin without a preflight, which is never answered.
type Server struct {
	Bridge core.Bridge
	// State, when set, is served on GET /state.
	State  func() any
	Logger *slog.Logger

	// Root, when set, confines every path and dataDir to the workspace.
	// An empty dataDir means Root.
	Root string
	// Token, when set, must be sent in TokenHeader.
	Token string
	// AllowedOrigins lists the Origin values accepted from browsers.
	// Requests without an Origin header are not browser requests and pass.
	AllowedOrigins []string
}

// New creates a server for the bridge.
func New(b core.Bridge, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{Bridge: b, Logger: logger}
}

// SetupRouter builds the gin engine.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	guarded := r.Group("/", s.guard())
	guarded.POST("/commands/:name", s.Invoke)
	if s.State != nil {
		guarded.GET("/state", func(c *gin.Context) {
			c.JSON(http.StatusOK, s.State())
		})
	}
	return r
}

// Invoke runs one bridge command.
func (s *Server) Invoke(c *gin.Context) {
	name := c.Param("name")
	cmd, ok := commands[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown command: " + name})
		return
	}

	if c.ContentType() != gin.MIMEJSON {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "content type must be " + gin.MIMEJSON})
		return
	}
	var req Request
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}
	if err := s.confine(&req); err != nil {
		s.Logger.Warn("command refused", "command", name, "error", err)
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	result, err := cmd(c.Request.Context(), s.Bridge, req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.Logger.Error("command failed", "command", name, "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// guard refuses browser origins that are not allow-listed and requests
// without the launch token.
func (s *Server) guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && !slices.Contains(s.AllowedOrigins, origin) {
			s.Logger.Warn("origin refused", "origin", origin, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrOriginNotAllowed.Error()})
			return
		}
		if s.Token != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(TokenHeader)), []byte(s.Token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}

// confine rewrites an empty dataDir to Root and rejects paths that resolve
// outside of it.
func (s *Server) confine(req *Request) error {
	if s.Root == "" {
		return nil
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	if req.DataDir == "" {
		req.DataDir = root
	} else if !within(root, req.DataDir) {
		return fmt.Errorf("dataDir %s: %w", req.DataDir, ErrOutsideWorkspace)
	}
	if req.Path != "" && !within(root, req.Path) {
		return fmt.Errorf("path %s: %w", req.Path, ErrOutsideWorkspace)
	}
	return nil
}

func within(root, p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidName), errors.Is(err, core.ErrInvalidNoteID):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotEmpty):
		return http.StatusConflict
	case errors.Is(err, core.ErrBridgeUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
