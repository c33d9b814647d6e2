package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/mindvault/pkg/core"
)

// Client is a core.Bridge that forwards every command to a Server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Token is sent in TokenHeader when set.
	Token string
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/"), HTTP: http.DefaultClient}
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func (c *Client) invoke(ctx context.Context, name string, req Request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/commands/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		httpReq.Header.Set(TokenHeader, c.Token)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", name, core.ErrBridgeUnavailable, err)
	}
	defer resp.Body.Close()

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("%s: decode response (status %d): %w", name, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w", name, remoteError(resp.StatusCode, r.Error))
	}
	if out != nil && len(r.Result) > 0 {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", name, err)
		}
	}
	return nil
}

// remoteError restores the sentinel behind a server status code.
func remoteError(status int, msg string) error {
	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = core.ErrNotFound
	case http.StatusConflict:
		sentinel = core.ErrNotEmpty
	case http.StatusNotImplemented:
		sentinel = core.ErrBridgeUnavailable
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusBadRequest:
		sentinel = core.ErrInvalidName
		if strings.Contains(msg, core.ErrInvalidNoteID.Error()) {
			sentinel = core.ErrInvalidNoteID
		}
	default:
		return fmt.Errorf("remote error (status %d): %s", status, msg)
	}
	return fmt.Errorf("%w (remote: %s)", sentinel, msg)
}

func (c *Client) ReadNote(ctx context.Context, path string) (string, error) {
	var out string
	err := c.invoke(ctx, "read_note", Request{Path: path}, &out)
	return out, err
}

func (c *Client) SaveNote(ctx context.Context, path, content string) error {
	return c.invoke(ctx, "save_note", Request{Path: path, Content: content}, nil)
}

func (c *Client) GetAllNotes(ctx context.Context, dataDir string) ([]core.BackendNote, error) {
	var out []core.BackendNote
	err := c.invoke(ctx, "get_all_notes", Request{DataDir: dataDir}, &out)
	return out, err
}

func (c *Client) GetAllCategories(ctx context.Context, dataDir string) ([]core.BackendCategory, error) {
	var out []core.BackendCategory
	err := c.invoke(ctx, "get_all_categories", Request{DataDir: dataDir}, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, dataDir, name string) (string, error) {
	var out string
	err := c.invoke(ctx, "create_category", Request{DataDir: dataDir, Name: name}, &out)
	return out, err
}

func (c *Client) CreateSubcategory(ctx context.Context, dataDir, categoryID, name string) (string, error) {
	var out string
	err := c.invoke(ctx, "create_subcategory", Request{DataDir: dataDir, CategoryID: categoryID, Name: name}, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, dataDir, categoryID string) error {
	return c.invoke(ctx, "delete_category", Request{DataDir: dataDir, CategoryID: categoryID}, nil)
}

func (c *Client) DeleteSubcategory(ctx context.Context, dataDir, categoryID, subCategoryID string) error {
	return c.invoke(ctx, "delete_subcategory", Request{DataDir: dataDir, CategoryID: categoryID, SubCategoryID: subCategoryID}, nil)
}

func (c *Client) DeleteNote(ctx context.Context, dataDir, noteID string) error {
	return c.invoke(ctx, "delete_note", Request{DataDir: dataDir, NoteID: noteID}, nil)
}

func (c *Client) InitWorkspace(ctx context.Context, dataDir string) error {
	return c.invoke(ctx, "init_workspace", Request{DataDir: dataDir}, nil)
}

var (
	_ core.Bridge               = (*Client)(nil)
	_ core.WorkspaceInitializer = (*Client)(nil)
)
