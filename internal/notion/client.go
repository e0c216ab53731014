// Package notion is the HTTP client for the destination workspace API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// Container kinds.
const (
	KindPage     = "page"
	KindDatabase = "database"
)

// blockChunkSize caps how many blocks one append request carries.
const blockChunkSize = 100

// provisionalSuffix marks a page whose upload has not finished yet. The final
// title is only set after every block landed, so an interrupted upload is
// visible in the workspace.
const provisionalSuffix = " [UNFINISHED UPLOAD]"

// Container is the destination handle a notebook's notes are uploaded into.
type Container struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Client talks to the destination workspace over its JSON API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient creates a client for the API at baseURL authenticating with token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

// ResolvePage finds or creates a page container named title under rootID.
func (c *Client) ResolvePage(ctx context.Context, rootID, title string) (Container, error) {
	return c.resolve(ctx, rootID, title, KindPage)
}

// ResolveDatabase finds or creates a database container named title under rootID.
func (c *Client) ResolveDatabase(ctx context.Context, rootID, title string) (Container, error) {
	return c.resolve(ctx, rootID, title, KindDatabase)
}

func (c *Client) resolve(ctx context.Context, rootID, title, kind string) (Container, error) {
	req := map[string]string{
		"parent_id": rootID,
		"title":     title,
		"kind":      kind,
	}
	var out Container
	if err := c.doJSON(ctx, http.MethodPost, "/v1/containers", req, &out); err != nil {
		return Container{}, fmt.Errorf("notion: resolve %s %q: %w", kind, title, err)
	}
	out.Kind = kind
	return out, nil
}

type createPageRequest struct {
	ContainerID   string    `json:"container_id"`
	ContainerKind string    `json:"container_kind"`
	Title         string    `json:"title"`
	Tags          []string  `json:"tags,omitempty"`
	URL           string    `json:"url,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

type createPageResponse struct {
	ID string `json:"id"`
}

// UploadNote creates a page for note inside container and appends its blocks.
// The page gets a provisional title first and is renamed once every block is
// uploaded; a failed upload removes the partial page best-effort and returns
// apperr.ErrUploadFailed so the pipeline can retry.
func (c *Client) UploadNote(ctx context.Context, container Container, note models.Note, blocks []models.Block) error {
	var page createPageResponse
	create := createPageRequest{
		ContainerID:   container.ID,
		ContainerKind: container.Kind,
		Title:         note.Title + provisionalSuffix,
		Tags:          note.Tags,
		URL:           note.URL,
		CreatedAt:     note.Created,
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/pages", create, &page); err != nil {
		return fmt.Errorf("notion: create page for %q: %w (%w)", note.Title, err, apperr.ErrUploadFailed)
	}

	if err := c.appendBlocks(ctx, page.ID, blocks); err != nil {
		c.removePage(ctx, page.ID)
		return fmt.Errorf("notion: upload blocks for %q: %w (%w)", note.Title, err, apperr.ErrUploadFailed)
	}

	finish := map[string]any{
		"title":     note.Title,
		"edited_at": note.Updated,
	}
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/pages/"+page.ID, finish, nil); err != nil {
		c.removePage(ctx, page.ID)
		return fmt.Errorf("notion: finalize page for %q: %w (%w)", note.Title, err, apperr.ErrUploadFailed)
	}
	return nil
}

func (c *Client) appendBlocks(ctx context.Context, pageID string, blocks []models.Block) error {
	for start := 0; start < len(blocks); start += blockChunkSize {
		end := min(start+blockChunkSize, len(blocks))
		body := map[string]any{"blocks": blocks[start:end]}
		if err := c.doJSON(ctx, http.MethodPost, "/v1/pages/"+pageID+"/blocks", body, nil); err != nil {
			return err
		}
	}
	return nil
}

// removePage deletes a partially uploaded page. Best-effort: the retry will
// create a fresh page either way.
func (c *Client) removePage(ctx context.Context, pageID string) {
	_ = c.doJSON(ctx, http.MethodDelete, "/v1/pages/"+pageID, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
