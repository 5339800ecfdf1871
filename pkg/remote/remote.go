// Package remote is the JSON client for the habit upload API. Uploads are
// idempotent upserts; the server resolves conflicts last-write-wins on the
// payload's updated_at.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tableflip.dev/lumen/pkg/habit"
)

// Client talks to the remote store. A nil *Client is a valid "no remote
// configured" value for the replayer.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the given base URL, or nil when none is
// configured.
func New(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// UploadRecords upserts a batch of day records and returns the server's
// reconciled view of them.
func (c *Client) UploadRecords(ctx context.Context, records []habit.DayRecord) ([]habit.DayRecord, error) {
	var out []habit.DayRecord
	if err := c.do(ctx, http.MethodPost, "/v1/records", records, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadSettings upserts the user's settings.
func (c *Client) UploadSettings(ctx context.Context, s habit.Settings) error {
	return c.do(ctx, http.MethodPut, "/v1/settings", s, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}
