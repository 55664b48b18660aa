// Package karakeep talks to the bookmark REST API (Karakeep-compatible /api/v1).
package karakeep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xxxsen/mdkeep/internal/model"
	appErr "github.com/xxxsen/mdkeep/internal/pkg/errors"
	"github.com/xxxsen/mdkeep/internal/runlog"
)

const (
	APIPathSuffix   = "/api/v1"
	maxLogBodyChars = 200
	ellipsis        = "..."
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a single request; zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    NormalizeBaseURL(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// CreateResult is the outcome of a create call that reached a 2xx response.
type CreateResult struct {
	ID      string
	Status  int
	NoData  bool
	RawBody string
}

func NewTextPayload(title, text, source string) model.BookmarkPayload {
	return model.BookmarkPayload{
		Title:      TruncateTitle(title, model.MaxTitleLength),
		Text:       text,
		Type:       model.BookmarkTypeText,
		Archived:   false,
		Favourited: false,
		Note:       "Imported from file: " + source,
		Summary:    "",
	}
}

// CreateTextBookmark creates one text bookmark and reports whether the remote confirmed it.
// Failures are written to the run log found in ctx.
func (c *Client) CreateTextBookmark(ctx context.Context, title, text, source string) bool {
	rl := runlog.FromContext(ctx)
	res, err := c.Create(ctx, NewTextPayload(title, text, source))
	if err != nil {
		rl.Error("create bookmark %q failed: %v", title, err)
		return false
	}
	if res.NoData {
		rl.Warn("POST %s returned %d with no content; bookmark id unavailable", c.endpoint(), res.Status)
		return false
	}
	rl.Success("created bookmark %q (id=%s)", title, res.ID)
	return true
}

// Create issues a single POST. Returned errors unwrap to ErrRemoteRejection,
// ErrMalformedResponse or ErrNetwork.
func (c *Client) Create(ctx context.Context, payload model.BookmarkPayload) (*CreateResult, error) {
	endpoint := c.endpoint()
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", appErr.ErrNetwork, endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", appErr.ErrNetwork, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, &appErr.RemoteError{Status: resp.StatusCode, Body: Excerpt(strings.TrimSpace(string(body)), maxLogBodyChars)}
	}
	if resp.StatusCode == http.StatusNoContent {
		return &CreateResult{Status: resp.StatusCode, NoData: true}, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: read body: %v", appErr.ErrNetwork, endpoint, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &CreateResult{Status: resp.StatusCode, NoData: true}, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: POST %s: decode response: %v", appErr.ErrNetwork, endpoint, err)
	}
	id := coerceID(out["id"])
	if id == "" {
		return nil, fmt.Errorf("%w: response has no id: %s", appErr.ErrMalformedResponse, Excerpt(string(body), maxLogBodyChars))
	}
	return &CreateResult{ID: id, Status: resp.StatusCode, RawBody: string(body)}, nil
}

func (c *Client) endpoint() string {
	return c.baseURL + "/bookmarks"
}

func coerceID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// TruncateTitle shortens s to at most limit runes. When something is cut and the
// limit leaves room, the last three runes become "...".
func TruncateTitle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit < len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// Excerpt cuts s to n runes for log output.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
