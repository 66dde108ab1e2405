package obsidian

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	requestTimeout = 30 * time.Second

	// MaxNoteSize is the largest note body accepted for a write.
	MaxNoteSize = 50 << 20
)

// statJSON is the media type the Local REST API uses to return note
// metadata instead of the raw body.
const statJSON = "application/vnd.olrapi.note+json"

// Stat describes a note as reported by the upstream API.
type Stat struct {
	Path     string
	Size     int64
	Modified time.Time
	Created  time.Time
}

// SearchMatch is a single match inside a search hit, with surrounding
// context text as returned by the upstream search endpoint.
type SearchMatch struct {
	Context string `json:"context"`
}

// SearchHit is one result of a simple search.
type SearchHit struct {
	Filename string        `json:"filename"`
	Score    float64       `json:"score"`
	Matches  []SearchMatch `json:"matches"`
}

// Client is a typed client for the Obsidian Local REST API. All note and
// folder paths it accepts are vault-relative; they are validated against
// the path policy before any request is sent.
//
// Every mutating call invalidates the gateway caches through onMutate,
// whether or not the upstream accepted the write.
type Client struct {
	http     *resty.Client
	breaker  *gobreaker.CircuitBreaker
	onMutate func()
}

// NewClient builds a client for the given base URL and bearer token.
func NewClient(baseURL, apiKey string) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "obsidian-api",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{http: hc, breaker: cb}
}

// OnMutate registers a callback invoked after every mutating operation.
func (c *Client) OnMutate(fn func()) { c.onMutate = fn }

func (c *Client) mutated() {
	if c.onMutate != nil {
		c.onMutate()
	}
}

// execute runs one upstream request through the circuit breaker. Only
// transport failures and 5xx responses count against the breaker; 4xx
// responses are the caller's problem and pass through as successes.
func (c *Client) execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := fn()
		if err != nil {
			return nil, transportError(err)
		}
		if resp.StatusCode() >= 500 {
			return nil, statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
		}
		return resp, nil
	})
	if err != nil {
		if apiErr, ok := err.(*APIError); ok {
			return nil, apiErr
		}
		// Breaker open or half-open rejection.
		return nil, &APIError{Kind: KindUpstream, Message: "circuit breaker open", err: err}
	}
	return v.(*resty.Response), nil
}

// GetNote fetches the raw markdown body of a note.
func (c *Client) GetNote(ctx context.Context, path string) (string, error) {
	p, err := NormalizePath(path)
	if err != nil {
		return "", err
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Accept", "text/markdown").
			Get("/vault/" + encodePath(p))
	})
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return string(resp.Body()), nil
}

// NoteStat fetches note metadata (size and timestamps) without the body.
func (c *Client) NoteStat(ctx context.Context, path string) (*Stat, error) {
	p, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Accept", statJSON).
			Get("/vault/" + encodePath(p))
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var body struct {
		Path string `json:"path"`
		Stat struct {
			CTime int64 `json:"ctime"`
			MTime int64 `json:"mtime"`
			Size  int64 `json:"size"`
		} `json:"stat"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &APIError{Kind: KindUpstream, Message: "malformed stat response", err: err}
	}

	return &Stat{
		Path:     p,
		Size:     body.Stat.Size,
		Modified: time.UnixMilli(body.Stat.MTime).UTC(),
		Created:  time.UnixMilli(body.Stat.CTime).UTC(),
	}, nil
}

// PutNote writes the full content of a note, creating it if absent. With
// createFolders the upstream creates missing intermediate folders instead
// of rejecting the path.
func (c *Client) PutNote(ctx context.Context, path, content string, createFolders bool) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if len(content) > MaxNoteSize {
		return &APIError{Kind: KindClient, Message: fmt.Sprintf("note body exceeds %d bytes", MaxNoteSize)}
	}
	defer c.mutated()

	resp, err := c.execute(func() (*resty.Response, error) {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "text/markdown").
			SetBody(content)
		if createFolders {
			req.SetQueryParam("createDirectories", "true")
		}
		return req.Put("/vault/" + encodePath(p))
	})
	if err != nil {
		return err
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// DeleteNote removes a note from the vault.
func (c *Client) DeleteNote(ctx context.Context, path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}
	defer c.mutated()

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			Delete("/vault/" + encodePath(p))
	})
	if err != nil {
		return err
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// ListFolder lists the immediate children of a vault folder. Pass "" for
// the vault root. Entries ending in "/" are subfolders.
func (c *Client) ListFolder(ctx context.Context, folder string) ([]string, error) {
	target := "/vault/"
	if folder != "" {
		p, err := NormalizePath(strings.TrimSuffix(folder, "/") + "/")
		if err != nil {
			return nil, err
		}
		target = "/vault/" + encodePath(p)
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			Get(target)
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var body struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &APIError{Kind: KindUpstream, Message: "malformed listing response", err: err}
	}
	return body.Files, nil
}

// SearchSimple runs the upstream text search and returns raw hits. An empty
// query is rejected before any I/O. folder optionally scopes the search.
func (c *Client) SearchSimple(ctx context.Context, query, folder string) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &APIError{Kind: KindClient, Message: "empty search query"}
	}

	body := map[string]any{"query": query}
	if folder != "" {
		body["folder"] = folder
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(body).
			Post("/search/simple/")
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var hits []SearchHit
	if err := json.Unmarshal(resp.Body(), &hits); err != nil {
		return nil, &APIError{Kind: KindUpstream, Message: "malformed search response", err: err}
	}
	return hits, nil
}

// ExecuteCommand triggers a registered Obsidian command by name, with
// optional command parameters. Commands can change vault state, so this
// counts as a mutation. The upstream's response body is returned verbatim.
func (c *Client) ExecuteCommand(ctx context.Context, name string, params map[string]any) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &APIError{Kind: KindClient, Message: "empty command name"}
	}
	defer c.mutated()

	body := map[string]any{"name": name}
	if len(params) > 0 {
		body["params"] = params
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(body).
			Post("/command/")
	})
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return string(resp.Body()), nil
}

// Health probes the upstream root endpoint and reports whether the API is
// reachable and authenticated.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			Get("/")
	})
	if err != nil {
		return err
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
