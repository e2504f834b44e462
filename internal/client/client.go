package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/observe"
)

// Envelope statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// Actions reported by the server for accepted edits.
const (
	ActionInserted = "inserted"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
)

// ActionStatus is the payload of a successful edit response. Tid carries the
// server-assigned id of an inserted task or link.
type ActionStatus struct {
	Action string `json:"action"`
	Tid    string `json:"tid,omitempty"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Config holds the connection settings for a planning server.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the planning server's JSON API.
type Client struct {
	cfg      Config
	http     *http.Client
	observer observe.Observer
}

// New creates a Client. A nil observer is replaced with a no-op.
func New(cfg Config, observer observe.Observer) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observe.OrNoop(observer),
	}
}

// Projects returns the projects known to the server.
func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Snapshot fetches the plan of one project. Closed tasks are only included
// when includeClosed is set.
func (c *Client) Snapshot(ctx context.Context, projectID string, includeClosed bool) (domain.Snapshot, error) {
	p := "/api/plan/" + url.PathEscape(projectID)
	if includeClosed {
		p += "?closed=1"
	}

	var snap domain.Snapshot
	if err := c.do(ctx, http.MethodGet, p, nil, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetching plan %s: %w", projectID, err)
	}
	for i := range snap.Tasks {
		snap.Tasks[i].Normalize()
	}
	return snap, nil
}

// CreateTask submits a new task.
func (c *Client) CreateTask(ctx context.Context, projectID string, task domain.Task) (ActionStatus, error) {
	return c.edit(ctx, http.MethodPost, projectID, "task", task)
}

// UpdateTask submits changes to an existing task.
func (c *Client) UpdateTask(ctx context.Context, projectID string, task domain.Task) (ActionStatus, error) {
	return c.edit(ctx, http.MethodPut, projectID, "task", task)
}

// CreateLink submits a new dependency link.
func (c *Client) CreateLink(ctx context.Context, projectID string, link domain.Link) (ActionStatus, error) {
	return c.edit(ctx, http.MethodPost, projectID, "link", link)
}

// DeleteLink removes a dependency link. The request body is the JSON-encoded
// link id.
func (c *Client) DeleteLink(ctx context.Context, projectID, linkID string) (ActionStatus, error) {
	return c.edit(ctx, http.MethodDelete, projectID, "link", linkID)
}

func (c *Client) edit(ctx context.Context, method, projectID, kind string, body any) (ActionStatus, error) {
	p := "/api/edit/" + url.PathEscape(projectID) + "/" + kind

	var status ActionStatus
	if err := c.do(ctx, method, p, body, &status); err != nil {
		return ActionStatus{}, fmt.Errorf("%s %s: %w", strings.ToLower(method), kind, err)
	}
	return status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	start := time.Now()
	statusCode := 0
	defer func() {
		c.observer.Observe(ctx, observe.Event{
			Name:      "http_call",
			Duration:  time.Since(start),
			Success:   err == nil,
			Err:       err,
			StartedAt: start,
			Fields: map[string]any{
				"method": method,
				"path":   path,
				"status": statusCode,
			},
		})
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ErrTimeout
		}
		if isConnectionError(err) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
		}
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if env.Status != StatusSuccess || resp.StatusCode >= http.StatusBadRequest {
		var msg string
		if json.Unmarshal(env.Data, &msg) != nil || msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", ErrServer, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decoding data: %v", ErrMalformedResponse, err)
	}
	return nil
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
