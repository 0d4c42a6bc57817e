// Package http_request provides the "http-request" task type, which sends a
// single HTTP request and fails on an unexpected status. Workflows use it to
// wait for a service before dependent tasks start.
package http_request

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
)

// Tag is the task-type tag this module registers.
const Tag = "http-request"

const defaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the http-request task factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask(Tag, New)
}

// StatusError reports a response whose status did not match.
type StatusError struct {
	URL    string
	Status int
	Want   int
}

func (e *StatusError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("request to %s returned status %d, want 2xx", e.URL, e.Status)
	}
	return fmt.Sprintf("request to %s returned status %d, want %d", e.URL, e.Status, e.Want)
}

// Task sends one request.
type Task struct {
	url    string
	method string
	want   int
	client *http.Client
	logger *slog.Logger
}

// New builds an http-request task. Parameters: `url` (required), `method`
// (default GET), `timeout` (Go duration string, default 30s) and
// `expect-status` (exact status code; any 2xx when omitted).
func New(name string, params map[string]any, logger *slog.Logger) (task.Task, error) {
	url, _ := params["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http-request: 'url' is required")
	}
	method := http.MethodGet
	if v, ok := params["method"].(string); ok && v != "" {
		method = strings.ToUpper(v)
	}

	timeout := defaultTimeout
	if v, ok := params["timeout"]; ok {
		s, isString := v.(string)
		if !isString {
			return nil, fmt.Errorf("http-request: 'timeout' must be a duration string, got %T", v)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("http-request: bad 'timeout': %w", err)
		}
		timeout = d
	}

	var want int
	switch v := params["expect-status"].(type) {
	case nil:
	case int:
		want = v
	case int64:
		want = int(v)
	case float64:
		want = int(v)
	default:
		return nil, fmt.Errorf("http-request: 'expect-status' must be a number, got %T", v)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		url:    url,
		method: method,
		want:   want,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Execute implements task.Task.
func (t *Task) Execute(ctx context.Context) error {
	defer t.client.CloseIdleConnections()

	t.logger.Info("Making HTTP request", "method", t.method, "url", t.url)
	req, err := http.NewRequestWithContext(ctx, t.method, t.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	t.logger.Info("Received HTTP response", "status", resp.Status)
	ok := resp.StatusCode == t.want
	if t.want == 0 {
		ok = resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	if !ok {
		return &StatusError{URL: t.url, Status: resp.StatusCode, Want: t.want}
	}
	return nil
}
