// Package socketio provides the "socketio" task type. It connects to a
// Socket.IO server, optionally emits an event, and succeeds once the
// expected event arrives. Workflows use it to probe realtime services.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
)

// Tag is the task-type tag this module registers.
const Tag = "socketio"

const defaultTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the socketio task factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask(Tag, New)
}

// Task is one connect, emit and wait round trip.
type Task struct {
	url       *url.URL
	namespace string
	onEvent   string
	emitEvent string
	emitData  map[string]any
	timeout   time.Duration
	insecure  bool
	logger    *slog.Logger
}

// New builds a socketio task. Parameters: `url` (required), `on-event`
// (required, event to wait for), `namespace` (default "/"), `emit-event`
// and `emit-data` (sent once connected), `timeout` (Go duration string,
// default 10s) and `insecure-skip-verify`.
func New(name string, params map[string]any, logger *slog.Logger) (task.Task, error) {
	raw, _ := params["url"].(string)
	if raw == "" {
		return nil, fmt.Errorf("socketio: 'url' is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("socketio: failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("socketio: URL %q needs a scheme and host", raw)
	}

	onEvent, _ := params["on-event"].(string)
	if onEvent == "" {
		return nil, fmt.Errorf("socketio: 'on-event' is required")
	}

	t := &Task{
		url:       parsed,
		namespace: "/",
		onEvent:   onEvent,
		timeout:   defaultTimeout,
		logger:    logger,
	}
	if v, ok := params["namespace"].(string); ok && v != "" {
		t.namespace = v
	}
	t.emitEvent, _ = params["emit-event"].(string)
	if v, ok := params["emit-data"]; ok {
		data, isMap := v.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("socketio: 'emit-data' must be a mapping, got %T", v)
		}
		t.emitData = data
	}
	if v, ok := params["timeout"]; ok {
		s, isString := v.(string)
		if !isString {
			return nil, fmt.Errorf("socketio: 'timeout' must be a duration string, got %T", v)
		}
		if t.timeout, err = time.ParseDuration(s); err != nil {
			return nil, fmt.Errorf("socketio: bad 'timeout': %w", err)
		}
	}
	t.insecure, _ = params["insecure-skip-verify"].(bool)
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t, nil
}

type opResult struct {
	data any
	err  error
}

// Execute implements task.Task.
func (t *Task) Execute(ctx context.Context) error {
	logger := t.logger.With("url", t.url.String(), "on_event", t.onEvent)
	logger.Debug("Socket.IO probe started")

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	report := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	opts.SetPath(t.url.Path)
	if t.insecure {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", t.url.Scheme, t.url.Host)
	manager := socket.NewManager(baseURL, opts)
	client := manager.Socket(t.namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		client.Disconnect()
	}()

	client.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", t.namespace, "sid", client.Id())
		if t.emitEvent != "" {
			jsonData, _ := json.Marshal(t.emitData)
			logger.Info("Emitting event", "event", t.emitEvent, "data", string(jsonData))
			client.Emit(t.emitEvent, t.emitData)
		}
	})

	client.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("socketio: connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("socketio: connection failed: %w", e)
			}
		}
		report(opResult{err: err})
	})

	client.On(types.EventName(t.onEvent), func(data ...any) {
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		report(opResult{data: payload})
	})

	client.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return fmt.Errorf("socketio: timed out after connecting while waiting for event '%s'", t.onEvent)
		}
		return fmt.Errorf("socketio: timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		logger.Info("Received event", "event", t.onEvent, "data", res.data)
		return nil
	}
}
