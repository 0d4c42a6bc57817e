package socketio

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		tk, err := New("probe", map[string]any{"url": "ws://localhost:3000/socket.io/", "on-event": "pong"}, nil)

		require.NoError(t, err)
		st := tk.(*Task)
		assert.Equal(t, "/", st.namespace)
		assert.Equal(t, defaultTimeout, st.timeout)
		assert.Equal(t, "/socket.io/", st.url.Path)
	})

	t.Run("all params", func(t *testing.T) {
		tk, err := New("probe", map[string]any{
			"url":                  "wss://example.com/ws",
			"on-event":             "pong",
			"namespace":            "/chat",
			"emit-event":           "ping",
			"emit-data":            map[string]any{"n": 1},
			"timeout":              "250ms",
			"insecure-skip-verify": true,
		}, nil)

		require.NoError(t, err)
		st := tk.(*Task)
		assert.Equal(t, "/chat", st.namespace)
		assert.Equal(t, "ping", st.emitEvent)
		assert.Equal(t, map[string]any{"n": 1}, st.emitData)
		assert.Equal(t, 250*time.Millisecond, st.timeout)
		assert.True(t, st.insecure)
	})

	cases := map[string]map[string]any{
		"missing url":      {"on-event": "x"},
		"relative url":     {"url": "/only/path", "on-event": "x"},
		"missing on-event": {"url": "ws://h"},
		"bad emit-data":    {"url": "ws://h", "on-event": "x", "emit-data": "nope"},
		"bad timeout":      {"url": "ws://h", "on-event": "x", "timeout": "later"},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New("probe", params, nil)
			assert.Error(t, err)
		})
	}
}

func TestExecute_Unreachable(t *testing.T) {
	// --- Arrange ---
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	tk, err := New("probe", map[string]any{
		"url":      "ws://127.0.0.1:1/socket.io/",
		"on-event": "pong",
		"timeout":  "500ms",
	}, logger)
	require.NoError(t, err)

	// --- Act ---
	err = tk.Execute(context.Background())

	// --- Assert ---
	assert.ErrorContains(t, err, "socketio:")
}
