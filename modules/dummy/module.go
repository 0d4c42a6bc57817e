// Package dummy provides the "dummy" and "dummy-random" task types. They do
// no real work and exist to exercise workflows without side effects.
package dummy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
)

const (
	Tag       = "dummy"
	RandomTag = "dummy-random"
)

// ErrInjected is the failure reported by a dummy task told to fail.
var ErrInjected = errors.New("dummy: injected failure")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers both dummy task types.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask(Tag, New)
	r.RegisterTask(RandomTag, NewRandom)
}

// Task sleeps for a while and then succeeds or fails.
type Task struct {
	name   string
	sleep  time.Duration
	fail   bool
	logger *slog.Logger
}

// New builds a dummy task. Parameters: `time` (seconds to sleep, default 0)
// and `fail` (bool, default false).
func New(name string, params map[string]any, logger *slog.Logger) (task.Task, error) {
	sleep, err := seconds(params["time"])
	if err != nil {
		return nil, err
	}
	fail, _ := params["fail"].(bool)
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{name: name, sleep: sleep, fail: fail, logger: logger}, nil
}

// NewRandom builds a dummy task with a random outcome. Parameters: `time`
// (maximum seconds to sleep) and `failure-rate` (0..1, default 0.5).
func NewRandom(name string, params map[string]any, logger *slog.Logger) (task.Task, error) {
	maxSleep, err := seconds(params["time"])
	if err != nil {
		return nil, err
	}
	rate := 0.5
	if raw, ok := params["failure-rate"]; ok {
		f, ok := number(raw)
		if !ok || f < 0 || f > 1 {
			return nil, fmt.Errorf("dummy-random: 'failure-rate' must be a number between 0 and 1, got %v", raw)
		}
		rate = f
	}
	var sleep time.Duration
	if maxSleep > 0 {
		sleep = rand.N(maxSleep)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{name: name, sleep: sleep, fail: rand.Float64() < rate, logger: logger}, nil
}

// Execute implements task.Task.
func (t *Task) Execute(ctx context.Context) error {
	t.logger.Debug("Dummy task sleeping", "sleep", t.sleep, "will_fail", t.fail)
	if t.sleep > 0 {
		timer := time.NewTimer(t.sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if t.fail {
		return ErrInjected
	}
	return nil
}

func seconds(raw any) (time.Duration, error) {
	if raw == nil {
		return 0, nil
	}
	f, ok := number(raw)
	if !ok || f < 0 {
		return 0, fmt.Errorf("dummy: 'time' must be a non-negative number of seconds, got %v", raw)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
