package testutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
)

// RecorderTag is the task type registered by RecorderModule.
const RecorderTag = "record"

// ErrRecorderFailure is returned by a record task configured with fail=true.
var ErrRecorderFailure = errors.New("record: requested failure")

// RecorderModule registers the "record" task type, which sleeps for a while
// and remembers when it ran. Parameters:
//
//	id     key under which the execution is recorded (defaults to the task name)
//	sleep  milliseconds to sleep
//	fail   report ErrRecorderFailure after sleeping
//	panic  panic instead of returning
type RecorderModule struct {
	mu      sync.Mutex
	records map[string]*ExecutionRecord
	order   []string
	running int
	peak    int
}

// NewRecorderModule creates an empty recorder.
func NewRecorderModule() *RecorderModule {
	return &RecorderModule{records: make(map[string]*ExecutionRecord)}
}

// Register implements registry.Module.
func (m *RecorderModule) Register(r *registry.Registry) {
	r.RegisterTask(RecorderTag, func(name string, params map[string]any, _ *slog.Logger) (task.Task, error) {
		id := name
		if v, ok := params["id"].(string); ok && v != "" {
			id = v
		}
		var sleep time.Duration
		switch v := params["sleep"].(type) {
		case nil:
		case int:
			sleep = time.Duration(v) * time.Millisecond
		case int64:
			sleep = time.Duration(v) * time.Millisecond
		case float64:
			sleep = time.Duration(v * float64(time.Millisecond))
		default:
			return nil, fmt.Errorf("record: bad sleep %v", v)
		}
		fail, _ := params["fail"].(bool)
		doPanic, _ := params["panic"].(bool)

		return task.Func(func(ctx context.Context) error {
			start := m.begin()
			time.Sleep(sleep)
			m.end(id, start)
			if doPanic {
				panic("record: requested panic")
			}
			if fail {
				return ErrRecorderFailure
			}
			return nil
		}), nil
	})
}

func (m *RecorderModule) begin() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running++
	m.peak = max(m.peak, m.running)
	return time.Now()
}

func (m *RecorderModule) end(id string, start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running--
	m.records[id] = &ExecutionRecord{Start: start, End: time.Now()}
	m.order = append(m.order, id)
}

// Record returns the execution record for id.
func (m *RecorderModule) Record(id string) (*ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

// Executed returns the ids that ran, sorted.
func (m *RecorderModule) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Order returns the ids in the order they finished.
func (m *RecorderModule) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// PeakConcurrency returns the highest number of record tasks observed
// running at the same time.
func (m *RecorderModule) PeakConcurrency() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}
