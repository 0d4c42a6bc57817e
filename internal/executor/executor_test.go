package executor

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gridflow/internal/dag"
	"github.com/specialistvlad/gridflow/internal/metrics"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/specialistvlad/gridflow/internal/testutil"
)

// taskDef is a compact way to declare a descriptor in tests.
type taskDef struct {
	name    string
	deps    []string
	do      map[string]any
	cleanup map[string]any
}

func record(params map[string]any) *task.Action {
	if params == nil {
		params = map[string]any{}
	}
	return &task.Action{Type: testutil.RecorderTag, Params: params}
}

func newCollection(t *testing.T, defs ...taskDef) *task.Collection {
	t.Helper()
	descs := make([]task.Descriptor, 0, len(defs))
	for _, s := range defs {
		d := task.Descriptor{Name: s.name, Dependencies: s.deps, Do: record(s.do)}
		if s.cleanup != nil {
			d.Cleanup = record(s.cleanup)
		}
		descs = append(descs, d)
	}
	c, err := task.NewCollection(descs)
	require.NoError(t, err)
	return c
}

type harness struct {
	engine   *Engine
	recorder *testutil.RecorderModule
	logs     *testutil.SafeBuffer
	plan     *bytes.Buffer
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		recorder: testutil.NewRecorderModule(),
		logs:     &testutil.SafeBuffer{},
		plan:     &bytes.Buffer{},
	}
	reg := registry.NewWithModules(h.recorder)
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{WithPlanWriter(h.plan)}, opts...)
	h.engine = New(reg, logger, opts...)

	t.Cleanup(func() {
		if os.Getenv("GRIDFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), h.logs.String())
		}
	})
	return h
}

func (h *harness) run(t *testing.T, coll *task.Collection) *RunResult {
	t.Helper()
	res, err := h.engine.Run(context.Background(), coll, false)
	require.NoError(t, err)
	return res
}

func TestRun_TopologicalOrder(t *testing.T) {
	// --- Arrange ---
	// a -> (b, c) -> d
	coll := newCollection(t,
		taskDef{name: "a", do: map[string]any{"sleep": 30}},
		taskDef{name: "b", deps: []string{"a"}, do: map[string]any{"sleep": 30}},
		taskDef{name: "c", deps: []string{"a"}, do: map[string]any{"sleep": 30}},
		taskDef{name: "d", deps: []string{"b", "c"}},
	)
	h := newHarness(t)

	// --- Act ---
	res := h.run(t, coll)

	// --- Assert ---
	require.True(t, res.OK())
	assert.Equal(t, []string{"a", "b", "c", "d"}, res.Successful())

	for _, d := range coll.All() {
		rec, ok := h.recorder.Record(d.Name)
		require.True(t, ok, "task %s did not run", d.Name)
		for _, dep := range d.Dependencies {
			depRec, ok := h.recorder.Record(dep)
			require.True(t, ok)
			assert.False(t, rec.Start.Before(depRec.End), "%s started before %s finished", d.Name, dep)
		}
	}

	b, _ := h.recorder.Record("b")
	c, _ := h.recorder.Record("c")
	assert.True(t, b.Start.Before(c.End) && c.Start.Before(b.End), "independent siblings should overlap")
}

func TestRun_FailurePropagation(t *testing.T) {
	t.Run("dependents of a failed task are canceled and never run", func(t *testing.T) {
		// --- Arrange ---
		coll := newCollection(t,
			taskDef{name: "A", do: map[string]any{"fail": true}},
			taskDef{name: "B", deps: []string{"A"}},
			taskDef{name: "C", deps: []string{"B"}},
		)
		h := newHarness(t)

		// --- Act ---
		res := h.run(t, coll)

		// --- Assert ---
		assert.False(t, res.OK())
		assert.Equal(t, []string{"A"}, res.Failed())
		assert.Equal(t, []string{"B", "C"}, res.Canceled())
		assert.Empty(t, res.Successful())
		assert.Equal(t, []string{"A"}, h.recorder.Executed())
		assert.ErrorIs(t, res.Forward.Errors["A"], testutil.ErrRecorderFailure)
		assert.Contains(t, h.logs.String(), "Skipping task due to dependency failure")
	})

	t.Run("independent branches keep running", func(t *testing.T) {
		coll := newCollection(t,
			taskDef{name: "bad", do: map[string]any{"fail": true}},
			taskDef{name: "after-bad", deps: []string{"bad"}},
			taskDef{name: "good", do: map[string]any{"sleep": 20}},
			taskDef{name: "after-good", deps: []string{"good"}},
		)
		h := newHarness(t)

		res := h.run(t, coll)

		assert.Equal(t, []string{"bad"}, res.Failed())
		assert.Equal(t, []string{"after-bad"}, res.Canceled())
		assert.Equal(t, []string{"after-good", "good"}, res.Successful())
	})

	t.Run("panicking task fails without stopping the run", func(t *testing.T) {
		coll := newCollection(t,
			taskDef{name: "p", do: map[string]any{"panic": true}},
			taskDef{name: "q"},
		)
		h := newHarness(t)

		res := h.run(t, coll)

		assert.Equal(t, []string{"p"}, res.Failed())
		assert.Equal(t, []string{"q"}, res.Successful())
		assert.ErrorContains(t, res.Forward.Errors["p"], "task panicked")
	})

	t.Run("unknown task type fails only that task", func(t *testing.T) {
		coll, err := task.NewCollection([]task.Descriptor{
			{Name: "x", Do: &task.Action{Type: "nope"}},
			{Name: "y", Do: record(nil)},
		})
		require.NoError(t, err)
		h := newHarness(t)

		res := h.run(t, coll)

		assert.Equal(t, []string{"x"}, res.Failed())
		assert.ErrorIs(t, res.Forward.Errors["x"], registry.ErrUnknownTaskType)
	})
}

func TestRun_Cleanup(t *testing.T) {
	t.Run("cleanup runs in reverse dependency order", func(t *testing.T) {
		// --- Arrange ---
		coll := newCollection(t,
			taskDef{name: "A", cleanup: map[string]any{"id": "cleanup-A"}},
			taskDef{name: "B", deps: []string{"A"}, cleanup: map[string]any{"id": "cleanup-B", "sleep": 30}},
		)
		h := newHarness(t)

		// --- Act ---
		res := h.run(t, coll)

		// --- Assert ---
		require.True(t, res.OK())
		assert.Equal(t, []string{"A", "B"}, res.Cleanup.Successful)

		a, ok := h.recorder.Record("cleanup-A")
		require.True(t, ok)
		b, ok := h.recorder.Record("cleanup-B")
		require.True(t, ok)
		assert.False(t, a.Start.Before(b.End), "cleanup of A started before cleanup of B finished")

		forwardB, _ := h.recorder.Record("B")
		assert.False(t, b.Start.Before(forwardB.End), "cleanup started before the forward pass ended")
	})

	t.Run("cleanup runs even after an unrelated failure", func(t *testing.T) {
		coll := newCollection(t,
			taskDef{name: "A", do: map[string]any{"fail": true}},
			taskDef{name: "B", cleanup: map[string]any{"id": "cleanup-B"}},
		)
		h := newHarness(t)

		res := h.run(t, coll)

		assert.Equal(t, []string{"A"}, res.Failed())
		_, ran := h.recorder.Record("cleanup-B")
		assert.True(t, ran)
		assert.Equal(t, []string{"B"}, res.Cleanup.Successful)
	})

	t.Run("a failed cleanup skips the cleanup of its dependencies", func(t *testing.T) {
		coll := newCollection(t,
			taskDef{name: "A", cleanup: map[string]any{"id": "cleanup-A"}},
			taskDef{name: "B", deps: []string{"A"}, cleanup: map[string]any{"id": "cleanup-B", "fail": true}},
			taskDef{name: "X", cleanup: map[string]any{"id": "cleanup-X"}},
		)
		h := newHarness(t)

		res := h.run(t, coll)

		assert.Equal(t, []string{"B"}, res.Cleanup.Failed)
		assert.Equal(t, []string{"A"}, res.Cleanup.Canceled)
		assert.Equal(t, []string{"X"}, res.Cleanup.Successful)
		assert.Equal(t, []string{"A", "B", "X"}, res.Forward.Successful)

		// Combined, every task sits in exactly one set.
		assert.Equal(t, []string{"B"}, res.Failed())
		assert.Equal(t, []string{"A"}, res.Canceled())
		assert.Equal(t, []string{"X"}, res.Successful())

		_, ran := h.recorder.Record("cleanup-A")
		assert.False(t, ran)
	})

	t.Run("tasks without cleanup keep the ordering", func(t *testing.T) {
		// A <- M <- B, only A and B clean up.
		coll := newCollection(t,
			taskDef{name: "A", cleanup: map[string]any{"id": "cleanup-A"}},
			taskDef{name: "M", deps: []string{"A"}},
			taskDef{name: "B", deps: []string{"M"}, cleanup: map[string]any{"id": "cleanup-B", "sleep": 30}},
		)
		h := newHarness(t)

		res := h.run(t, coll)

		require.True(t, res.OK())
		assert.Equal(t, []string{"A", "B"}, res.Cleanup.Successful)
		a, _ := h.recorder.Record("cleanup-A")
		b, _ := h.recorder.Record("cleanup-B")
		assert.False(t, a.Start.Before(b.End))
	})
}

func TestRun_WorkerBound(t *testing.T) {
	var defs []taskDef
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		defs = append(defs, taskDef{name: n, do: map[string]any{"sleep": 20}})
	}
	h := newHarness(t, WithWorkers(2))

	res := h.run(t, newCollection(t, defs...))

	require.True(t, res.OK())
	assert.LessOrEqual(t, h.recorder.PeakConcurrency(), 2)
	assert.Len(t, h.recorder.Executed(), 6)
}

func TestRun_Interrupted(t *testing.T) {
	coll := newCollection(t,
		taskDef{name: "a", cleanup: map[string]any{"id": "cleanup-a"}},
		taskDef{name: "b", deps: []string{"a"}},
	)
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.engine.Run(ctx, coll, false)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Forward.Canceled)
	assert.Empty(t, res.Forward.Successful)
	// Cleanup is detached from the interrupt.
	assert.Equal(t, []string{"a"}, res.Cleanup.Successful)
}

func TestRun_Cycle(t *testing.T) {
	coll := newCollection(t,
		taskDef{name: "a", deps: []string{"c"}},
		taskDef{name: "b", deps: []string{"a"}},
		taskDef{name: "c", deps: []string{"b"}},
	)
	h := newHarness(t)

	for _, dryRun := range []bool{false, true} {
		_, err := h.engine.Run(context.Background(), coll, dryRun)
		require.ErrorIs(t, err, dag.ErrCycle)
	}
	assert.Empty(t, h.recorder.Executed())
}

func TestRun_DryRun(t *testing.T) {
	// --- Arrange ---
	coll := newCollection(t,
		taskDef{name: "base"},
		taskDef{name: "mid", deps: []string{"base"}},
		taskDef{name: "top", deps: []string{"mid", "base"}},
		taskDef{name: "solo", cleanup: map[string]any{}},
	)
	h := newHarness(t)

	// --- Act ---
	res, err := h.engine.Run(context.Background(), coll, true)

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Empty(t, res.Failed())
	assert.Empty(t, res.Canceled())
	assert.Empty(t, res.Successful())
	assert.Empty(t, h.recorder.Executed())

	want := strings.Join([]string{
		"solo",
		"top",
		"    mid",
		"        base",
		"    base",
		"",
	}, "\n")
	assert.Equal(t, want, h.plan.String())
}

func TestRun_LogsEachAttemptOnce(t *testing.T) {
	coll := newCollection(t,
		taskDef{name: "ok-task"},
		taskDef{name: "bad-task", do: map[string]any{"fail": true}},
	)
	h := newHarness(t)

	h.run(t, coll)

	logs := h.logs.String()
	assert.Equal(t, 2, strings.Count(logs, "Starting task"))
	assert.Equal(t, 1, strings.Count(logs, "Finished task"))
	assert.Equal(t, 1, strings.Count(logs, "Task failed"))
	assert.Contains(t, logs, "task=bad-task")
	assert.Contains(t, logs, "run_id=")
}

func TestRun_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	coll := newCollection(t,
		taskDef{name: "a", do: map[string]any{"fail": true}},
		taskDef{name: "b", deps: []string{"a"}},
	)
	h := newHarness(t, WithMetrics(m))
	h.run(t, coll)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gridflow_tasks_total")
	assert.Contains(t, names, "gridflow_runs_total")
}

func TestNewPlan(t *testing.T) {
	p := NewPlan(dag.DependencyMap{
		"a": nil,
		"b": {"a"},
		"c": {"a"},
	})

	require.Len(t, p.Roots, 2)
	assert.Equal(t, "b\n    a\nc\n    a\n", p.String())
}
