package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gridflow/internal/dag"
	"github.com/specialistvlad/gridflow/internal/task"
)

func collection(t *testing.T, deps map[string][]string, order ...string) *task.Collection {
	t.Helper()
	descs := make([]task.Descriptor, 0, len(order))
	for _, name := range order {
		descs = append(descs, task.Descriptor{
			Name:         name,
			Dependencies: deps[name],
			Do:           &task.Action{Type: "dummy"},
		})
	}
	c, err := task.NewCollection(descs)
	require.NoError(t, err)
	return c
}

// drain runs the sorter to completion, marking every batch done at once,
// and returns the batches in the order they were handed out.
func drain(t *testing.T, s *Sorter) [][]string {
	t.Helper()
	var batches [][]string
	for s.IsActive() {
		ready, err := s.GetReady()
		require.NoError(t, err)
		require.NotEmpty(t, ready, "active sorter returned an empty ready set")
		batches = append(batches, ready)
		require.NoError(t, s.Done(ready...))
	}
	return batches
}

func TestBuild_Forward(t *testing.T) {
	// --- Arrange ---
	// a -> b -> d, a -> c -> d
	deps := map[string][]string{"b": {"a"}, "c": {"a"}, "d": {"b", "c"}}
	s, depMap, err := Build(collection(t, deps, "a", "b", "c", "d"), false)
	require.NoError(t, err)

	// --- Act ---
	require.NoError(t, s.Prepare())
	batches := drain(t, s)

	// --- Assert ---
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}, {"d"}}, batches)
	assert.Equal(t, dag.DependencyMap{"a": nil, "b": {"a"}, "c": {"a"}, "d": {"b", "c"}}, depMap)
}

func TestBuild_Reverse(t *testing.T) {
	deps := map[string][]string{"b": {"a"}, "c": {"b"}}
	s, depMap, err := Build(collection(t, deps, "a", "b", "c"), true)
	require.NoError(t, err)
	require.NoError(t, s.Prepare())

	assert.Equal(t, [][]string{{"c"}, {"b"}, {"a"}}, drain(t, s))
	// The dependency map keeps forward semantics.
	assert.Equal(t, []string{"a"}, depMap["b"])
}

func TestSorter_Cycle(t *testing.T) {
	deps := map[string][]string{"a": {"c"}, "b": {"a"}, "c": {"b"}}
	s, _, err := Build(collection(t, deps, "a", "b", "c"), false)
	require.NoError(t, err)

	err = s.Prepare()
	require.ErrorIs(t, err, dag.ErrCycle)
	assert.False(t, s.IsActive())
}

func TestSorter_Misuse(t *testing.T) {
	t.Run("calls before prepare", func(t *testing.T) {
		s, _, err := Build(collection(t, nil, "a"), false)
		require.NoError(t, err)

		_, err = s.GetReady()
		assert.ErrorIs(t, err, ErrNotPrepared)
		assert.ErrorIs(t, s.Done("a"), ErrNotPrepared)
		assert.False(t, s.IsActive())
	})

	t.Run("prepare twice", func(t *testing.T) {
		s, _, err := Build(collection(t, nil, "a"), false)
		require.NoError(t, err)
		require.NoError(t, s.Prepare())
		assert.ErrorIs(t, s.Prepare(), ErrAlreadyPrepared)
	})

	t.Run("done on unknown, waiting and completed nodes", func(t *testing.T) {
		s, _, err := Build(collection(t, map[string][]string{"b": {"a"}}, "a", "b"), false)
		require.NoError(t, err)
		require.NoError(t, s.Prepare())

		ready, err := s.GetReady()
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, ready)

		assert.ErrorIs(t, s.Done("zzz"), ErrUnknownNode)
		assert.ErrorIs(t, s.Done("b"), ErrNotHandedOut)
		require.NoError(t, s.Done("a"))
		assert.ErrorIs(t, s.Done("a"), ErrAlreadyCompleted)
	})

	t.Run("ready set is handed out once", func(t *testing.T) {
		s, _, err := Build(collection(t, nil, "a", "b"), false)
		require.NoError(t, err)
		require.NoError(t, s.Prepare())

		first, err := s.GetReady()
		require.NoError(t, err)
		second, err := s.GetReady()
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, first)
		assert.Empty(t, second)
		assert.True(t, s.IsActive())
	})
}
