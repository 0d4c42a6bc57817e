package scheduler

import (
	"fmt"

	"github.com/specialistvlad/gridflow/internal/dag"
	"github.com/specialistvlad/gridflow/internal/task"
)

// Build creates an unprepared Sorter for the tasks of coll along with the
// forward dependency map. With reverse set, every edge is inverted so that
// a task is handed out only after all of its dependents; the returned map
// stays forward either way.
func Build(coll *task.Collection, reverse bool) (*Sorter, dag.DependencyMap, error) {
	g := dag.New()
	deps := make(dag.DependencyMap, coll.Len())

	for _, d := range coll.All() {
		if err := g.AddNode(d.Name); err != nil {
			return nil, nil, err
		}
		deps[d.Name] = append([]string(nil), d.Dependencies...)
	}

	for _, d := range coll.All() {
		for _, dep := range d.Dependencies {
			from, to := dep, d.Name
			if reverse {
				from, to = d.Name, dep
			}
			if err := g.AddEdge(from, to); err != nil {
				return nil, nil, fmt.Errorf("task %q: %w", d.Name, err)
			}
		}
	}

	return New(g), deps, nil
}
