package scheduler

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/dag"
)

var (
	ErrNotPrepared      = errors.New("scheduler: Prepare has not been called")
	ErrAlreadyPrepared  = errors.New("scheduler: Prepare called more than once")
	ErrUnknownNode      = errors.New("scheduler: unknown node")
	ErrNotHandedOut     = errors.New("scheduler: node was not returned by GetReady")
	ErrAlreadyCompleted = errors.New("scheduler: node already marked done")
)

type nodeState int

const (
	waiting nodeState = iota
	handedOut
	completed
)

// Sorter is a topological ready-set driver over a dag.Graph.
type Sorter struct {
	graph    *dag.Graph
	prepared bool

	order     []string
	remaining map[string]int
	state     map[string]nodeState
	ready     []string
	finished  int
}

// New creates a Sorter for g. The graph may still be mutated until Prepare.
func New(g *dag.Graph) *Sorter {
	return &Sorter{graph: g}
}

// Prepare freezes the graph, checks it for cycles and computes the initial
// ready set. It may only be called once.
func (s *Sorter) Prepare() error {
	if s.prepared {
		return ErrAlreadyPrepared
	}
	s.prepared = true
	s.graph.Freeze()

	if err := s.graph.DetectCycles(); err != nil {
		return err
	}

	s.order = s.graph.Nodes()
	s.remaining = make(map[string]int, len(s.order))
	s.state = make(map[string]nodeState, len(s.order))
	for _, id := range s.order {
		deps, err := s.graph.Dependencies(id)
		if err != nil {
			return err
		}
		s.remaining[id] = len(deps)
		if len(deps) == 0 {
			s.ready = append(s.ready, id)
		}
	}
	return nil
}

// IsActive reports whether some node has not been marked done yet.
func (s *Sorter) IsActive() bool {
	if !s.prepared {
		return false
	}
	return s.finished < len(s.order)
}

// GetReady returns every node that became ready since the previous call, in
// graph insertion order. Each node is returned exactly once.
func (s *Sorter) GetReady() ([]string, error) {
	if !s.prepared {
		return nil, ErrNotPrepared
	}
	batch := s.ready
	s.ready = nil
	for _, id := range batch {
		s.state[id] = handedOut
	}
	return batch, nil
}

// Done marks nodes as finished, which may make their dependents ready.
func (s *Sorter) Done(ids ...string) error {
	if !s.prepared {
		return ErrNotPrepared
	}
	for _, id := range ids {
		st, ok := s.state[id]
		if !ok {
			if _, known := s.remaining[id]; !known {
				return fmt.Errorf("%w: %s", ErrUnknownNode, id)
			}
			return fmt.Errorf("%w: %s", ErrNotHandedOut, id)
		}
		switch st {
		case completed:
			return fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
		case waiting:
			return fmt.Errorf("%w: %s", ErrNotHandedOut, id)
		}

		s.state[id] = completed
		s.finished++

		dependents, err := s.graph.Dependents(id)
		if err != nil {
			return err
		}
		var unlocked []string
		for _, dep := range dependents {
			s.remaining[dep]--
			if s.remaining[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		s.ready = append(s.ready, unlocked...)
	}
	return nil
}
