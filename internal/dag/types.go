package dag

import (
	"errors"
	"sync"
)

var (
	// ErrCycle is returned by DetectCycles when the graph is not acyclic.
	ErrCycle = errors.New("cycle detected")
	// ErrFrozen is returned when the graph is mutated after Freeze.
	ErrFrozen = errors.New("graph is frozen")
)

// Graph is a set of nodes and the ordering edges between them. All methods
// are safe for concurrent use.
type Graph struct {
	mutex  sync.RWMutex
	nodes  map[string]*node
	order  []string
	frozen bool
}

type node struct {
	id  string
	seq int
	// deps are the predecessors: nodes that must finish before this one.
	deps map[string]*node
	// dependents are the successors: nodes waiting on this one.
	dependents map[string]*node
}

// DependencyMap maps a task name to the names it depends on.
type DependencyMap map[string][]string
