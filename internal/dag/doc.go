// Package dag holds the directed acyclic graph that orders a workflow's
// tasks. Nodes are task names; an edge from A to B means B may only start
// once A is finished. The graph itself knows nothing about execution; the
// scheduler package drives a run over it.
package dag
