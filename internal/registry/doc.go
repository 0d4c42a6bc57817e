// Package registry maps the task-type tags used in workflow documents (for
// example "process") to the Go constructors that build them.
//
// Modules register their factories once at startup. Before a run, the
// registry checks that every do and cleanup action of the workflow names a
// registered type, so a typo fails the run before any task executes instead
// of surfacing halfway through.
package registry
