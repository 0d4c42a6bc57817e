// Package executor runs an expanded workflow.
//
// A run has two passes over the same tasks. The forward pass executes every
// task's do action in dependency order on a bounded worker pool; a task whose
// prerequisite failed or was canceled is canceled without running. The
// cleanup pass then walks the graph in reverse and executes the cleanup
// actions, so that whatever was set up last is torn down first. Cleanup
// always runs, whether or not the forward pass succeeded.
//
// The scheduling loop is single-threaded: one goroutine owns the
// scheduler.Sorter and the pass's RunState, and workers report back only by
// resolving their Future. Before a task is submitted, the loop blocks on the
// futures of its prerequisites and records their outcomes, so a task never
// starts before all of its prerequisites have succeeded.
//
// A dry run prints the dependency plan instead and executes nothing.
package executor
