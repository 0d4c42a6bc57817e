// Package scheduler hands out the nodes of a dag.Graph in dependency order.
//
// A Sorter is a ready-set driver: after Prepare, GetReady returns the nodes
// whose prerequisites have all been marked Done, and IsActive reports
// whether anything is still outstanding. The Sorter is not safe for
// concurrent use; a single scheduling goroutine owns it for a whole pass.
package scheduler
