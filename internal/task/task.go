// Package task defines the executable unit of a workflow: the immutable
// Descriptor produced by expansion, and the Task interface implemented by
// every registered task type.
package task

import (
	"context"
	"log/slog"
)

// Task is a unit of work. Execute runs to completion and reports failure by
// returning an error; it is never retried.
type Task interface {
	Execute(ctx context.Context) error
}

// Factory builds a Task of one registered type from the parameters of a
// do or cleanup action. The logger is already scoped to the task.
type Factory func(name string, params map[string]any, logger *slog.Logger) (Task, error)

// Func adapts a plain function to the Task interface.
type Func func(ctx context.Context) error

// Execute calls f(ctx).
func (f Func) Execute(ctx context.Context) error {
	return f(ctx)
}

// Action is a resolved do or cleanup step: a task-type tag plus parameters
// with all placeholders substituted.
type Action struct {
	Type   string
	Params map[string]any
}

// Descriptor is one concrete task instance. It does not change after
// expansion.
type Descriptor struct {
	Name         string
	Dependencies []string
	Do           *Action
	Cleanup      *Action
}

// HasCleanup reports whether the descriptor declares a cleanup action.
func (d *Descriptor) HasCleanup() bool {
	return d.Cleanup != nil
}
