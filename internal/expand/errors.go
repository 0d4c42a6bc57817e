package expand

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateTask marks a definition with two tasks of the same name.
	ErrDuplicateTask = errors.New("duplicated task names")
	// ErrMissingDependency marks a definition depending on an unknown task.
	ErrMissingDependency = errors.New("tasks do not exist")
	// ErrMissingAction marks a task without a `do` action.
	ErrMissingAction = errors.New("tasks without a do action")
)

// DefinitionError reports every static problem found in an expanded
// workflow at once. It matches the sentinels above via errors.Is for each
// category it contains.
type DefinitionError struct {
	Duplicates     []string
	Missing        []string
	WithoutActions []string
}

func (e *DefinitionError) Error() string {
	var parts []string
	if len(e.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", ErrDuplicateTask, strings.Join(e.Duplicates, ", ")))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", ErrMissingDependency, strings.Join(e.Missing, ", ")))
	}
	if len(e.WithoutActions) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", ErrMissingAction, strings.Join(e.WithoutActions, ", ")))
	}
	return "invalid workflow definition: " + strings.Join(parts, "; ")
}

// Unwrap exposes one sentinel per reported category.
func (e *DefinitionError) Unwrap() []error {
	var errs []error
	if len(e.Duplicates) > 0 {
		errs = append(errs, ErrDuplicateTask)
	}
	if len(e.Missing) > 0 {
		errs = append(errs, ErrMissingDependency)
	}
	if len(e.WithoutActions) > 0 {
		errs = append(errs, ErrMissingAction)
	}
	return errs
}

func (e *DefinitionError) empty() bool {
	return len(e.Duplicates) == 0 && len(e.Missing) == 0 && len(e.WithoutActions) == 0
}
