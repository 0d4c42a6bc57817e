package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/gridflow/internal/task"
)

// ErrUnknownTaskType is returned for a tag with no registered factory.
var ErrUnknownTaskType = errors.New("unknown task type")

// Module is the interface that all task modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the task factories of a single application instance.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]task.Factory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[string]task.Factory)}
}

// NewWithModules creates a Registry and lets every module register into it.
func NewWithModules(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterTask binds tag to factory. Registering a tag twice is a
// programming error and panics.
func (r *Registry) RegisterTask(tag string, factory task.Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tag == "" || factory == nil {
		panic("registry: empty tag or nil factory")
	}
	if _, exists := r.factories[tag]; exists {
		panic(fmt.Sprintf("registry: task type %q registered twice", tag))
	}
	r.factories[tag] = factory
}

// New builds a task of type tag.
func (r *Registry) New(tag, name string, params map[string]any, logger *slog.Logger) (task.Task, error) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownTaskType, tag)
	}
	return factory(name, params, logger)
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags returns the registered tags, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ValidateDescriptors checks that every action in coll names a registered
// task type. All offending tasks are reported together.
func (r *Registry) ValidateDescriptors(coll *task.Collection) error {
	var problems []string
	for _, d := range coll.All() {
		for _, a := range []struct {
			phase  string
			action *task.Action
		}{{"do", d.Do}, {"cleanup", d.Cleanup}} {
			if a.action == nil || r.Has(a.action.Type) {
				continue
			}
			problems = append(problems, fmt.Sprintf("%s '%s' of task '%s'", a.phase, a.action.Type, d.Name))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s (known types: %s)", ErrUnknownTaskType,
		strings.Join(problems, ", "), strings.Join(r.Tags(), ", "))
}
