// Package print provides the "print" task type, which writes its parameters
// to the task log. It is handy for marking milestones in a workflow.
package print

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
)

const Tag = "print"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the print task factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask(Tag, New)
}

type printTask struct {
	message string
	values  map[string]any
	logger  *slog.Logger
}

// New builds a print task. `message` is logged as the record message and
// every other parameter is attached as an attribute, sorted by key.
func New(name string, params map[string]any, logger *slog.Logger) (task.Task, error) {
	msg := "Printing input"
	values := make(map[string]any, len(params))
	for k, v := range params {
		if k == "message" {
			msg = fmt.Sprint(v)
			continue
		}
		values[k] = v
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &printTask{message: msg, values: values, logger: logger}, nil
}

func (p *printTask) Execute(ctx context.Context) error {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		attrs = append(attrs, k, p.values[k])
	}
	p.logger.InfoContext(ctx, p.message, attrs...)
	return nil
}
