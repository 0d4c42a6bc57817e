package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/executor"
	"github.com/specialistvlad/gridflow/internal/expand"
)

// Run loads the workflow, validates it and executes it. Definition problems
// are returned as errors before any task runs; task failures are reported
// in the result.
func (a *App) Run(ctx context.Context) (*executor.RunResult, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	def, err := a.loader.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	a.logger.Debug("Workflow loaded.", "templates", len(def.Tasks), "variables", def.VariableNames())

	coll, err := expand.ExpandAndValidate(def)
	if err != nil {
		return nil, fmt.Errorf("failed to validate workflow: %w", err)
	}
	if err := a.registry.ValidateDescriptors(coll); err != nil {
		return nil, fmt.Errorf("failed to validate workflow: %w", err)
	}
	a.logger.Info("Task types registered:", "count", len(a.registry.Tags()), "keys", a.registry.Tags())

	if coll.Len() == 0 {
		a.logger.Warn("No tasks found in workflow, execution not required.")
	}

	engine := executor.New(a.registry, a.logger,
		executor.WithWorkers(a.config.WorkerCount),
		executor.WithMetrics(a.metrics),
		executor.WithPlanWriter(a.outW),
	)
	result, err := engine.Run(ctx, coll, a.config.DryRun)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return result, nil
}
