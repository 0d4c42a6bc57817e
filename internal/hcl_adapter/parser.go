// Package hcl_adapter reads workflow documents written in HCL:
//
//	variables = {
//	  agents = ["ubuntu", "centos"]
//	}
//
//	task "install-{agent}" {
//	  depends_on = ["allocate-{agent}"]
//	  foreach {
//	    variable = "agents"
//	    as       = "agent"
//	  }
//	  do {
//	    this = "process"
//	    with = { path = "/usr/bin/env", args = ["echo", "{agent}"] }
//	  }
//	}
package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/model"
)

// Parser implements config.Parser for HCL documents.
type Parser struct{}

// NewParser creates an HCL workflow parser.
func NewParser() *Parser {
	return &Parser{}
}

// Extensions implements config.Parser.
func (p *Parser) Extensions() []string {
	return []string{".hcl"}
}

// Parse implements config.Parser. Expressions are evaluated without an
// evaluation context: values must be literals, and `{name}` placeholders are
// left for the expansion stage.
func (p *Parser) Parse(ctx context.Context, filename string, src []byte) (*model.Definition, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("workflow: %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("workflow: %s: %w", filename, diags)
	}

	def := model.NewDefinition()
	vars, err := decodeVariables(ctx, root.Variables)
	if err != nil {
		return nil, fmt.Errorf("workflow: %s: %w", filename, err)
	}
	def.Variables = vars

	lines := taskLines(file.Body)
	for i, ht := range root.Tasks {
		where := model.Source{File: filename}
		if i < len(lines) {
			where.Line = lines[i]
		}
		t, err := translateTask(ctx, ht, where)
		if err != nil {
			return nil, fmt.Errorf("workflow: %s: %w", where, err)
		}
		def.Tasks = append(def.Tasks, t)
	}

	logger.Debug("HCL workflow decoded.", "file", filename, "tasks", len(def.Tasks), "variables", len(def.Variables))
	return def, nil
}

// taskLines returns the starting line of every task block in source order,
// which is the order gohcl decodes them in.
func taskLines(body hcl.Body) []int {
	sb, ok := body.(*hclsyntax.Body)
	if !ok {
		return nil
	}
	var lines []int
	for _, block := range sb.Blocks {
		if block.Type == "task" {
			lines = append(lines, block.DefRange().Start.Line)
		}
	}
	return lines
}

func decodeVariables(ctx context.Context, expr hcl.Expression) (map[string][]any, error) {
	out := make(map[string][]any)
	if !isExprDefined(ctx, expr, "variables") {
		return out, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return out, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("'variables' must be an object, got %s", val.Type().FriendlyName())
	}

	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()
		ty := v.Type()
		if !ty.IsTupleType() && !ty.IsListType() && !ty.IsSetType() {
			return nil, fmt.Errorf("variable '%s' must be a list, got %s", name, ty.FriendlyName())
		}
		raw, err := ctyValueToInterface(v)
		if err != nil {
			return nil, fmt.Errorf("variable '%s': %w", name, err)
		}
		values, _ := raw.([]any)
		out[name] = values
	}
	return out, nil
}

func translateTask(ctx context.Context, ht *Task, src model.Source) (*model.Task, error) {
	logger := ctxlog.FromContext(ctx).With("task", ht.Name)
	logger.Debug("Translating HCL task block.")

	if ht.Name == "" {
		return nil, fmt.Errorf("task block has an empty name")
	}
	t := &model.Task{
		Name:      ht.Name,
		DependsOn: ht.DependsOn,
		Source:    src,
	}
	for _, loop := range ht.ForEach {
		t.ForEach = append(t.ForEach, model.Loop{Variable: loop.Variable, As: loop.As})
	}

	var err error
	if t.Do, err = translateAction(ctx, ht.Name, "do", ht.Do); err != nil {
		return nil, err
	}
	if t.Cleanup, err = translateAction(ctx, ht.Name, "cleanup", ht.Cleanup); err != nil {
		return nil, err
	}
	return t, nil
}

func translateAction(ctx context.Context, taskName, block string, ha *Action) (*model.Action, error) {
	if ha == nil {
		return nil, nil
	}
	if ha.This == "" {
		return nil, fmt.Errorf("task '%s': '%s' is missing its 'this' task type", taskName, block)
	}
	action := &model.Action{This: ha.This}
	if !isExprDefined(ctx, ha.With, "with") {
		return action, nil
	}

	val, diags := ha.With.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("task '%s': '%s.with': %w", taskName, block, diags)
	}
	raw, err := ctyValueToInterface(val)
	if err != nil {
		return nil, fmt.Errorf("task '%s': '%s.with': %w", taskName, block, err)
	}
	if raw == nil {
		return action, nil
	}
	with, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("task '%s': '%s.with' must be an object", taskName, block)
	}
	action.With = with
	return action, nil
}
