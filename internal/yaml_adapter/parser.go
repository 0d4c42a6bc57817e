// Package yaml_adapter reads workflow documents written in YAML:
//
//	variables:
//	  agents: [ubuntu, centos]
//	tasks:
//	  - task: "install-{agent}"
//	    depends-on: ["allocate-{agent}"]
//	    foreach: [{variable: agents, as: agent}]
//	    do: {this: process, with: {path: /usr/bin/env, args: [echo, "{agent}"]}}
//	    cleanup: {this: dummy}
package yaml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/model"
)

// Parser implements config.Parser for YAML documents.
type Parser struct{}

// NewParser creates a YAML workflow parser.
func NewParser() *Parser {
	return &Parser{}
}

// Extensions implements config.Parser.
func (p *Parser) Extensions() []string {
	return []string{".yaml", ".yml"}
}

type document struct {
	Tasks     []wireTask       `yaml:"tasks"`
	Variables map[string][]any `yaml:"variables"`
}

type wireTask struct {
	Task      string      `yaml:"task"`
	DependsOn []string    `yaml:"depends-on"`
	Do        *wireAction `yaml:"do"`
	Cleanup   *wireAction `yaml:"cleanup"`
	ForEach   []wireLoop  `yaml:"foreach"`
}

type wireLoop struct {
	Variable string `yaml:"variable"`
	As       string `yaml:"as"`
}

type wireAction struct {
	This string         `yaml:"this"`
	With map[string]any `yaml:"with"`
}

// positions is decoded alongside the document to recover task line numbers.
type positions struct {
	Tasks []yaml.Node `yaml:"tasks"`
}

// Parse implements config.Parser. Unknown keys are rejected so that typos
// such as `depends_on` do not silently drop dependencies.
func (p *Parser) Parse(ctx context.Context, filename string, src []byte) (*model.Definition, error) {
	logger := ctxlog.FromContext(ctx)

	if len(bytes.TrimSpace(src)) == 0 {
		return nil, fmt.Errorf("workflow: %s: document is empty", filename)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "did not find expected") {
			return nil, fmt.Errorf("workflow: %s: decode: %w (quote values with {placeholders} inside [...] and {...})", filename, err)
		}
		return nil, fmt.Errorf("workflow: %s: decode: %w", filename, err)
	}

	var pos positions
	if err := yaml.Unmarshal(src, &pos); err != nil {
		return nil, fmt.Errorf("workflow: %s: decode: %w", filename, err)
	}

	def := model.NewDefinition()
	for name, values := range doc.Variables {
		def.Variables[name] = values
	}

	for i, wt := range doc.Tasks {
		where := model.Source{File: filename}
		if i < len(pos.Tasks) {
			where.Line = pos.Tasks[i].Line
		}
		t, err := translateTask(wt, where)
		if err != nil {
			return nil, fmt.Errorf("workflow: %s: %w", where, err)
		}
		def.Tasks = append(def.Tasks, t)
	}

	logger.Debug("YAML workflow decoded.", "file", filename, "tasks", len(def.Tasks), "variables", len(def.Variables))
	return def, nil
}

func translateTask(wt wireTask, src model.Source) (*model.Task, error) {
	if wt.Task == "" {
		return nil, errors.New("task entry is missing its 'task' name")
	}
	t := &model.Task{
		Name:      wt.Task,
		DependsOn: wt.DependsOn,
		Source:    src,
	}
	for i, loop := range wt.ForEach {
		if loop.Variable == "" || loop.As == "" {
			return nil, fmt.Errorf("task '%s': foreach[%d] needs both 'variable' and 'as'", wt.Task, i)
		}
		t.ForEach = append(t.ForEach, model.Loop{Variable: loop.Variable, As: loop.As})
	}
	var err error
	if t.Do, err = translateAction(wt.Task, "do", wt.Do); err != nil {
		return nil, err
	}
	if t.Cleanup, err = translateAction(wt.Task, "cleanup", wt.Cleanup); err != nil {
		return nil, err
	}
	return t, nil
}

func translateAction(taskName, field string, wa *wireAction) (*model.Action, error) {
	if wa == nil {
		return nil, nil
	}
	if wa.This == "" {
		return nil, fmt.Errorf("task '%s': '%s' is missing its 'this' task type", taskName, field)
	}
	return &model.Action{This: wa.This, With: wa.With}, nil
}
