// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Task template, the atomic unit a user writes in a
// workflow document.
//
// A Task is not yet something that can run. Its strings may still contain
// placeholders, and a single template can stand for many concrete tasks
// once its foreach loops are expanded. The expand package turns templates
// into task.Descriptor values.
package model

import "fmt"

// Task is one entry of the `tasks` list.
type Task struct {
	// Name is the (possibly templated) task name.
	Name string
	// DependsOn lists the (possibly templated) names of prerequisite tasks.
	DependsOn []string
	// Do is the action executed in the forward pass. Required.
	Do *Action
	// Cleanup is the optional action executed in the reverse pass.
	Cleanup *Action
	// ForEach lists the loops whose cross product this template expands over.
	ForEach []Loop
	// Source records where the template was declared.
	Source Source
}

// Action names a registered task type and the parameters for it.
type Action struct {
	// This is the task-type tag, e.g. "process".
	This string
	// With holds the constructor parameters. Values are strings, numbers,
	// booleans, []any and map[string]any as produced by the decoders.
	With map[string]any
}

// Loop binds each element of the sequence Variable to the placeholder As.
type Loop struct {
	Variable string
	As       string
}

// Source links a template back to the file and line it was declared at.
type Source struct {
	File string
	Line int
}

// String renders the source as file:line, or an empty string if unknown.
func (s Source) String() string {
	if s.File == "" {
		return ""
	}
	if s.Line <= 0 {
		return s.File
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}
