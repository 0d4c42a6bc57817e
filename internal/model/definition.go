// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Definition root and the merge rules used when a
// workflow is split across several files.
package model

import (
	"fmt"
	"sort"
)

// Definition is a whole workflow: the ordered task templates and the named
// sequences that foreach loops iterate over.
type Definition struct {
	Tasks     []*Task
	Variables map[string][]any
}

// NewDefinition returns an empty, ready-to-fill Definition.
func NewDefinition() *Definition {
	return &Definition{Variables: make(map[string][]any)}
}

// Merge appends other's templates after d's and copies its variables in.
// A variable declared in both documents is an error since there is no
// sensible precedence between two files of the same workflow.
func (d *Definition) Merge(other *Definition) error {
	if other == nil {
		return nil
	}
	if d.Variables == nil {
		d.Variables = make(map[string][]any)
	}

	var clashes []string
	for name := range other.Variables {
		if _, exists := d.Variables[name]; exists {
			clashes = append(clashes, name)
		}
	}
	if len(clashes) > 0 {
		sort.Strings(clashes)
		return fmt.Errorf("variables declared more than once: %v", clashes)
	}

	for name, values := range other.Variables {
		d.Variables[name] = values
	}
	d.Tasks = append(d.Tasks, other.Tasks...)
	return nil
}

// VariableNames returns the declared variable names in sorted order.
func (d *Definition) VariableNames() []string {
	names := make([]string, 0, len(d.Variables))
	for name := range d.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
