// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the format-agnostic Go representation of a workflow
// document. Both the YAML and the HCL adapters translate their files into
// these structs, and everything downstream (expansion, validation, graph
// construction) only ever sees this package.
//
// # Core Concepts
//
//   - Definition: The root container for one workflow. It aggregates the task
//     templates and the named variable sequences from one or more files.
//
//   - Task: A task template. Its name and parameters may contain `{name}`
//     placeholders that are filled in during expansion. A template with
//     `foreach` loops yields one concrete task per combination of loop values.
//
//   - Action: The `do` or `cleanup` part of a task: a task-type tag plus the
//     parameters handed to that type's constructor.
//
//   - Source: Metadata linking every template back to the file it came from,
//     used to produce clear load and validation errors.
//
// The model is deliberately dumb: it holds what the user wrote, with no
// placeholder substitution and no cross-task checks.
package model
