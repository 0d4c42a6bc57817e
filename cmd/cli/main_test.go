package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gridflow/internal/cli"
)

func writeWorkflow(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to set up test file")
	return path
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeWorkflow(t, "main.hcl", `
		task "A" {
			do {
		// Missing closing brace here
	`)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{path})

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load workflow")
	assert.Contains(t, err.Error(), "main.hcl")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		path := writeWorkflow(t, "ok.yaml", "tasks:\n  - task: a\n    do: {this: dummy}\n    cleanup: {this: print, with: {message: bye}}\n")
		out := &bytes.Buffer{}

		err := run(context.Background(), out, []string{"-log-format", "json", path})

		require.NoError(t, err)
		assert.Contains(t, out.String(), `"msg":"bye"`)
	})

	t.Run("task failure", func(t *testing.T) {
		path := writeWorkflow(t, "bad.yaml", "tasks:\n  - task: a\n    do: {this: dummy, with: {fail: true}}\n")

		err := run(context.Background(), &bytes.Buffer{}, []string{path})

		var exitErr *cli.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.Code)
		assert.Contains(t, exitErr.Message, "a")
	})

	t.Run("dry run", func(t *testing.T) {
		path := writeWorkflow(t, "plan.yaml", "tasks:\n  - task: a\n    do: {this: dummy, with: {fail: true}}\n")
		out := &bytes.Buffer{}

		err := run(context.Background(), out, []string{"-dry-run", path})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "a\n")
	})
}
