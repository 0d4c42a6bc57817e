// Package process implements the "process" task type, which runs an
// external executable and fails when it exits non-zero.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
)

// Tag is the task-type tag this module registers.
const Tag = "process"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the process task factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask(Tag, New)
}

// Error is returned when the process could not start or exited non-zero.
type Error struct {
	Argv     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error keeps the captured stderr for every process that started, including
// one killed by a signal, where the exit code is -1.
func (e *Error) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	var exitErr *exec.ExitError
	if !errors.As(e.Err, &exitErr) {
		return fmt.Sprintf("process %q failed to run: %v", e.Argv[0], e.Err)
	}
	if e.ExitCode >= 0 {
		return fmt.Sprintf("process %q exited with code %d: %s", e.Argv[0], e.ExitCode, stderr)
	}
	return fmt.Sprintf("process %q %s: %s", e.Argv[0], exitErr.String(), stderr)
}

func (e *Error) Unwrap() error { return e.Err }

// Task runs one external command.
type Task struct {
	name   string
	argv   []string
	env    []string
	dir    string
	logger *slog.Logger
}

// New builds a process task from its parameters:
//
//	path  executable to run (required)
//	args  string, mapping, or sequence of strings and mappings
//	env   mapping of extra environment variables
//	dir   working directory
func New(name string, params map[string]any, logger *slog.Logger) (task.Task, error) {
	path, _ := params["path"].(string)
	if path == "" {
		return nil, errors.New("process: 'path' parameter is required and must be a string")
	}
	args, err := BuildArgs(params["args"])
	if err != nil {
		return nil, fmt.Errorf("process: invalid 'args': %w", err)
	}
	env, err := buildEnv(params["env"])
	if err != nil {
		return nil, fmt.Errorf("process: invalid 'env': %w", err)
	}
	dir, _ := params["dir"].(string)

	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		name:   name,
		argv:   append([]string{path}, args...),
		env:    env,
		dir:    dir,
		logger: logger,
	}, nil
}

// Argv returns the full command line, executable first.
func (t *Task) Argv() []string {
	return append([]string(nil), t.argv...)
}

// Execute runs the command synchronously and waits for it to exit.
func (t *Task) Execute(ctx context.Context) error {
	t.logger.Info("Running command", "argv", t.argv)

	cmd := exec.CommandContext(ctx, t.argv[0], t.argv[1:]...)
	cmd.Dir = t.dir
	if len(t.env) > 0 {
		cmd.Env = append(os.Environ(), t.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	t.logger.Debug("Command exited", "duration", time.Since(start), "stderr", stderr.String())

	if err != nil {
		perr := &Error{Argv: t.argv, ExitCode: -1, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
		}
		return perr
	}

	t.logger.Info("Command output", "stdout", stdout.String())
	return nil
}

func buildEnv(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := scalar(m[k])
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", k, err)
		}
		env = append(env, k+"="+v)
	}
	return env, nil
}
