package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/fsutil"
	"github.com/specialistvlad/gridflow/internal/model"
)

// ErrNoWorkflowFiles is returned when the given paths hold no document any
// parser understands.
var ErrNoWorkflowFiles = errors.New("no workflow files found")

// FileLoader loads workflow documents from the file system.
type FileLoader struct {
	parsers map[string]Parser
	exts    []string
}

// NewLoader creates a FileLoader dispatching on the extensions of parsers.
// A later parser wins when two claim the same extension.
func NewLoader(parsers ...Parser) *FileLoader {
	l := &FileLoader{parsers: make(map[string]Parser)}
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			ext = strings.ToLower(ext)
			if _, exists := l.parsers[ext]; !exists {
				l.exts = append(l.exts, ext)
			}
			l.parsers[ext] = p
		}
	}
	return l
}

// Load parses every workflow file found under paths and merges them in
// order. A file given explicitly must have a known extension.
func (l *FileLoader) Load(ctx context.Context, paths ...string) (*model.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Workflow loader started.", "path_count", len(paths))

	files, err := fsutil.ExpandPaths(paths, l.exts...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v (supported: %s)", ErrNoWorkflowFiles, paths, strings.Join(l.exts, ", "))
	}
	logger.Debug("Discovered workflow files.", "count", len(files))

	def := model.NewDefinition()
	for _, file := range files {
		parser, ok := l.parsers[strings.ToLower(filepath.Ext(file))]
		if !ok {
			return nil, fmt.Errorf("unsupported workflow file %s (supported: %s)", file, strings.Join(l.exts, ", "))
		}
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow file %s: %w", file, err)
		}
		part, err := parser.Parse(ctx, file, src)
		if err != nil {
			return nil, err
		}
		if err := def.Merge(part); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", file, err)
		}
		logger.Debug("Workflow file loaded.", "file", file, "tasks", len(part.Tasks), "variables", len(part.Variables))
	}

	logger.Debug("Workflow loading complete.", "tasks", len(def.Tasks), "variables", len(def.Variables))
	return def, nil
}
