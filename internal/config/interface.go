package config

import (
	"context"

	"github.com/specialistvlad/gridflow/internal/model"
)

// Loader produces the workflow definition found at the given paths.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*model.Definition, error)
}

// Parser decodes one workflow document of a specific format.
type Parser interface {
	// Extensions lists the file suffixes handled by the parser, e.g. ".yaml".
	Extensions() []string
	// Parse decodes src, which was read from filename.
	Parse(ctx context.Context, filename string, src []byte) (*model.Definition, error)
}
