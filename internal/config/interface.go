package config

import (
	"context"
	"io"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every database file reachable from the given paths
	// (including the files they include) and translates them into the
	// format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Writer is the interface for a format-specific configuration writer. It is
// used to persist objects created during module generation.
type Writer interface {
	Write(ctx context.Context, w io.Writer, objects []*ObjectDefinition) error
}
