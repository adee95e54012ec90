package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
)

// RepositoryManager owns the storage connection behind the note repository.
type RepositoryManager interface {
	Notes() notes.Repository
	Close() error
}

// Open builds the manager for the configured backend.
func Open(ctx context.Context, c *config.Config) (RepositoryManager, error) {
	switch c.Backend {
	case config.BackendPostgres, "":
		return NewPostgresRepositoryManager(ctx, c.DatabaseDriver, c.DatabaseDSN)
	case config.BackendS3:
		return NewS3RepositoryManager(ctx, c)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}
