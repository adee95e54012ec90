package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
)

// S3RepositoryManager vends the bucket-backed note repository.
type S3RepositoryManager struct {
	notes notes.Repository
}

func (m *S3RepositoryManager) Notes() notes.Repository {
	return m.notes
}

func (m *S3RepositoryManager) Close() error {
	return nil
}

var newS3Client = func(ctx context.Context, o notes.S3Options) (notes.ObjectAPI, error) {
	return notes.NewS3Client(ctx, o)
}

func NewS3RepositoryManager(ctx context.Context, c *config.Config) (*S3RepositoryManager, error) {
	client, err := newS3Client(ctx, notes.S3Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, err
	}
	return &S3RepositoryManager{notes: notes.NewS3Repository(client, c.S3Bucket)}, nil
}
