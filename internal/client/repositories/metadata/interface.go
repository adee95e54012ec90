// Package metadata is a small key/value table of client settings that must
// survive restarts, such as the owner id and the last reconciliation time.
package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyOwner          = "owner"
	KeyLastReconciled = "last_reconciled_at"
)

type Repository interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)

	// GetTime returns the zero time when the key is absent.
	GetTime(ctx context.Context, key string) (time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}
