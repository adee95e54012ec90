package remote

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

// Store is the remote note collection. Every call is scoped by owner.
type Store interface {
	// SelectAll returns the owner's notes, newest created first.
	SelectAll(ctx context.Context, owner string) ([]models.Note, error)
	// Insert fails with ErrAlreadyExists if the id is taken.
	Insert(ctx context.Context, n models.Note) error
	// UpdateByID is a no-op when no note matches id and owner.
	UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error
	// DeleteByID is a no-op when no note matches id and owner.
	DeleteByID(ctx context.Context, id, owner string) error
	Ping(ctx context.Context) error
}

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Client is a Store that holds a connection.
type Client interface {
	Store
	io.Closer
}

// New returns the Store for transport, connected to addr.
func New(transport, addr string) (Client, error) {
	switch strings.ToLower(transport) {
	case TransportHTTP, "":
		return NewHTTPStore(addr), nil
	case TransportGRPC:
		return NewGRPCStore(addr)
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}
