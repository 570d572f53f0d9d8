package ports

import (
	"context"

	"shiftsync/internal/domain"
)

// Backend is raw per-collection document storage: each collection is one
// JSON-serialized list. The durable implementation is SQLite; tests inject
// an in-memory one. Load returns nil (no error) for a collection that has
// never been written, which lets the store seed defaults lazily.
type Backend interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, doc []byte) error
}

// RemoteClient talks to the spreadsheet-backed endpoint: a GET retrieving
// full state and a fire-and-forget POST replacing it. The endpoint applies
// no merge logic of its own, so a POST race between two devices is resolved
// by whichever lands last.
type RemoteClient interface {
	FetchState(ctx context.Context, endpoint string) (*domain.State, error)
	PushState(ctx context.Context, endpoint string, state *domain.State) error
}
