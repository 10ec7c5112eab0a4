package scans

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, s *Scan) error
	Get(ctx context.Context, id ScanID) (*Scan, error)
	Paginate(ctx context.Context, f Filter) (PaginatedResult, error)
	Delete(ctx context.Context, id ScanID) error
	DeleteOwned(ctx context.Context, userID string, id ScanID) error
	DeleteAll(ctx context.Context) (int64, error)
	Summary(ctx context.Context, since time.Time) (Summary, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
