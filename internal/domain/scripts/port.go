package scripts

import (
	"context"
	"time"
)

// Repository port for persisting and querying generated scripts
type Repository interface {
	Save(ctx context.Context, s *Script) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*Script, error)
	LatestByScan(ctx context.Context, scanID string) (*Script, error)
}

// Cache keeps generated scripts keyed by content, so identical scans reuse them.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
