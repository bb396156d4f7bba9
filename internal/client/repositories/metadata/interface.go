package metadata

import (
	"context"
)

// Repository is a small key/value table for client bookkeeping such as the
// per-collection pull high-water marks.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	List(ctx context.Context) (map[string][]byte, error)

	// GetInt64 returns 0 when key is absent.
	GetInt64(ctx context.Context, key string) (int64, error)
	// SetMaxInt64 stores v unless the stored value is already greater, and
	// returns the value that is stored afterwards.
	SetMaxInt64(ctx context.Context, key string, v int64) (int64, error)
}
