package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
)

// Gateway is the remote side of the sync protocol. Each call concerns a
// single record (Push) or a single collection (Pull).
type Gateway interface {
	Ping(ctx context.Context) error
	// Push sends the record state, tombstones included.
	Push(ctx context.Context, rec *models.Record) (models.PushResult, error)
	// Pull returns every change of collection with a server time after since,
	// in ascending server time order.
	Pull(ctx context.Context, collection string, since time.Time) ([]models.RemoteChange, error)
	Close() error
}
