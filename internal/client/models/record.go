// Package models defines the client-side records kept in the local store
// and exchanged with the remote gateway.
package models

import (
	"encoding/json"
	"time"
)

// Record is one row of a collection in the local store.
type Record struct {
	// ID is assigned locally (UUIDv7) and never changes, including across sync.
	ID string

	Collection string

	// RemoteID is the identity the remote assigned on first push; empty before that.
	RemoteID string

	Payload json.RawMessage

	// Deleted marks a tombstone waiting to be pushed.
	Deleted bool

	// Dirty is true while the record may differ from the remote copy.
	Dirty bool

	// Revision is bumped by every committed write to the row.
	Revision int64

	// LastSyncTime is the server time of the last successful sync; zero means never.
	LastSyncTime time.Time

	UpdatedAt time.Time
}

// NeverPushed reports whether the remote has never seen this record.
func (r *Record) NeverPushed() bool {
	return r.RemoteID == "" && r.LastSyncTime.IsZero()
}

// RemoteChange is a record state as held by the remote.
type RemoteChange struct {
	ID         string
	Collection string
	RemoteID   string
	Payload    json.RawMessage
	Deleted    bool
	ServerTime time.Time
}

// PushResult is the remote's acknowledgement of an accepted push.
type PushResult struct {
	ServerID   string
	ServerTime time.Time
}
