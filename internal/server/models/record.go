// Package models holds the server-side record representation.
package models

// Record is the server copy of one client record.
//
// A record is identified by (Collection, ClientID); ServerID is assigned on
// the first push and never changes. ServerTime is in Unix microseconds and
// strictly increases across all pushes accepted by one server.
type Record struct {
	ServerID   string
	Collection string
	ClientID   string
	Payload    []byte
	Deleted    bool
	ServerTime int64
}
