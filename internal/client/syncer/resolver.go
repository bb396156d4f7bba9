package syncer

import "github.com/dmitrijs2005/keepsync/internal/client/models"

type Decision int

const (
	TakeRemote Decision = iota
	KeepLocal
)

// Resolver decides what happens when a pulled change meets the local row.
// local is nil when the record does not exist locally.
type Resolver interface {
	Resolve(local *models.Record, remote models.RemoteChange) Decision
}

type ResolverFunc func(local *models.Record, remote models.RemoteChange) Decision

func (f ResolverFunc) Resolve(local *models.Record, remote models.RemoteChange) Decision {
	return f(local, remote)
}

// RemoteWins always applies the remote change.
var RemoteWins Resolver = ResolverFunc(func(*models.Record, models.RemoteChange) Decision {
	return TakeRemote
})

// KeepLocalChanges keeps a dirty local row; it is pushed on the next pass.
var KeepLocalChanges Resolver = ResolverFunc(func(local *models.Record, _ models.RemoteChange) Decision {
	if local != nil && local.Dirty {
		return KeepLocal
	}
	return TakeRemote
})
