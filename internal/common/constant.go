package common

import "regexp"

// RecordServiceName is the fully qualified gRPC service name of the remote.
const RecordServiceName = "keepsync.v1.RecordService"

// MaxCollectionNameLen bounds collection identifiers on both sides.
const MaxCollectionNameLen = 63

var collectionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidCollectionName reports whether name can be used as a collection.
func ValidCollectionName(name string) bool {
	return collectionNameRe.MatchString(name)
}
