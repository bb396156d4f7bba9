// Package client holds the Remote Gateway: the only code that knows how
// records reach the remote.
//
// Gateway is the contract the sync coordinator depends on. Two adapters are
// provided:
//
//   - GRPCClient talks to the keepsync server (cmd/server) over gRPC using the
//     protobuf messages from internal/proto and probes it with the standard
//     health service.
//   - S3Gateway keeps one JSON object per record in a bucket, which lets
//     several clients share state through plain object storage (MinIO, S3).
//
// # Error Handling
//
// Every failure is reported as one of common.ErrNetworkUnavailable,
// common.ErrTransientIO (worth retrying) or common.ErrRemoteRejected (the
// remote refused this record), wrapped with the underlying cause.
package client
