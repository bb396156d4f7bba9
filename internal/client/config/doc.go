// Package config loads runtime configuration for the keepsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the keepsync gRPC server
//	-i int      online status check interval (seconds)
//	-s int      periodic sync interval (seconds)
//	-d string   local database path
//	-g string   remote gateway: grpc or s3
//	-l string   log file ("" logs to stderr)
//	-w int      scheduler workers
//	-b string   s3 bucket
//	-e string   s3 endpoint (MinIO and friends)
//	-r string   s3 region
//	-u string   s3 access key
//	-p string   s3 secret key
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "sync_interval": "30s",
//	  "database_path": "keepsync.db",
//	  "gateway": "s3",
//	  "s3": {"bucket": "keepsync", "endpoint": "http://127.0.0.1:9000"}
//	}
package config
