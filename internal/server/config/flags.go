package config

import (
	"flag"

	"github.com/dmitrijs2005/keepsync/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN, empty for in-memory storage
//	-m int      maximum accepted payload size, bytes
//	-n int      maximum changes returned by one pull
//	-l string   log file, empty for stderr
//
// Unknown flags are ignored; invalid values panic.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.IntVar(&cfg.MaxPayloadBytes, "m", cfg.MaxPayloadBytes, "max payload size (in bytes)")
	fs.IntVar(&cfg.PullPageSize, "n", cfg.PullPageSize, "pull page size")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")

	if err := flagx.ParseKnown(fs, args); err != nil {
		panic(err)
	}
}
