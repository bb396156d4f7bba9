package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/flagx"
)

// parseFlags overlays cfg with the short flags it knows about; anything else
// in args is left to other layers. Invalid values panic.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.Gateway, "g", cfg.Gateway, "remote gateway (grpc|s3)")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "scheduler workers")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "s3 bucket")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "s3 endpoint")
	fs.StringVar(&cfg.S3Region, "r", cfg.S3Region, "s3 region")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "s3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "s3 secret key")

	if err := flagx.ParseKnown(fs, args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
