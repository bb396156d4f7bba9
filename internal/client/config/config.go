package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/common"
)

const (
	GatewayGRPC = "grpc"
	GatewayS3   = "s3"
)

// Config holds runtime settings for the keepsync client.
//
// OnlineCheckInterval and SyncInterval are durations; flags take them in
// whole seconds.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	DatabasePath        string
	Gateway             string
	LogFile             string
	Workers             int

	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	// S3ClockSkew is how far below the high-water mark S3 pulls look, to
	// catch changes stamped by clients whose clocks run behind.
	S3ClockSkew time.Duration
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.DatabasePath = "keepsync.db"
	c.Gateway = GatewayGRPC
	c.LogFile = "keepsync.log"
	c.Workers = 2
	c.S3Prefix = "keepsync"
	c.S3Region = "us-east-1"
	c.S3ClockSkew = 5 * time.Minute
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.Gateway {
	case GatewayGRPC:
		if c.ServerEndpointAddr == "" {
			return fmt.Errorf("%w: server address is required", common.ErrValidation)
		}
	case GatewayS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3 bucket is required", common.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown gateway %q", common.ErrValidation, c.Gateway)
	}
	if c.OnlineCheckInterval <= 0 || c.SyncInterval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", common.ErrValidation)
	}
	if c.S3ClockSkew < 0 {
		return fmt.Errorf("%w: s3 clock skew must not be negative", common.ErrValidation)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", common.ErrValidation)
	}
	return nil
}

// LoadConfig constructs a Config from defaults, then the JSON file (if any),
// then command-line flags. Later sources take precedence.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
