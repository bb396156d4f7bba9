// Package config handles configuration for the reference record server:
// defaults, an optional JSON file, then command-line flags.
package config

import (
	"fmt"

	"github.com/dmitrijs2005/keepsync/internal/common"
)

// Config holds runtime settings for the keepsync server.
//
// An empty DatabaseDSN selects the in-memory repository.
type Config struct {
	EndpointAddrGRPC string
	DatabaseDSN      string
	MaxPayloadBytes  int
	PullPageSize     int
	LogFile          string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.MaxPayloadBytes = 64 << 10
	c.PullPageSize = 500
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.EndpointAddrGRPC == "" {
		return fmt.Errorf("%w: grpc address is required", common.ErrValidation)
	}
	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("%w: max payload bytes must be positive", common.ErrValidation)
	}
	if c.PullPageSize <= 0 {
		return fmt.Errorf("%w: pull page size must be positive", common.ErrValidation)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
