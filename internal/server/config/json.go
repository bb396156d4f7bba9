package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/keepsync/internal/flagx"
)

// JsonConfig is the intermediate form read from the -c/-config file.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn"`
	MaxPayloadBytes  int    `json:"max_payload_bytes"`
	PullPageSize     int    `json:"pull_page_size"`
	LogFile          string `json:"log_file"`
}

// parseJson overlays cfg with the non-zero values of the JSON file named by
// -c or -config. No file, no changes. Read and decode errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrGRPC != "" {
		cfg.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		cfg.DatabaseDSN = c.DatabaseDSN
	}
	if c.MaxPayloadBytes > 0 {
		cfg.MaxPayloadBytes = c.MaxPayloadBytes
	}
	if c.PullPageSize > 0 {
		cfg.PullPageSize = c.PullPageSize
	}
	if c.LogFile != "" {
		cfg.LogFile = c.LogFile
	}
}
