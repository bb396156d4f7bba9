package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/keepsync/internal/flagx"
	"github.com/dmitrijs2005/keepsync/internal/timex"
)

// JsonConfig is the on-disk form of Config. Fields left out of the file keep
// their previous values.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	DatabasePath        string         `json:"database_path"`
	Gateway             string         `json:"gateway"`
	LogFile             string         `json:"log_file"`
	Workers             int            `json:"workers"`
	S3                  struct {
		Bucket    string         `json:"bucket"`
		Prefix    string         `json:"prefix"`
		Endpoint  string         `json:"endpoint"`
		Region    string         `json:"region"`
		AccessKey string         `json:"access_key"`
		SecretKey string         `json:"secret_key"`
		ClockSkew timex.Duration `json:"clock_skew"`
	} `json:"s3"`
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays cfg with the file named by -c/-config, if any. Read and
// decode errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	overlay(&cfg.DatabasePath, jc.DatabasePath)
	overlay(&cfg.Gateway, jc.Gateway)
	overlay(&cfg.LogFile, jc.LogFile)
	overlay(&cfg.S3Bucket, jc.S3.Bucket)
	overlay(&cfg.S3Prefix, jc.S3.Prefix)
	overlay(&cfg.S3Endpoint, jc.S3.Endpoint)
	overlay(&cfg.S3Region, jc.S3.Region)
	overlay(&cfg.S3AccessKey, jc.S3.AccessKey)
	overlay(&cfg.S3SecretKey, jc.S3.SecretKey)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval.Duration > 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.S3.ClockSkew.Duration > 0 {
		cfg.S3ClockSkew = jc.S3.ClockSkew.Duration
	}
	if jc.Workers > 0 {
		cfg.Workers = jc.Workers
	}
}
