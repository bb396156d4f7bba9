package config

import (
	"testing"

	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, 65536, c.MaxPayloadBytes)
	assert.Equal(t, 500, c.PullPageSize)
	assert.Empty(t, c.LogFile)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsWithoutArgs(t *testing.T) {
	c := LoadConfig(nil)
	require.NotNil(t, c)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.EndpointAddrGRPC = "" }},
		{"zero payload limit", func(c *Config) { c.MaxPayloadBytes = 0 }},
		{"negative page size", func(c *Config) { c.PullPageSize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), common.ErrValidation)
		})
	}
}
