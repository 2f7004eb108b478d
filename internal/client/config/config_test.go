package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, "tickets", c.TicketsDir)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 1<<20, c.ChunkSize)
	assert.True(t, c.VerifyChecksums)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cli"}

	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		check       func(t *testing.T, c *Config)
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "10.0.0.1:9090", "-t", "/tmp/t", "-d", "/tmp/d", "-db", "x.db",
				"-w", "8", "-chunk", "4096", "-verify=false", "-timeout", "5s", "-l", "debug"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, Config{
					ServerEndpointAddr:  "10.0.0.1:9090",
					TicketsDir:          "/tmp/t",
					DownloadsDir:        "/tmp/d",
					DatabasePath:        "x.db",
					Workers:             8,
					ChunkSize:           4096,
					VerifyChecksums:     false,
					RequestTimeout:      5 * time.Second,
					OnlineCheckInterval: 10 * time.Second,
					LogLevel:            "debug",
				}, *c)
			},
		},
		{
			name: "unknown flags are ignored",
			args: []string{"-c", "cfg.json", "-x", "1", "-w", "2"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 2, c.Workers)
				assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
			},
		},
		{name: "bad worker count", args: []string{"-w", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.LoadDefaults()
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(c, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(c, tt.args) })
			tt.check(t, c)
		})
	}
}
