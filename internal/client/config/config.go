package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the depotkeeper CLI.
//
// Units: RequestTimeout and OnlineCheckInterval are time.Duration values,
// ChunkSize is in bytes.
type Config struct {
	ServerEndpointAddr  string
	TicketsDir          string
	DownloadsDir        string
	DatabasePath        string
	Workers             int
	ChunkSize           int
	VerifyChecksums     bool
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.TicketsDir = "tickets"
	c.DownloadsDir = "depots"
	c.DatabasePath = "depotkeeper.db"
	c.Workers = 4
	c.ChunkSize = 1 << 20
	c.VerifyChecksums = true
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
