package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/depotkeeper/internal/flagx"
	"github.com/dmitrijs2005/depotkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from a zero value.
type JsonConfig struct {
	ServerEndpointAddr  string          `json:"server_endpoint_addr"`
	TicketsDir          string          `json:"tickets_dir"`
	DownloadsDir        string          `json:"downloads_dir"`
	DatabasePath        string          `json:"database_path"`
	Workers             int             `json:"workers"`
	ChunkSize           int             `json:"chunk_size"`
	VerifyChecksums     *bool           `json:"verify_checksums"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	LogLevel            string          `json:"log_level"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Fields missing from the file keep their current values. Panics
// on read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
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

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.TicketsDir, jc.TicketsDir)
	setString(&cfg.DownloadsDir, jc.DownloadsDir)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.Workers > 0 {
		cfg.Workers = jc.Workers
	}
	if jc.ChunkSize > 0 {
		cfg.ChunkSize = jc.ChunkSize
	}
	if jc.VerifyChecksums != nil {
		cfg.VerifyChecksums = *jc.VerifyChecksums
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
