package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/depotkeeper/internal/flagx"
	"github.com/dmitrijs2005/depotkeeper/internal/timex"
)

// JsonConfig is a DTO used only for reading JSON configuration files.
// Interval fields use timex.Duration, which accepts both "1s" strings and
// integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	RequestCodeSecret           string         `json:"request_code_secret"`
	RequestCodeWindow           timex.Duration `json:"request_code_window"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	PresignTTL                  timex.Duration `json:"presign_ttl"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Empty and zero values in the file are ignored. Panics on read or
// unmarshal errors.
func parseJson(config *Config, args []string) {
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

	setString(&config.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, jc.DatabaseDSN)
	setString(&config.SecretKey, jc.SecretKey)
	setString(&config.RequestCodeSecret, jc.RequestCodeSecret)
	setString(&config.S3RootUser, jc.S3RootUser)
	setString(&config.S3RootPassword, jc.S3RootPassword)
	setString(&config.S3Bucket, jc.S3Bucket)
	setString(&config.S3Region, jc.S3Region)
	setString(&config.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&config.LogLevel, jc.LogLevel)

	if jc.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RequestCodeWindow.Duration > 0 {
		config.RequestCodeWindow = jc.RequestCodeWindow.Duration
	}
	if jc.PresignTTL.Duration > 0 {
		config.PresignTTL = jc.PresignTTL.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
