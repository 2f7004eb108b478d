// Package config loads runtime configuration for the depotkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string        address:port of the content gateway
//	-t string        tickets directory
//	-d string        downloads root; each app gets a subdirectory
//	-db string       local sqlite database
//	-w int           parallel file transfers
//	-chunk int       read chunk size in bytes
//	-verify bool     verify SHA-256 of completed files
//	-timeout dur     per-request timeout
//	-i dur           gateway reachability check interval
//	-l string        log level
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "tickets_dir": "tickets",
//	  "downloads_dir": "depots",
//	  "database_path": "depotkeeper.db",
//	  "workers": 4,
//	  "chunk_size": 1048576,
//	  "verify_checksums": true,
//	  "request_timeout": "30s",
//	  "online_check_interval": "10s",
//	  "log_level": "info"
//	}
package config
