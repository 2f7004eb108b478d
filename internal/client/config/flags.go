package config

import (
	"flag"

	"github.com/dmitrijs2005/depotkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-d", "-db", "-w", "-chunk", "-verify", "-timeout", "-i", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Only the flags listed in knownFlags are parsed; everything else on the
// command line is left to other loaders (see flagx.FilterArgs).
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the content gateway")
	fs.StringVar(&cfg.TicketsDir, "t", cfg.TicketsDir, "directory for ticket files")
	fs.StringVar(&cfg.DownloadsDir, "d", cfg.DownloadsDir, "root directory for downloaded depots")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "path of the local sqlite database")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "files transferred in parallel")
	fs.IntVar(&cfg.ChunkSize, "chunk", cfg.ChunkSize, "read chunk size in bytes")
	fs.BoolVar(&cfg.VerifyChecksums, "verify", cfg.VerifyChecksums, "verify SHA-256 of completed files")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "timeout of a single gateway request")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "gateway reachability check interval")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}
}
