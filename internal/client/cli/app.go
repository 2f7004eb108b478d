package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/client/client"
	"github.com/dmitrijs2005/depotkeeper/internal/client/config"
	"github.com/dmitrijs2005/depotkeeper/internal/client/download"
	"github.com/dmitrijs2005/depotkeeper/internal/client/services"
	"github.com/dmitrijs2005/depotkeeper/internal/filex"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App is the composition root of the CLI. It owns the single gateway
// session and the process-wide manifest cache and key store.
type App struct {
	config    *config.Config
	logger    logging.Logger
	repos     *client.Repositories
	auth      services.AuthService
	builder   *services.TicketBuilder
	bulk      *services.BulkTicketBuilder
	loader    *services.TicketLoader
	store     *services.TicketStore
	downloads *services.DownloadService

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp opens the local database, dials the gateway and wires services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if _, err := filex.EnsureDirs("", c.TicketsDir, c.DownloadsDir); err != nil {
		return nil, err
	}

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	return newApp(c, apiClient, repos, logger, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, apiClient client.Client, repos *client.Repositories, logger logging.Logger, in io.Reader, out io.Writer) *App {
	cache, keys := manifest.NewCache(), manifest.NewKeyStore()

	builder := services.NewTicketBuilder(apiClient, apiClient, logger)
	loader := services.NewTicketLoader(cache, keys, logger)
	engine := download.NewEngine(apiClient, logger,
		download.WithChunkSize(c.ChunkSize),
		download.WithWorkers(c.Workers),
		download.WithVerify(c.VerifyChecksums),
	)

	return &App{
		config:    c,
		logger:    logger,
		repos:     repos,
		auth:      services.NewAuthService(apiClient, repos.DB, logger),
		builder:   builder,
		bulk:      services.NewBulkTicketBuilder(apiClient, apiClient, builder, logger),
		loader:    loader,
		store:     services.NewTicketStore(c.TicketsDir, repos.Tickets, repos.Metadata, logger),
		downloads: services.NewDownloadService(loader, engine, repos.Downloads, c.DownloadsDir, logger),
		reader:    bufio.NewReader(in),
		out:       out,
	}
}

// Run starts the connectivity watcher and blocks in the REPL until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close(ctx)

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to depotkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.reader, a.out)
}

func (a *App) Close(ctx context.Context) {
	if err := a.auth.Close(ctx); err != nil {
		a.logger.Warn(ctx, "closing gateway connection", "error", err)
	}
	if err := a.repos.Close(); err != nil {
		a.logger.Warn(ctx, "closing database", "error", err)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.auth.Ping(ctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher pings the gateway every interval until ctx ends.
// Offline mode still allows loading tickets from disk.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// prompt renders the session state shown before every command.
func (a *App) prompt() string {
	st := a.auth.Status()
	who := "-"
	switch {
	case st.LoggedOn && st.Anonymous:
		who = "anonymous"
	case st.LoggedOn:
		who = st.Username
	}
	if m := a.Mode(); m != "" {
		return fmt.Sprintf("dk (%s %s)> ", who, m)
	}
	return fmt.Sprintf("dk (%s)> ", who)
}
