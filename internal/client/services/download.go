package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/client/download"
	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/downloads"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
	"github.com/google/uuid"
)

// DownloadService runs the download engine for a loaded ticket and records
// each run in the local history.
type DownloadService struct {
	loader  *TicketLoader
	engine  *download.Engine
	history downloads.Repository
	root    string
	logger  logging.Logger
	now     func() time.Time
}

func NewDownloadService(loader *TicketLoader, engine *download.Engine, history downloads.Repository, root string, logger logging.Logger) *DownloadService {
	return &DownloadService{
		loader:  loader,
		engine:  engine,
		history: history,
		root:    root,
		logger:  logger,
		now:     time.Now,
	}
}

// Destination is the directory content of appID is written to.
func (s *DownloadService) Destination(appID uint32) string {
	return filepath.Join(s.root, strconv.FormatUint(uint64(appID), 10))
}

// Download fetches every file of the manifest identified by id. The ticket
// must have been loaded before.
func (s *DownloadService) Download(ctx context.Context, id ticket.Identity) (*download.Report, error) {
	m, key, err := s.loader.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}

	run := &downloads.Run{
		ID:          uuid.NewString(),
		Identity:    id,
		Destination: s.Destination(id.AppID),
		StartedAt:   s.now(),
	}
	if err := s.history.Start(ctx, run); err != nil {
		return nil, err
	}

	report, err := s.engine.Download(ctx, m, key, run.Destination)
	if err != nil {
		// An aborted run is closed with zero counters.
		s.finish(ctx, run.ID, downloads.Counters{})
		return nil, fmt.Errorf("download %s: %w", id, err)
	}

	s.finish(ctx, run.ID, counters(report))
	return report, nil
}

func (s *DownloadService) finish(ctx context.Context, runID string, c downloads.Counters) {
	if err := s.history.Finish(ctx, runID, s.now(), c); err != nil {
		s.logger.Error(ctx, "failed to record download run", "run_id", runID, "error", err)
	}
}

func (s *DownloadService) History(ctx context.Context, limit int) ([]downloads.Run, error) {
	return s.history.List(ctx, limit)
}

func counters(r *download.Report) downloads.Counters {
	return downloads.Counters{
		Total:      r.Total,
		Skipped:    r.Skipped,
		Resumed:    r.Resumed,
		Corrupted:  r.Corrupted,
		Fetched:    r.Fetched,
		Empty:      r.Empty,
		Incomplete: r.Incomplete,
		Failed:     len(r.Failed),
	}
}
