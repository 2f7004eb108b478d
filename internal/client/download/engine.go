// Package download implements the resumable depot download loop.
//
// The length of a file on disk is the only resume checkpoint. For every
// regular manifest entry the engine compares that length with the size the
// manifest declares:
//
//	local == target  skip, nothing is fetched
//	local >  target  corrupt, the file is removed and fetched from offset 0
//	local <  target  resume, content is appended from offset local
//
// Per-file failures never abort a run; they are collected in the Report.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/filex"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize = 1 << 20
	DefaultWorkers   = 4
)

// Opener returns a reader positioned at offset for the content of entry.
// client.Directory satisfies it.
type Opener interface {
	OpenFile(ctx context.Context, depotID uint32, entry manifest.FileEntry, offset int64) (io.ReadCloser, error)
}

// Engine streams manifest content to disk.
type Engine struct {
	opener    Opener
	logger    logging.Logger
	chunkSize int
	workers   int
	verify    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize bounds a single read; values <= 0 keep the default.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithWorkers sets how many files are transferred at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithVerify enables SHA-256 checks of files completed during a run.
func WithVerify(v bool) Option {
	return func(e *Engine) {
		e.verify = v
	}
}

func NewEngine(opener Opener, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		opener:    opener,
		logger:    logger,
		chunkSize: DefaultChunkSize,
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Download writes every entry of m below root. m is decrypted with key
// first when its file names are still sealed. The returned error is set
// only when the run could not start at all.
func (e *Engine) Download(ctx context.Context, m *manifest.Manifest, key []byte, root string) (*Report, error) {
	if m.Encrypted() {
		if err := m.DecryptFileNames(key); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", common.ErrIO, root, err)
	}

	id := m.Identity()
	log := e.logger.With("app_id", id.AppID, "depot_id", id.DepotID)
	files := m.Files()
	results := make([]fileResult, len(files))

	// Directories first so that workers never race on parent creation.
	for i, f := range files {
		if f.IsDirectory {
			results[i] = e.makeDir(ctx, log, root, f)
		}
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, f := range files {
		if f.IsDirectory {
			continue
		}
		g.Go(func() error {
			results[i] = e.downloadFile(ctx, log, id.DepotID, root, f)
			return nil
		})
	}
	_ = g.Wait()

	r := &Report{Total: len(files)}
	for _, res := range results {
		r.add(res)
	}
	log.Info(ctx, "download finished", "root", root, "report", r.String())
	return r, nil
}

func (e *Engine) makeDir(ctx context.Context, log logging.Logger, root string, f manifest.FileEntry) fileResult {
	res := fileResult{path: f.Path, action: actionDir}
	dst, err := filex.SafeJoin(root, f.Path)
	if err != nil {
		res.err = err
		return res
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		res.err = fmt.Errorf("%w: %v", common.ErrIO, err)
		return res
	}
	log.Debug(ctx, "directory ready", "path", f.Path)
	return res
}

func (e *Engine) downloadFile(ctx context.Context, log logging.Logger, depotID uint32, root string, f manifest.FileEntry) (res fileResult) {
	res.path = f.Path
	defer func() {
		if res.err != nil {
			log.Warn(ctx, "file failed", "path", f.Path, "error", res.err)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	dst, err := filex.SafeJoin(root, f.Path)
	if err != nil {
		res.err = err
		return res
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		res.err = fmt.Errorf("%w: %v", common.ErrIO, err)
		return res
	}

	existing, _, err := filex.Size(dst)
	if err != nil {
		res.err = fmt.Errorf("%w: %v", common.ErrIO, err)
		return res
	}
	target := int64(f.Size)

	if existing > target {
		log.Info(ctx, "local file larger than manifest, refetching", "path", f.Path,
			"local", existing, "target", target)
		if err := os.Remove(dst); err != nil {
			res.err = fmt.Errorf("%w: remove corrupt file: %v", common.ErrIO, err)
			return res
		}
		res.corrupted = true
		existing = 0
	}

	switch {
	case target == 0:
		res.action = actionEmpty
		if err := touch(dst); err != nil {
			res.err = fmt.Errorf("%w: %v", common.ErrIO, err)
		}
		return res
	case existing == target:
		res.action = actionSkip
		log.Debug(ctx, "file complete, skipping", "path", f.Path)
		return res
	case existing > 0:
		res.action = actionResume
		log.Info(ctx, "resuming file", "path", f.Path, "offset", existing, "target", target)
	default:
		res.action = actionFetch
		log.Debug(ctx, "fetching file", "path", f.Path, "target", target)
	}

	size, err := e.transfer(ctx, depotID, f, dst, existing)
	if err != nil {
		res.err = err
		return res
	}
	if size < target {
		res.incomplete = true
		log.Warn(ctx, "stream ended before file was complete", "path", f.Path,
			"size", size, "target", target)
		return res
	}

	if e.verify && f.SHA256 != "" {
		sum, err := filex.SHA256(dst)
		if err != nil {
			res.err = fmt.Errorf("%w: %v", common.ErrIO, err)
			return res
		}
		if sum != f.SHA256 {
			_ = os.Remove(dst)
			res.err = fmt.Errorf("%w: checksum mismatch for %s", common.ErrCorrupt, f.Path)
			return res
		}
	}
	return res
}

// transfer appends the stream for f to dst starting at offset and returns
// the resulting file length. Reads never go past the declared size.
func (e *Engine) transfer(ctx context.Context, depotID uint32, f manifest.FileEntry, dst string, offset int64) (size int64, err error) {
	rc, err := e.opener.OpenFile(ctx, depotID, f, offset)
	if err != nil {
		return offset, err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return offset, fmt.Errorf("%w: %v", common.ErrIO, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", common.ErrIO, cerr)
		}
	}()

	target := int64(f.Size)
	buf := make([]byte, e.chunkSize)
	size = offset
	for size < target {
		want := min(int64(len(buf)), target-size)
		n, rerr := rc.Read(buf[:want])
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return size, fmt.Errorf("%w: %v", common.ErrIO, werr)
			}
			size += int64(n)
		}
		if errors.Is(rerr, io.EOF) || (n == 0 && rerr == nil) {
			break
		}
		if rerr != nil {
			return size, rerr
		}
	}
	return size, nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
