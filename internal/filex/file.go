// Package filex holds filesystem helpers shared by the CLI and the download engine.
package filex

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned by SafeJoin for paths that escape the root.
var ErrUnsafePath = errors.New("unsafe path")

// EnsureDirs creates every named directory below base (tolerating ones that
// already exist) and returns their absolute paths in the same order.
func EnsureDirs(base string, names ...string) ([]string, error) {
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		base = cwd
	}

	dirs := make([]string, 0, len(names))
	for _, name := range names {
		dir := name
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, name)
		}
		if err := os.MkdirAll(dir, 0o770); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// Size reports the length of the file at path. A missing file yields
// (0, false, nil).
func Size(path string) (int64, bool, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if fi.IsDir() {
		return 0, true, fmt.Errorf("%s is a directory", path)
	}
	return fi.Size(), true, nil
}

// SHA256 returns the lowercase hex digest of the file at path.
func SHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SafeJoin joins a manifest-relative path onto root. Backslash separators
// are accepted; absolute paths and paths climbing out of root are rejected.
func SafeJoin(root, rel string) (string, error) {
	rel = strings.ReplaceAll(rel, `\`, "/")
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	local := filepath.FromSlash(rel)

	if rel == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	return filepath.Join(root, local), nil
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partial file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
