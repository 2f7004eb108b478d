package ticket

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/depotkeeper/internal/filex"
)

const (
	Ext       = ".ticket"
	BundleExt = ".bundle"
)

// FileName is the conventional name of a single-ticket artifact.
func FileName(id Identity) string {
	return id.String() + Ext
}

// BundleFileName is the conventional name of the multi-depot artifact of an app.
func BundleFileName(appID uint32) string {
	return fmt.Sprintf("%d%s", appID, BundleExt)
}

// WriteFile stores t in dir under FileName and returns the full path.
// The file is written to a temporary name first and renamed into place,
// so readers never observe a half-written ticket.
func WriteFile(dir string, t *Ticket) (string, error) {
	data, err := Marshal(t)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(t.Identity()))
	if err := filex.WriteAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// ReadFile loads a single ticket from path.
func ReadFile(path string) (*Ticket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Find walks root and returns every ticket file below it, sorted.
// A missing root yields an empty result.
func Find(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), Ext) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
