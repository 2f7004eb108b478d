// Package manifest reconstructs depot manifests from raw ticket payloads
// and keeps them, together with depot keys, in process-local stores.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/cryptox"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
	"github.com/klauspost/compress/zstd"
)

// ErrDecrypt is returned when a depot key does not open the file names.
var ErrDecrypt = errors.New("cannot decrypt file names")

const maxDecodedSize = 256 << 20

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize), zstd.WithDecoderConcurrency(0))
)

// FileEntry is one file or directory listed by a manifest. Path stays sealed
// until the owning manifest's names are decrypted.
type FileEntry struct {
	Path        string
	Size        uint64
	IsDirectory bool
	SHA256      string
	ContentKey  string
}

// Manifest is a resolved, in-memory depot manifest.
type Manifest struct {
	mu        sync.RWMutex
	id        ticket.Identity
	created   time.Time
	encrypted bool
	files     []FileEntry
}

type payload struct {
	DepotID            uint32    `json:"depot_id"`
	ManifestID         string    `json:"manifest_id"`
	Created            time.Time `json:"created"`
	FilenamesEncrypted bool      `json:"filenames_encrypted"`
	Files              []file    `json:"files"`
}

type file struct {
	Name       string `json:"name"`
	Size       uint64 `json:"size"`
	Dir        bool   `json:"dir,omitempty"`
	SHA256     string `json:"sha256,omitempty"`
	ContentKey string `json:"content_key,omitempty"`
}

// Parse decodes a raw manifest payload belonging to appID.
func Parse(appID uint32, raw []byte) (*Manifest, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty manifest payload", common.ErrMalformedTicket)
	}

	data, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest payload: %v", common.ErrMalformedTicket, err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: manifest body: %v", common.ErrMalformedTicket, err)
	}

	manifestID, err := strconv.ParseUint(p.ManifestID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest id %q", common.ErrMalformedTicket, p.ManifestID)
	}

	m := &Manifest{
		id:        ticket.Identity{AppID: appID, DepotID: p.DepotID, ManifestID: manifestID},
		created:   p.Created,
		encrypted: p.FilenamesEncrypted,
		files:     make([]FileEntry, 0, len(p.Files)),
	}
	for _, f := range p.Files {
		m.files = append(m.files, FileEntry{
			Path:        f.Name,
			Size:        f.Size,
			IsDirectory: f.Dir,
			SHA256:      f.SHA256,
			ContentKey:  f.ContentKey,
		})
	}
	return m, nil
}

// Encode produces the raw payload for a manifest listing files. When key is
// non-nil every path is sealed with it.
func Encode(id ticket.Identity, created time.Time, files []FileEntry, key []byte) ([]byte, error) {
	p := payload{
		DepotID:            id.DepotID,
		ManifestID:         strconv.FormatUint(id.ManifestID, 10),
		Created:            created.UTC(),
		FilenamesEncrypted: key != nil,
		Files:              make([]file, 0, len(files)),
	}
	for _, f := range files {
		name := f.Path
		if key != nil {
			sealed, err := cryptox.SealName(key, name)
			if err != nil {
				return nil, fmt.Errorf("seal %q: %w", name, err)
			}
			name = sealed
		}
		p.Files = append(p.Files, file{
			Name:       name,
			Size:       f.Size,
			Dir:        f.IsDirectory,
			SHA256:     f.SHA256,
			ContentKey: f.ContentKey,
		})
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

func (m *Manifest) Identity() ticket.Identity { return m.id }

func (m *Manifest) Created() time.Time { return m.created }

// Encrypted reports whether file paths are still sealed.
func (m *Manifest) Encrypted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.encrypted
}

// Files returns a copy of the entries in manifest order.
func (m *Manifest) Files() []FileEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FileEntry, len(m.files))
	copy(out, m.files)
	return out
}

// TotalSize sums the sizes of all regular files.
func (m *Manifest) TotalSize() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n uint64
	for _, f := range m.files {
		if !f.IsDirectory {
			n += f.Size
		}
	}
	return n
}

// DecryptFileNames resolves every path to plaintext using key. Either all
// names are decrypted or none are. Calling it again once the names are
// plaintext is a no-op.
func (m *Manifest) DecryptFileNames(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.encrypted {
		return nil
	}

	plain := make([]string, len(m.files))
	for i, f := range m.files {
		name, err := cryptox.OpenName(key, f.Path)
		if err != nil {
			return fmt.Errorf("%w: depot %d entry %d: %v", ErrDecrypt, m.id.DepotID, i, err)
		}
		plain[i] = name
	}
	for i := range m.files {
		m.files[i].Path = plain[i]
	}
	m.encrypted = false
	return nil
}
