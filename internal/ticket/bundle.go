package ticket

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/filex"
)

// Bundle is the multi-depot artifact produced by a bulk build.
type Bundle struct {
	AppID  uint32                  `json:"appID"`
	Name   string                  `json:"name"`
	OSList string                  `json:"oslist"`
	OSArch string                  `json:"osarch"`
	Depots map[string]*DepotRecord `json:"depots"`
}

type DepotRecord struct {
	Name      string            `json:"name,omitempty"`
	Key       string            `json:"key,omitempty"`
	Config    DepotConfig       `json:"config"`
	Manifests *ManifestBranches `json:"manifests,omitempty"`
}

type DepotConfig struct {
	OSArch            string `json:"osarch"`
	OSList            string `json:"oslist"`
	OptionalDLC       string `json:"optionaldlc,omitempty"`
	IsRedistributable bool   `json:"isRedistributable"`
}

type ManifestBranches struct {
	Public ManifestRecord `json:"public"`
}

// ManifestRecord describes the public manifest of a depot. Content holds the
// raw manifest payload in standard base64.
type ManifestRecord struct {
	Download uint64 `json:"download"`
	GID      uint64 `json:"gid"`
	Size     uint64 `json:"size"`
	Content  string `json:"content"`
}

// NewBundle returns an empty bundle for appID.
func NewBundle(appID uint32, name, oslist, osarch string) *Bundle {
	return &Bundle{
		AppID:  appID,
		Name:   name,
		OSList: oslist,
		OSArch: osarch,
		Depots: make(map[string]*DepotRecord),
	}
}

// AddTicket records a content depot together with its ticket.
func (b *Bundle) AddTicket(t *Ticket, name string, cfg DepotConfig, download, size uint64) {
	cfg.IsRedistributable = false
	b.Depots[strconv.FormatUint(uint64(t.DepotID), 10)] = &DepotRecord{
		Name:   name,
		Key:    hex.EncodeToString(t.DepotKey),
		Config: cfg,
		Manifests: &ManifestBranches{Public: ManifestRecord{
			Download: download,
			GID:      t.ManifestID,
			Size:     size,
			Content:  base64.StdEncoding.EncodeToString(t.Manifest),
		}},
	}
}

// AddRedistributable records a metadata-only entry for a shared runtime depot.
func (b *Bundle) AddRedistributable(depotID uint32, name string, cfg DepotConfig) {
	cfg.IsRedistributable = true
	b.Depots[strconv.FormatUint(uint64(depotID), 10)] = &DepotRecord{Name: name, Config: cfg}
}

// DepotIDs returns the numeric depot ids of the bundle in ascending order.
func (b *Bundle) DepotIDs() []uint32 {
	ids := make([]uint32, 0, len(b.Depots))
	for k := range b.Depots {
		v, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(v))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Tickets re-derives single tickets from every content depot record, in
// ascending depot order. Redistributable records are skipped.
func (b *Bundle) Tickets() ([]*Ticket, error) {
	var out []*Ticket
	for _, id := range b.DepotIDs() {
		rec := b.Depots[strconv.FormatUint(uint64(id), 10)]
		if rec.Config.IsRedistributable || rec.Manifests == nil {
			continue
		}
		key, err := hex.DecodeString(rec.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: depot %d key: %v", common.ErrMalformedTicket, id, err)
		}
		payload, err := base64.StdEncoding.DecodeString(rec.Manifests.Public.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: depot %d content: %v", common.ErrMalformedTicket, id, err)
		}
		if len(payload) == 0 {
			payload = nil
		}
		t := &Ticket{
			AppID:      b.AppID,
			DepotID:    id,
			ManifestID: rec.Manifests.Public.GID,
			DepotKey:   key,
			Manifest:   payload,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("depot %d: %w", id, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// EncodeBundle writes b as indented JSON.
func EncodeBundle(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// DecodeBundle parses a bundle; syntax errors are reported as malformed.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: bundle: %v", common.ErrMalformedTicket, err)
	}
	if b.Depots == nil {
		b.Depots = make(map[string]*DepotRecord)
	}
	return &b, nil
}

// WriteBundleFile stores b in dir under BundleFileName.
func WriteBundleFile(dir string, b *Bundle) (string, error) {
	var buf bytes.Buffer
	if err := EncodeBundle(&buf, b); err != nil {
		return "", err
	}
	path := filepath.Join(dir, BundleFileName(b.AppID))
	if err := filex.WriteAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// ReadBundleFile loads a bundle from path.
func ReadBundleFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeBundle(f)
}
