package manifest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// Cache maps a ticket identity to its resolved manifest.
// A later Put for the same identity replaces the earlier entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[ticket.Identity]*Manifest
}

func NewCache() *Cache {
	return &Cache{entries: make(map[ticket.Identity]*Manifest)}
}

// Put parses raw and stores the result under id.
func (c *Cache) Put(id ticket.Identity, raw []byte) (*Manifest, error) {
	m, err := Parse(id.AppID, raw)
	if err != nil {
		return nil, err
	}
	if m.id != id {
		return nil, fmt.Errorf("%w: payload describes %s, ticket names %s", common.ErrMalformedTicket, m.id, id)
	}

	c.mu.Lock()
	c.entries[id] = m
	c.mu.Unlock()
	return m, nil
}

func (c *Cache) Get(id ticket.Identity) (*Manifest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("manifest %s: %w", id, common.ErrNotFound)
	}
	return m, nil
}

// DecryptFileNames decrypts the names of the manifest stored under id.
func (c *Cache) DecryptFileNames(id ticket.Identity, key []byte) error {
	m, err := c.Get(id)
	if err != nil {
		return err
	}
	return m.DecryptFileNames(key)
}

// Identities lists the cached identities in ascending order.
func (c *Cache) Identities() []ticket.Identity {
	c.mu.RLock()
	ids := make([]ticket.Identity, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.AppID != b.AppID {
			return a.AppID < b.AppID
		}
		if a.DepotID != b.DepotID {
			return a.DepotID < b.DepotID
		}
		return a.ManifestID < b.ManifestID
	})
	return ids
}

// KeyStore maps a depot id to its symmetric key.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[uint32][]byte
}

func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[uint32][]byte)}
}

// Set stores a copy of key for depotID, replacing any previous key.
func (s *KeyStore) Set(depotID uint32, key []byte) {
	k := make([]byte, len(key))
	copy(k, key)

	s.mu.Lock()
	s.keys[depotID] = k
	s.mu.Unlock()
}

// Get returns a copy of the key stored for depotID.
func (s *KeyStore) Get(depotID uint32) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[depotID]
	if !ok {
		return nil, fmt.Errorf("depot key %d: %w", depotID, common.ErrNotFound)
	}
	out := make([]byte, len(k))
	copy(out, k)
	return out, nil
}

func (s *KeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
