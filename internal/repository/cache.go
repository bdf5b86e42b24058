package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// AnalysisCache is the content-addressed store of committed extractions plus
// the append-only audit log. Get returns (nil, nil) when no entry exists.
// Entries are never updated or deleted by the pipeline; concurrent puts for
// the same key resolve as last write wins.
type AnalysisCache interface {
	Get(ctx context.Context, hash entity.ContentHash, docType constants.DocumentType) (*entity.CacheEntry, error)
	Put(ctx context.Context, entry entity.CacheEntry) error
	AppendAudit(ctx context.Context, entry entity.AuditEntry) error
	Close() error
}

func cacheKey(hash entity.ContentHash, docType constants.DocumentType) string {
	return fmt.Sprintf("%s:%s", docType, hash)
}

func encodePayload(e entity.Extraction) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

func decodePayload(b []byte) (entity.Extraction, error) {
	var e entity.Extraction
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("decode payload: %w", err)
	}
	return e, nil
}

// MemoryCache keeps entries in process memory. It is the default backend and
// the one used by tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entity.CacheEntry
	audit   []entity.AuditEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entity.CacheEntry)}
}

func (m *MemoryCache) Get(_ context.Context, hash entity.ContentHash, docType constants.DocumentType) (*entity.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[cacheKey(hash, docType)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryCache) Put(_ context.Context, entry entity.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(entry.Hash, entry.DocType)] = entry
	return nil
}

func (m *MemoryCache) AppendAudit(_ context.Context, entry entity.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

// Audit returns a copy of the audit log in append order.
func (m *MemoryCache) Audit() []entity.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]entity.AuditEntry(nil), m.audit...)
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Close() error { return nil }
