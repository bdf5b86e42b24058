package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

func sampleEntry(hash entity.ContentHash) entity.CacheEntry {
	return entity.CacheEntry{
		Hash:    hash,
		DocType: constants.DocTransactionOutcome,
		Source:  constants.SourceQR,
		Payload: entity.Extraction{Transaction: &entity.ExtractedTransaction{
			Destination: "Obra Norte",
			Items:       []entity.LineItem{{ItemName: "Chapa JC250", Quantity: 5, ItemType: constants.ItemTypeSheet}},
		}},
		SavedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func exerciseCache(t *testing.T, cache AnalysisCache) {
	ctx := context.Background()

	got, err := cache.Get(ctx, "abc", constants.DocTransactionOutcome)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := sampleEntry("abc")
	require.NoError(t, cache.Put(ctx, want))

	got, err = cache.Get(ctx, "abc", constants.DocTransactionOutcome)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Source, got.Source)
	assert.Equal(t, want.Payload, got.Payload)
	assert.True(t, want.SavedAt.Equal(got.SavedAt))

	other, err := cache.Get(ctx, "abc", constants.DocControlSheet)
	require.NoError(t, err)
	assert.Nil(t, other, "entries are keyed by hash and document type")

	require.NoError(t, cache.AppendAudit(ctx, entity.AuditEntry{
		Hash: "abc", DocType: constants.DocTransactionOutcome, Source: constants.SourceQR, SavedAt: want.SavedAt, SizeInBytes: 10,
	}))
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	exerciseCache(t, cache)
	assert.Equal(t, 1, cache.Len())
	require.Len(t, cache.Audit(), 1)
	assert.Equal(t, 10, cache.Audit()[0].SizeInBytes)
}

func TestMemoryCache_ConcurrentPutsLastWriteWins(t *testing.T) {
	cache := NewMemoryCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cache.Put(context.Background(), sampleEntry("same"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	cache, err := OpenSQLite(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer cache.Close()

	exerciseCache(t, cache)

	n, err := cache.AuditCount(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a second put on the same key replaces the entry
	updated := sampleEntry("abc")
	updated.Source = constants.SourceRemote
	require.NoError(t, cache.Put(ctx, updated))
	got, err := cache.Get(ctx, "abc", constants.DocTransactionOutcome)
	require.NoError(t, err)
	assert.Equal(t, constants.SourceRemote, got.Source)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), common.CacheConfig{Backend: "etcd"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestOpen_Memory(t *testing.T) {
	cache, err := Open(context.Background(), common.CacheConfig{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, cache)
}
