package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
	"github.com/joseph-ayodele/inventory-scanner/internal/repository"
)

type fakeQR struct {
	res   entity.StageResult
	calls int
}

func (f *fakeQR) Extract(entity.ProcessedDocument, constants.DocumentType) entity.StageResult {
	f.calls++
	return f.res
}

type fakeOCR struct {
	tx    entity.ExtractedTransaction
	rows  []entity.ExtractedControlRow
	err   error
	calls int
}

func (f *fakeOCR) AnalyzeTransaction(context.Context, entity.ProcessedDocument) (entity.ExtractedTransaction, error) {
	f.calls++
	return f.tx, f.err
}

func (f *fakeOCR) AnalyzeControlSheet(context.Context, entity.ProcessedDocument) ([]entity.ExtractedControlRow, error) {
	f.calls++
	return f.rows, f.err
}

type fakeRemote struct {
	available bool
	out       entity.Extraction
	err       error
	calls     int
}

func (f *fakeRemote) Available() bool { return f.available }

func (f *fakeRemote) Extract(context.Context, entity.ProcessedDocument, constants.DocumentType) (entity.Extraction, error) {
	f.calls++
	return f.out, f.err
}

type brokenCache struct {
	*repository.MemoryCache
	getErr error
	putErr error
}

func (b *brokenCache) Get(ctx context.Context, h entity.ContentHash, dt constants.DocumentType) (*entity.CacheEntry, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.MemoryCache.Get(ctx, h, dt)
}

func (b *brokenCache) Put(ctx context.Context, e entity.CacheEntry) error {
	if b.putErr != nil {
		return b.putErr
	}
	return b.MemoryCache.Put(ctx, e)
}

type stateRecorder struct{ states []constants.PipelineState }

func (s *stateRecorder) ObservePipelineRun(_ constants.DocumentType, state constants.PipelineState, _ constants.AnalysisSource, _ time.Duration) {
	s.states = append(s.states, state)
}

func doc(content string) entity.ProcessedDocument {
	return entity.ProcessedDocument{Bytes: []byte(content), MimeType: "image/png", Name: "doc.png"}
}

func oneItem(name string, qty int) entity.ExtractedTransaction {
	return entity.ExtractedTransaction{Destination: "Obra Norte", Items: []entity.LineItem{{ItemName: name, Quantity: qty}}}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestProcessor(cache repository.AnalysisCache, qr QRStage, local *fakeOCR, remote *fakeRemote, opts ...ProcessorOption) *Processor {
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	var r RemoteExtractor
	if remote != nil {
		r = remote
	}
	return NewProcessor(nil, cache, qr, local, r, opts...)
}

func TestProcess_SecondRunIsServedFromCache(t *testing.T) {
	ctx := context.Background()
	cache := repository.NewMemoryCache()
	local := &fakeOCR{tx: oneItem("Chapa Lisa", 5)}
	remote := &fakeRemote{available: true}
	rec := &stateRecorder{}
	p := newTestProcessor(cache, &fakeQR{}, local, remote, WithRecorder(rec))
	req := Request{Document: doc("invoice-1"), DocType: constants.DocTransactionIncome, AllowRemote: true}

	first, err := p.Process(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, constants.SourceOCR, first.Source)
	assert.Equal(t, constants.StateLocalNonEmpty, first.State)
	assert.Equal(t, fixedNow, first.SavedAt)

	second, err := p.Process(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, constants.StateCacheHit, second.State)
	assert.Equal(t, constants.SourceOCR, second.Source)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Extraction, second.Extraction)

	assert.Equal(t, 1, local.calls, "cache hit must not rerun OCR")
	assert.Zero(t, remote.calls)
	assert.Equal(t, 1, cache.Len())

	audit := cache.Audit()
	require.Len(t, audit, 2)
	for _, a := range audit {
		assert.Equal(t, first.Hash, a.Hash)
		assert.Equal(t, constants.SourceOCR, a.Source)
		assert.Equal(t, len("invoice-1"), a.SizeInBytes)
	}
	assert.Equal(t, []constants.PipelineState{constants.StateLocalNonEmpty, constants.StateCacheHit}, rec.states)
}

func TestProcess_CacheIsKeyedByDocumentType(t *testing.T) {
	ctx := context.Background()
	cache := repository.NewMemoryCache()
	local := &fakeOCR{tx: oneItem("Chapa Lisa", 5)}
	p := newTestProcessor(cache, &fakeQR{}, local, nil)

	_, err := p.Process(ctx, Request{Document: doc("same"), DocType: constants.DocTransactionIncome})
	require.NoError(t, err)
	res, err := p.Process(ctx, Request{Document: doc("same"), DocType: constants.DocTransactionOutcome})
	require.NoError(t, err)

	assert.False(t, res.FromCache)
	assert.Equal(t, 2, local.calls)
	assert.Equal(t, 2, cache.Len())
}

func TestProcess_QRShortCircuits(t *testing.T) {
	cache := repository.NewMemoryCache()
	payload := entity.Extraction{Transaction: &entity.ExtractedTransaction{Items: []entity.LineItem{{ItemName: "Modulo Hex", Quantity: 3}}}}
	qr := &fakeQR{res: entity.StageOf(payload, constants.DocTransactionOutcome)}
	local := &fakeOCR{tx: oneItem("Other", 1)}
	remote := &fakeRemote{available: true}
	p := newTestProcessor(cache, qr, local, remote)

	res, err := p.Process(context.Background(), Request{Document: doc("qr"), DocType: constants.DocTransactionOutcome, AllowRemote: true})
	require.NoError(t, err)
	assert.Equal(t, constants.SourceQR, res.Source)
	assert.Equal(t, 3, res.Extraction.TotalUnits())
	assert.Zero(t, local.calls)
	assert.Zero(t, remote.calls)
	assert.Equal(t, []constants.PipelineState{
		constants.StateReceived,
		constants.StateHashed,
		constants.StateCacheMiss,
		constants.StateQrResolved,
	}, res.Trace)
	require.Len(t, cache.Audit(), 1)
	assert.Equal(t, constants.SourceQR, cache.Audit()[0].Source)
}

func TestProcess_RemoteNotCalledWhenLocalHasData(t *testing.T) {
	remote := &fakeRemote{available: true}
	p := newTestProcessor(repository.NewMemoryCache(), &fakeQR{}, &fakeOCR{tx: oneItem("Chapa", 2)}, remote)

	res, err := p.Process(context.Background(), Request{Document: doc("x"), DocType: constants.DocTransactionIncome, AllowRemote: true})
	require.NoError(t, err)
	assert.Equal(t, constants.SourceOCR, res.Source)
	assert.Zero(t, remote.calls)
}

func TestProcess_RemoteResolvesWhenLocalEmpty(t *testing.T) {
	cache := repository.NewMemoryCache()
	remote := &fakeRemote{
		available: true,
		out:       entity.Extraction{Rows: []entity.ExtractedControlRow{{DeliveryDate: "2024-05-01", Destination: "Obra Sur", Model: "Modulo Hex", Quantity: 4}}},
	}
	p := newTestProcessor(cache, &fakeQR{}, &fakeOCR{}, remote)

	res, err := p.Process(context.Background(), Request{Document: doc("sheet"), DocType: constants.DocControlSheet, AllowRemote: true})
	require.NoError(t, err)
	assert.Equal(t, constants.SourceRemote, res.Source)
	assert.Equal(t, constants.StateRemoteResolved, res.State)
	assert.Equal(t, 1, remote.calls)
	require.Len(t, res.Extraction.Rows, 1)
	assert.Equal(t, 4, res.Extraction.Rows[0].Quantity)
	assert.Equal(t, 1, cache.Len())
}

func TestProcess_NoDataWhenRemoteUnavailable(t *testing.T) {
	tests := []struct {
		name      string
		allow     bool
		available bool
	}{
		{name: "caller did not allow remote", allow: false, available: true},
		{name: "no provider configured", allow: true, available: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := repository.NewMemoryCache()
			remote := &fakeRemote{available: tt.available}
			p := newTestProcessor(cache, &fakeQR{}, &fakeOCR{}, remote)

			res, err := p.Process(context.Background(), Request{Document: doc("blank"), DocType: constants.DocTransactionOutcome, AllowRemote: tt.allow})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, common.ErrNoData)
			assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
			assert.Zero(t, remote.calls)
			assert.Zero(t, cache.Len())
			assert.Empty(t, cache.Audit())
		})
	}
}

func TestProcess_NilRemoteIsUnavailable(t *testing.T) {
	p := NewProcessor(nil, repository.NewMemoryCache(), &fakeQR{}, &fakeOCR{}, nil)
	_, err := p.Process(context.Background(), Request{Document: doc("blank"), DocType: constants.DocTransactionIncome, AllowRemote: true})
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
}

func TestProcess_InvalidRowsAreRejected(t *testing.T) {
	cache := repository.NewMemoryCache()
	local := &fakeOCR{rows: []entity.ExtractedControlRow{
		{Model: "Modulo Hex", Quantity: 0},
		{Model: "  ", Quantity: 3},
	}}
	remote := &fakeRemote{
		available: true,
		out:       entity.Extraction{Rows: []entity.ExtractedControlRow{{Model: "Chapa", Quantity: -2}}},
	}
	rec := &stateRecorder{}
	p := newTestProcessor(cache, &fakeQR{}, local, remote, WithRecorder(rec))

	_, err := p.Process(context.Background(), Request{Document: doc("bad"), DocType: constants.DocControlSheet, AllowRemote: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoData)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, 1, remote.calls, "invalid local rows count as no local signal")
	assert.Zero(t, cache.Len())
	assert.Empty(t, cache.Audit())
	assert.Equal(t, []constants.PipelineState{constants.StateFailed}, rec.states)
}

func TestProcess_RemoteFailure(t *testing.T) {
	cache := repository.NewMemoryCache()
	boom := errors.New("all providers down")
	p := newTestProcessor(cache, &fakeQR{}, &fakeOCR{}, &fakeRemote{available: true, err: boom})

	_, err := p.Process(context.Background(), Request{Document: doc("x"), DocType: constants.DocTransactionIncome, AllowRemote: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, common.ErrNoData)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "REMOTE_FAILED", appErr.Code)
	assert.Zero(t, cache.Len())
}

func TestProcess_StorageErrorsPropagate(t *testing.T) {
	storage := errors.New("disk full")

	t.Run("get", func(t *testing.T) {
		cache := &brokenCache{MemoryCache: repository.NewMemoryCache(), getErr: storage}
		local := &fakeOCR{tx: oneItem("Chapa", 1)}
		p := newTestProcessor(cache, &fakeQR{}, local, nil)

		_, err := p.Process(context.Background(), Request{Document: doc("x"), DocType: constants.DocTransactionIncome})
		assert.ErrorIs(t, err, storage)
		assert.Zero(t, local.calls)
	})

	t.Run("put", func(t *testing.T) {
		cache := &brokenCache{MemoryCache: repository.NewMemoryCache(), putErr: storage}
		p := newTestProcessor(cache, &fakeQR{}, &fakeOCR{tx: oneItem("Chapa", 1)}, nil)

		_, err := p.Process(context.Background(), Request{Document: doc("x"), DocType: constants.DocTransactionIncome})
		assert.ErrorIs(t, err, storage)
		assert.Empty(t, cache.Audit(), "no audit without a cache write")
	})
}

func TestProcess_LocalErrorPropagates(t *testing.T) {
	ocrErr := errors.New("temp dir unavailable")
	remote := &fakeRemote{available: true}
	p := newTestProcessor(repository.NewMemoryCache(), &fakeQR{}, &fakeOCR{err: ocrErr}, remote)

	_, err := p.Process(context.Background(), Request{Document: doc("x"), DocType: constants.DocTransactionIncome, AllowRemote: true})
	assert.ErrorIs(t, err, ocrErr)
	assert.Zero(t, remote.calls)
}

func TestProcess_RejectsUnknownDocumentType(t *testing.T) {
	p := newTestProcessor(repository.NewMemoryCache(), &fakeQR{}, &fakeOCR{}, nil)
	_, err := p.Process(context.Background(), Request{Document: doc("x"), DocType: "RECEIPT"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
