package app

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
)

func testConfig() *common.Config {
	cfg := common.LoadConfig()
	cfg.Cache.Backend = "memory"
	cfg.OCR.Enabled = false
	cfg.LLM.Preference = "none"
	return cfg
}

func writeQR(t *testing.T, path, payload string) {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, 300, 300, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, matrix))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestScanPaths_QRThenCache(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	dir := t.TempDir()
	doc := filepath.Join(dir, "remito.png")
	writeQR(t, doc, `{"destination":"Obra Norte","items":[{"itemName":"Modulo Hex","quantity":3}]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	records, err := a.ScanPaths(ctx, []string{dir}, constants.DocTransactionOutcome, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NoError(t, records[0].Err)
	assert.Equal(t, constants.SourceQR, records[0].Result.Source)
	assert.Equal(t, 3, records[0].Result.Extraction.TotalUnits())

	records, err = a.ScanPaths(ctx, []string{doc}, constants.DocTransactionOutcome, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Result.FromCache)
}

func TestScanPaths_BlankImageNeedsRemote(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	dir := t.TempDir()
	blank := filepath.Join(dir, "blank.png")
	require.NoError(t, os.WriteFile(blank, []byte("not really a png"), 0o644))

	records, err := a.ScanPaths(ctx, []string{blank, filepath.Join(dir, "missing.jpg")}, constants.DocControlSheet, true)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.ErrorIs(t, records[0].Err, common.ErrRemoteUnavailable)
	assert.Error(t, records[1].Err)

	_, err = a.ScanPaths(ctx, []string{blank}, "RECEIPT", false)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "cassandra"
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestLoadInventory(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "inventory.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
		"items": [{"id": "i1", "name": "Modulo Hex"}],
		"transactions": [
			{"id": "t1", "type": "INCOME", "itemId": "i1", "quantity": 10},
			{"id": "t2", "type": "OUTCOME", "itemId": "i1", "quantity": 4, "destination": "Obra Sur"}
		],
		"partners": []
	}`), 0o644))

	snap, err := LoadInventory(good)
	require.NoError(t, err)
	assert.Equal(t, 6, snap.Stock("i1"))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"items":[{"id":"i1"}],"transactions":[{"type":"LOAN","itemId":"i1","quantity":0}]}`), 0o644))
	_, err = LoadInventory(bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`{`), 0o644))
	_, err = LoadInventory(garbage)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
