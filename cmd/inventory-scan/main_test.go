package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryJSON = `{
	"items": [{"id": "i1", "name": "Modulo Hex"}],
	"transactions": [
		{"id": "t1", "type": "INCOME", "itemId": "i1", "quantity": 10},
		{"id": "t2", "type": "OUTCOME", "itemId": "i1", "quantity": 3}
	],
	"partners": []
}`

func isolateEnv(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("OCR_ENABLED", "false")
	t.Setenv("AI_PROVIDER_PREFERENCE", "none")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeInventory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(inventoryJSON), 0o644))
	return path
}

func TestAskCommand_LocalAnswer(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "ask", "--inventory", writeInventory(t), "¿Cuánto", "stock", "hay", "de", "Modulo", "Hex?")
	require.NoError(t, err)
	assert.Contains(t, out, "[local]")
	assert.Contains(t, out, "7")
}

func TestAskCommand_RequiresInventory(t *testing.T) {
	isolateEnv(t)
	_, err := run(t, "ask", "stock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory")
}

func TestExportCommand(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "stock.xlsx")
	stdout, err := run(t, "export", "--inventory", writeInventory(t), "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote")
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestScanCommand_UnknownType(t *testing.T) {
	isolateEnv(t)
	_, err := run(t, "scan", "--type", "receipt", "a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown --type")
}

func TestScanCommand_ReportsManualEntry(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "blank.jpg")
	require.NoError(t, os.WriteFile(doc, []byte("not an image"), 0o644))
	xlsx := filepath.Join(dir, "out.xlsx")

	out, err := run(t, "scan", "--type", "control", "--xlsx", xlsx, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 documents need manual entry")
	assert.Contains(t, out, "FAIL")
	_, statErr := os.Stat(xlsx)
	assert.NoError(t, statErr)
}
