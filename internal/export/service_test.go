package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/core"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/resolver"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

func open(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestScansXLSX(t *testing.T) {
	records := []ScanRecord{
		{
			Path: "remito.png",
			Result: &core.Result{
				DocType: constants.DocTransactionOutcome,
				Source:  constants.SourceOCR,
				Extraction: entity.Extraction{Transaction: &entity.ExtractedTransaction{
					Destination: "Obra Norte",
					Items: []entity.LineItem{
						{ItemName: "Chapa Lisa", Quantity: 4, ItemType: constants.ItemTypeSheet},
						{ItemName: "Modulo Hex", Quantity: 2, ItemType: constants.ItemTypeModule},
					},
				}},
			},
		},
		{
			Path: "planilla.jpg",
			Result: &core.Result{
				DocType:    constants.DocControlSheet,
				Source:     constants.SourceRemote,
				FromCache:  true,
				Extraction: entity.Extraction{Rows: []entity.ExtractedControlRow{{DeliveryDate: "2024-05-01", Destination: "Obra Sur", Model: "Modulo Hex", Quantity: 7}}},
			},
		},
		{Path: "blurry.jpg", Err: errors.New("no data extracted")},
	}

	b, err := NewService(nil).ScansXLSX(records)
	require.NoError(t, err)
	f := open(t, b)

	assert.Equal(t, []string{sheetItems, sheetControl, sheetFailures}, f.GetSheetList())

	rows, err := f.GetRows(sheetItems)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Document", rows[0][0])
	assert.Equal(t, []string{"remito.png", "TRANSACTION_OUTCOME", "ocr", "FALSE", "Obra Norte", "Chapa Lisa", "chapa", "4"}, rows[1])

	rows, err = f.GetRows(sheetControl)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Modulo Hex", rows[1][5])
	assert.Equal(t, "7", rows[1][6])

	rows, err = f.GetRows(sheetFailures)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"blurry.jpg", "no data extracted"}, rows[1])
}

func TestStockXLSX(t *testing.T) {
	snap := resolver.Build(
		[]entity.Item{{ID: "i1", Name: "Modulo Hex", Type: constants.ItemTypeModule}, {ID: "i2", Name: "Chapa"}},
		[]entity.Transaction{
			{Type: constants.TransactionIncome, ItemID: "i1", Quantity: 10},
			{Type: constants.TransactionOutcome, ItemID: "i1", Quantity: 3},
		},
		nil,
	)
	b, err := NewService(nil).StockXLSX(snap)
	require.NoError(t, err)

	rows, err := open(t, b).GetRows(sheetStock)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"i1", "Modulo Hex", "modulo", "7"}, rows[1])
	assert.Equal(t, "0", rows[2][3])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
