package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

func TestParse_JSONTransaction(t *testing.T) {
	e, ok := Parse(`{"items":[{"itemName":"Chapa JC 250","quantity":5}]}`, constants.DocTransactionOutcome)
	require.True(t, ok)
	require.NotNil(t, e.Transaction)
	require.Len(t, e.Transaction.Items, 1)
	assert.Equal(t, entity.LineItem{ItemName: "Chapa JC250", Quantity: 5, ItemType: constants.ItemTypeSheet}, e.Transaction.Items[0])
}

func TestParse_JSONSynonymsAndStrings(t *testing.T) {
	raw := `{"destino":"obra norte","items":[
		{"producto":"Modulo Hex","cantidad":"3","tipo":"modulo"},
		{"name":"Chapa Hex","qty":2},
		{"name":"Chapa Lisa","qty":0},
		{"name":"","qty":4},
		{"name":"Tornillo","qty":1.5}
	]}`
	e, ok := Parse(raw, constants.DocTransactionIncome)
	require.True(t, ok)
	assert.Equal(t, "Obra Norte", e.Transaction.Destination)
	require.Len(t, e.Transaction.Items, 2)
	assert.Equal(t, "Modulo Hex", e.Transaction.Items[0].ItemName)
	assert.Equal(t, 3, e.Transaction.Items[0].Quantity)
	assert.Equal(t, constants.ItemTypeModule, e.Transaction.Items[0].ItemType)
	assert.Equal(t, "Chapa Hex", e.Transaction.Items[1].ItemName)
}

func TestParse_DelimitedTransaction(t *testing.T) {
	e, ok := Parse("destino: Obra Sur;Chapa JC-250: 5\nModulo Hex|2\nbad line\nChapa Lisa,0", constants.DocTransactionOutcome)
	require.True(t, ok)
	assert.Equal(t, "Obra Sur", e.Transaction.Destination)
	require.Len(t, e.Transaction.Items, 2)
	assert.Equal(t, "Chapa JC250", e.Transaction.Items[0].ItemName)
	assert.Equal(t, 5, e.Transaction.Items[0].Quantity)
	assert.Equal(t, "Modulo Hex", e.Transaction.Items[1].ItemName)
	assert.Equal(t, constants.ItemTypeModule, e.Transaction.Items[1].ItemType)
}

func TestParse_DelimitedMergesDuplicates(t *testing.T) {
	e, ok := Parse("Chapa Hex:3;CHAPAS Hex:2", constants.DocTransactionOutcome)
	require.True(t, ok)
	require.Len(t, e.Transaction.Items, 1)
	assert.Equal(t, 5, e.Transaction.Items[0].Quantity)
}

func TestParse_ControlSheet(t *testing.T) {
	e, ok := Parse(`[{"fecha":"01/03","destino":"obra sur","modelo":"JC 250","cantidad":4},{"modelo":"","cantidad":2}]`, constants.DocControlSheet)
	require.True(t, ok)
	require.Len(t, e.Rows, 1)
	assert.Equal(t, entity.ExtractedControlRow{DeliveryDate: "01/03", Destination: "Obra Sur", Model: "JC250", Quantity: 4}, e.Rows[0])

	e, ok = Parse("01/03|Obra Sur|Modulo Hex|2\nChapa Lisa|7", constants.DocControlSheet)
	require.True(t, ok)
	require.Len(t, e.Rows, 2)
	assert.Equal(t, "Modulo Hex", e.Rows[0].Model)
	assert.Equal(t, "Chapa Lisa", e.Rows[1].Model)
	assert.Equal(t, 7, e.Rows[1].Quantity)
}

func TestParse_NothingUsable(t *testing.T) {
	for _, raw := range []string{"", "https://example.com/remito/123", `{"items":[]}`, "Chapa:0;Modulo:-2"} {
		_, ok := Parse(raw, constants.DocTransactionOutcome)
		assert.False(t, ok, raw)
	}
	_, ok := Parse(`{"rows":[{"model":"Chapa","quantity":0}]}`, constants.DocControlSheet)
	assert.False(t, ok)
}

func TestTryDecode_RoundTrip(t *testing.T) {
	payload := `{"items":[{"itemName":"Chapa JC 250","quantity":5}]}`
	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, 300, 300, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, matrix))

	text, ok := TryDecode(entity.ProcessedDocument{Bytes: buf.Bytes()})
	require.True(t, ok)
	assert.Equal(t, payload, text)
}

func TestTryDecode_NotAnImage(t *testing.T) {
	_, ok := TryDecode(entity.ProcessedDocument{Bytes: []byte("plain text")})
	assert.False(t, ok)
}

func TestExtractor_Extract(t *testing.T) {
	x := NewExtractor(nil)
	x.decode = func(entity.ProcessedDocument) (string, bool) { return "Chapa Hex:3", true }
	res := x.Extract(entity.ProcessedDocument{}, constants.DocTransactionOutcome)
	assert.Equal(t, entity.StageNonEmpty, res.Status)

	x.decode = func(entity.ProcessedDocument) (string, bool) { return "", false }
	res = x.Extract(entity.ProcessedDocument{}, constants.DocTransactionOutcome)
	assert.Equal(t, entity.StageEmpty, res.Status)
}
