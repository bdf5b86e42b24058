// Package qr reads inventory payloads from QR codes printed on documents.
package qr

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// TryDecode returns the text of the first QR code found in the document
// image. Undecodable images and images without a code report false.
func TryDecode(doc entity.ProcessedDocument) (string, bool) {
	if len(doc.Bytes) == 0 {
		return "", false
	}
	img, _, err := image.Decode(bytes.NewReader(doc.Bytes))
	if err != nil {
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil || result == nil {
		return "", false
	}
	text := result.GetText()
	return text, text != ""
}
