package llm

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// MimeType resolves the document's MIME type from its declared type, its
// name, or its content.
func MimeType(doc entity.ProcessedDocument) string {
	if doc.MimeType != "" {
		return doc.MimeType
	}
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(doc.Name))); mt != "" {
		return mt
	}
	return http.DetectContentType(doc.Bytes)
}

// ImageFormat is the MIME subtype, e.g. "jpeg" for "image/jpeg".
func ImageFormat(doc entity.ProcessedDocument) string {
	mt := MimeType(doc)
	if i := strings.Index(mt, "/"); i >= 0 {
		mt = mt[i+1:]
	}
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// DataURL encodes the document as a data: URI for vision requests.
func DataURL(doc entity.ProcessedDocument) string {
	return "data:" + MimeType(doc) + ";base64," + base64.StdEncoding.EncodeToString(doc.Bytes)
}
