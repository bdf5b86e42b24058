package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/inventory-scanner/internal/core"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/resolver"
)

const (
	sheetItems    = "Items"
	sheetControl  = "Control Rows"
	sheetFailures = "Failures"
	sheetStock    = "Stock"
)

// ScanRecord is one scanned file and its pipeline outcome.
type ScanRecord struct {
	Path   string
	Result *core.Result
	Err    error
}

// Service produces XLSX bytes for scan batches and stock snapshots.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// sheetWriter writes rows to one sheet, starting under the header.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func newSheet(f *excelize.File, name string, headers []string) (*sheetWriter, error) {
	if index, _ := f.GetSheetIndex(name); index == -1 {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	w := &sheetWriter{f: f, sheet: name, row: 1}
	w.write(toAny(headers)...)
	return w, nil
}

func (w *sheetWriter) write(values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, w.row)
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
	w.row++
}

func (w *sheetWriter) rows() int { return w.row - 2 }

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// finish drops the default sheet, activates the first named sheet and
// serializes the workbook.
func finish(f *excelize.File, first string) ([]byte, error) {
	if first != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	if idx, err := f.GetSheetIndex(first); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// ScansXLSX returns a workbook with one sheet per payload shape plus a sheet
// listing the files that failed.
func (s *Service) ScansXLSX(records []ScanRecord) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	items, err := newSheet(f, sheetItems, []string{
		"Document", "Document Type", "Source", "Cached", "Destination", "Item", "Item Type", "Quantity",
	})
	if err != nil {
		return nil, err
	}
	control, err := newSheet(f, sheetControl, []string{
		"Document", "Source", "Cached", "Delivery Date", "Destination", "Model", "Quantity",
	})
	if err != nil {
		return nil, err
	}
	failures, err := newSheet(f, sheetFailures, []string{"Document", "Error"})
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.Err != nil || r.Result == nil {
			msg := "no result"
			if r.Err != nil {
				msg = r.Err.Error()
			}
			failures.write(r.Path, truncate(msg, 300))
			continue
		}
		res := r.Result
		if tx := res.Extraction.Transaction; tx != nil {
			for _, it := range tx.Items {
				items.write(r.Path, string(res.DocType), string(res.Source), res.FromCache, tx.Destination, it.ItemName, string(it.ItemType), it.Quantity)
			}
		}
		for _, row := range res.Extraction.Rows {
			control.write(r.Path, string(res.Source), res.FromCache, row.DeliveryDate, row.Destination, row.Model, row.Quantity)
		}
	}

	_ = f.SetColWidth(sheetItems, "A", "A", 48)
	_ = f.SetColWidth(sheetItems, "E", "F", 28)
	_ = f.SetColWidth(sheetControl, "A", "A", 48)
	_ = f.SetColWidth(sheetControl, "E", "F", 28)
	_ = f.SetColWidth(sheetFailures, "A", "B", 60)

	out, err := finish(f, sheetItems)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.scans.ok",
		"records", len(records),
		"item_rows", items.rows(),
		"control_rows", control.rows(),
		"failures", failures.rows(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// StockXLSX returns a workbook with the current stock of every item.
func (s *Service) StockXLSX(snap *resolver.Snapshot) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	stock, err := newSheet(f, sheetStock, []string{"Item ID", "Item", "Type", "Stock"})
	if err != nil {
		return nil, err
	}
	for _, it := range snap.Items() {
		stock.write(it.ID, it.Name, string(it.Type), snap.Stock(it.ID))
	}
	_ = f.SetColWidth(sheetStock, "A", "A", 16)
	_ = f.SetColWidth(sheetStock, "B", "B", 36)

	out, err := finish(f, sheetStock)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.stock.ok", "rows", stock.rows(), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
