package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/export"
)

type scanOptions struct {
	docType string
	remote  bool
	xlsx    string
	json    bool
}

func newScanCmd() *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan <file-or-dir>...",
		Short: "Extract items or control rows from document images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.docType, "type", "t", "outcome", "Document type: income, outcome or control")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Allow remote AI providers when QR and local OCR find nothing")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Write the results to this XLSX file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as JSON lines")
	return cmd
}

type scanLine struct {
	Path      string `json:"path"`
	Hash      string `json:"hash,omitempty"`
	Source    string `json:"source,omitempty"`
	FromCache bool   `json:"fromCache"`
	Units     int    `json:"units"`
	Payload   any    `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
}

func runScan(cmd *cobra.Command, args []string, opts scanOptions) error {
	docType, ok := constants.ParseDocumentType(opts.docType)
	if !ok {
		return fmt.Errorf("unknown --type %q (use income, outcome or control)", opts.docType)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	records, err := a.ScanPaths(cmd.Context(), args, docType, opts.remote)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	failed := 0
	for _, r := range records {
		line := scanLine{Path: r.Path}
		if r.Err != nil {
			failed++
			line.Error = r.Err.Error()
		} else {
			line.Hash = string(r.Result.Hash)
			line.Source = string(r.Result.Source)
			line.FromCache = r.Result.FromCache
			line.Units = r.Result.Extraction.TotalUnits()
			line.Payload = r.Result.Extraction
		}
		if opts.json {
			if err := enc.Encode(line); err != nil {
				return err
			}
			continue
		}
		if line.Error != "" {
			fmt.Fprintf(out, "FAIL  %s: %s\n", line.Path, line.Error)
			continue
		}
		cached := ""
		if line.FromCache {
			cached = " (cached)"
		}
		fmt.Fprintf(out, "OK    %s: %d units via %s%s\n", line.Path, line.Units, line.Source, cached)
	}

	if opts.xlsx != "" {
		if err := writeScansXLSX(a.Export, records, opts.xlsx); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", opts.xlsx)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents need manual entry", failed, len(records))
	}
	return nil
}

func writeScansXLSX(svc *export.Service, records []export.ScanRecord, path string) error {
	b, err := svc.ScansXLSX(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
