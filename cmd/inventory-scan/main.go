// Package main is the inventory-scan CLI: scan documents, ask inventory
// questions and export stock workbooks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/inventory-scanner/internal/app"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inventory-scan",
		Short:         "Extract inventory movements from delivery notes and control sheets",
		Long:          "inventory-scan reads remitos and control sheets (QR, local OCR, then remote AI providers), caches every analysis by content hash, and answers stock questions from an inventory snapshot.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScanCmd(), newAskCmd(), newExportCmd())
	return root
}

// openApp loads configuration from the environment and builds the app.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	return app.New(cmd.Context(), cfg, logger)
}

func main() {
	// Load .env file if it exists
	common.LoadDotEnv()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
