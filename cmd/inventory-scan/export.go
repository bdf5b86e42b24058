package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/inventory-scanner/internal/app"
	"github.com/joseph-ayodele/inventory-scanner/internal/export"
)

func newExportCmd() *cobra.Command {
	var inventoryPath, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stock of an inventory snapshot to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := app.LoadInventory(inventoryPath)
			if err != nil {
				return err
			}
			b, err := export.NewService(nil).StockXLSX(snap)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "Inventory snapshot JSON")
	cmd.Flags().StringVarP(&out, "out", "o", "stock.xlsx", "Output XLSX path")
	_ = cmd.MarkFlagRequired("inventory")
	return cmd
}
