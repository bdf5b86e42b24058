package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/inventory-scanner/internal/app"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm"
)

func newAskCmd() *cobra.Command {
	var inventoryPath, historyPath string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about stock and movements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.LoadInventory(inventoryPath)
			if err != nil {
				return err
			}
			history, err := loadHistory(historyPath)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			reply, err := a.Assistant.Ask(cmd.Context(), snap, strings.Join(args, " "), history)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", reply.Route, reply.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "Inventory snapshot JSON (items, transactions, partners)")
	cmd.Flags().StringVar(&historyPath, "history", "", "Optional chat history JSON: [{\"role\":\"user\",\"text\":\"...\"}]")
	_ = cmd.MarkFlagRequired("inventory")
	return cmd
}

func loadHistory(path string) ([]llm.Turn, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []llm.Turn
	if err := json.Unmarshal(b, &turns); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return turns, nil
}
