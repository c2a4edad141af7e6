package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/export"
	"github.com/mlaskin/docvision/internal/history"
)

var (
	flagHistoryLimit int
	flagHistoryXLSX  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent extraction runs recorded by the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		// History only reads the local database; no model credential needed.
		cfg := common.LoadConfig()

		ctx, cancel := common.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		store, err := history.Open(ctx, cfg.History.Path, logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()

		entries, err := store.Recent(ctx, flagHistoryLimit)
		if err != nil {
			return err
		}

		if flagHistoryXLSX != "" {
			data, xErr := export.NewService(logger).ExportHistoryXLSX(entries)
			if xErr != nil {
				return xErr
			}
			if wErr := os.WriteFile(flagHistoryXLSX, data, 0o644); wErr != nil {
				return fmt.Errorf("write %s: %w", flagHistoryXLSX, wErr)
			}
			logger.Info("history.xlsx_written", "path", flagHistoryXLSX, "rows", len(entries))
		}

		type row struct {
			Identifier string `json:"identifier"`
			Mode       string `json:"mode"`
			Status     string `json:"status"`
			Result     string `json:"result,omitempty"`
			Error      string `json:"error,omitempty"`
			CreatedAt  string `json:"createdAt"`
		}
		out := make([]row, 0, len(entries))
		for _, e := range entries {
			out = append(out, row{
				Identifier: e.Identifier,
				Mode:       string(e.Mode),
				Status:     string(e.Status),
				Result:     e.Result,
				Error:      e.ErrorMsg,
				CreatedAt:  e.CreatedAt.Format(time.RFC3339),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "maximum entries to show")
	historyCmd.Flags().StringVar(&flagHistoryXLSX, "xlsx", "", "also write the entries to an XLSX file")
}
