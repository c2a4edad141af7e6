package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlaskin/docvision/constants"
	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/export"
)

var (
	flagBatchFields   []string
	flagBatchParallel int
	flagBatchXLSX     string
)

var batchCmd = &cobra.Command{
	Use:   "batch <path-or-url> [<path-or-url> ...]",
	Short: "Extract structured fields from several documents concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		svc, _, err := buildService(logger)
		if err != nil {
			return err
		}

		ctx, cancel := common.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		results := svc.ExtractStructuredBatch(ctx, args, flagBatchFields, flagBatchParallel)

		if flagBatchXLSX != "" {
			rows := make([]map[string]any, 0, len(results))
			for _, res := range results {
				if res.Err == "" {
					rows = append(rows, res.Fields)
				}
			}
			names := flagBatchFields
			if len(names) == 0 {
				names = constants.DefaultFields
			}
			data, xErr := export.NewService(logger).ExportFieldsXLSX(names, rows)
			if xErr != nil {
				return xErr
			}
			if wErr := os.WriteFile(flagBatchXLSX, data, 0o644); wErr != nil {
				return fmt.Errorf("write %s: %w", flagBatchXLSX, wErr)
			}
			logger.Info("batch.xlsx_written", "path", flagBatchXLSX, "rows", len(rows))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	batchCmd.Flags().StringArrayVar(&flagBatchFields, "field", nil, "field to extract (repeatable; defaults to the built-in set)")
	batchCmd.Flags().IntVar(&flagBatchParallel, "parallel", 4, "maximum concurrent extractions")
	batchCmd.Flags().StringVar(&flagBatchXLSX, "xlsx", "", "also write successful results to an XLSX file")
}
