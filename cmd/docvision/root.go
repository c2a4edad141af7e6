package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlaskin/docvision/constants"
	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/extract"
	"github.com/mlaskin/docvision/internal/fetch"
	"github.com/mlaskin/docvision/internal/llm/anthropic"
)

var (
	flagTimeout time.Duration
	flagModel   string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docvision",
	Short: "Extract text or structured fields from documents with a vision model",
	Long: fmt.Sprintf(`docvision sends a document (image or PDF, local path or URL) to a
vision-capable model and returns either its full text as markdown or a
set of requested fields as JSON.

Well-known field names: %s.
Any other field name is passed to the model verbatim.`,
		strings.Join(constants.KnownFields(), ", ")),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(
		&flagTimeout, "timeout", 2*time.Minute, "deadline for a single extraction",
	)
	rootCmd.PersistentFlags().StringVar(
		&flagModel, "model", "", "model name (default: ANTHROPIC_MODEL or the built-in default)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&flagVerbose, "verbose", "v", false, "debug logging",
	)

	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
}

// newLogger logs to stderr so stdout stays parseable output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// buildService wires the extraction pipeline from environment config. A
// missing API credential fails here, before any work starts.
func buildService(logger *slog.Logger) (*extract.Service, *common.Config, error) {
	cfg := common.LoadConfig()
	if flagModel != "" {
		cfg.Model.Model = flagModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	fetcher := fetch.NewFetcher(&http.Client{Timeout: cfg.Fetch.HTTPTimeout}, logger)
	client := anthropic.NewClient(anthropic.Config{
		APIKey:  cfg.Model.APIKey,
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Model,
		Timeout: cfg.Model.Timeout,
	}, logger)
	svc := extract.NewService(logger, extract.Config{
		TextMaxTokens:   cfg.Model.TextTokens,
		FieldsMaxTokens: cfg.Model.FieldsTokens,
	}, fetcher, client)
	return svc, cfg, nil
}
