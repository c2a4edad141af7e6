package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlaskin/docvision/internal/common"
)

var textCmd = &cobra.Command{
	Use:   "text <path-or-url>",
	Short: "Extract all text from a document as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		svc, _, err := buildService(logger)
		if err != nil {
			return err
		}

		ctx, cancel := common.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		text, err := svc.ExtractText(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}
