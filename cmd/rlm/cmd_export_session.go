package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marknutter/rlm/internal/transcript"
)

var exportSessionOutput string

var exportSessionCmd = &cobra.Command{
	Use:   "export-session session_file",
	Short: "Run the transcript normalizer and print or write the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rendered, err := transcript.Normalize(args[0], current.logger)
		if err != nil {
			return err
		}
		// Deliberately unbounded (spec.md §6.1): this feeds downstream
		// pipelines, not a terminal.
		if exportSessionOutput == "" {
			fmt.Println(rendered)
			return nil
		}
		return os.WriteFile(exportSessionOutput, []byte(rendered), 0o644)
	},
}

func init() {
	exportSessionCmd.Flags().StringVar(&exportSessionOutput, "output", "", "write the rendered transcript to this path instead of stdout")
}
