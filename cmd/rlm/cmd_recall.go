package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	recallTagsCSV string
	recallMax     int
	recallDeep    bool
)

var recallCmd = &cobra.Command{
	Use:   "recall [query]",
	Short: "Search stored memories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var tags []string
		if recallTagsCSV != "" {
			tags = splitCSV(recallTagsCSV)
		}
		if recallDeep {
			current.logger.Debug().Msg("recall: --deep has no effect on full-text recall")
		}
		out, err := current.surface.Recall(args[0], tags, recallMax)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	recallCmd.Flags().StringVar(&recallTagsCSV, "tags", "", "comma-separated tag filter")
	recallCmd.Flags().IntVar(&recallMax, "max", 10, "maximum results")
	recallCmd.Flags().BoolVar(&recallDeep, "deep", false, "accepted; has no effect on full-text recall")
}
