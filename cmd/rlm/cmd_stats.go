package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate store statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := current.surface.Stats()
		if err != nil {
			return err
		}
		fmt.Print(boundedOutput(out))
		return nil
	},
}
