package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget entry_id",
	Short: "Delete one episode (cascades to its facts)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleted, err := current.db.DeleteEntry(args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("forget: no entry %s", args[0])
		}
		fmt.Printf("forgot %s\n", args[0])
		return nil
	},
}
