package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marknutter/rlm/internal/rpc"
)

var toolServerCmd = &cobra.Command{
	Use:   "tool-server",
	Short: "Run the JSON-RPC agent tool surface over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := rpc.NewServer(current.logger)
		rpc.RegisterTools(s, rpc.Engine{
			DB:          current.db,
			Pipeline:    current.pipeline,
			Surface:     current.surface,
			Coordinator: current.coordinator,
		})
		return s.Serve(os.Stdin, os.Stdout)
	},
}
