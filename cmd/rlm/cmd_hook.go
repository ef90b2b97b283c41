package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marknutter/rlm/internal/archive"
)

// hookPayload is the JSON object lifecycle hooks read from stdin
// (spec.md §6.2). transcript_path is authoritative when present; cwd
// drives project-name derivation and the mtime-fallback scan.
type hookPayload struct {
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Lifecycle-event entry points invoked by a host agent runtime",
}

var hookPreCompactionCmd = &cobra.Command{
	Use:  "pre-compaction",
	Args: cobra.NoArgs,
	RunE: runHook(archive.TriggerPreCompaction),
}

var hookSessionEndCmd = &cobra.Command{
	Use:  "session-end",
	Args: cobra.NoArgs,
	RunE: runHook(archive.TriggerSessionEnd),
}

func init() {
	hookCmd.AddCommand(hookPreCompactionCmd, hookSessionEndCmd)
}

// runHook builds the RunE for one hook entry point. Hooks must never fail
// the host runtime's lifecycle: every error is logged to stderr and the
// command always returns nil, so main() always exits 0.
func runHook(trigger archive.TriggerKind) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var payload hookPayload
		raw, err := io.ReadAll(os.Stdin)
		if err == nil && len(raw) > 0 {
			_ = json.Unmarshal(raw, &payload)
		}

		ev := archive.Event{Trigger: trigger, SessionPath: payload.TranscriptPath, ProjectDir: payload.Cwd}
		result, err := current.coordinator.Archive(cmd.Context(), ev)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rlm hook:", err)
			return nil
		}
		if result.Skipped {
			fmt.Fprintln(os.Stderr, "rlm hook: skipped:", result.Reason)
			return nil
		}
		fmt.Fprintln(os.Stderr, "rlm hook: archived as", result.EntryID)
		return nil
	}
}
