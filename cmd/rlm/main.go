// Command rlm is the command-line surface over the memory engine
// (spec.md §6.1): remember, recall, listing, extraction, fact queries,
// statistics, session export, and the lifecycle hook entry points.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rlm:", err)
		os.Exit(1)
	}
}
