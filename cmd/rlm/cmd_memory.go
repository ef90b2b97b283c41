package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	memoryListTagsCSV string
	memoryListOffset  int
	memoryListLimit   int
)

var memoryListCmd = &cobra.Command{
	Use:   "memory-list",
	Short: "List stored memory entries, paginated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var tags []string
		if memoryListTagsCSV != "" {
			tags = splitCSV(memoryListTagsCSV)
		}
		out, total, err := current.surface.List(tags, memoryListOffset, memoryListLimit)
		if err != nil {
			return err
		}
		fmt.Println(out)
		fmt.Printf("(%d total)\n", total)
		return nil
	},
}

func init() {
	memoryListCmd.Flags().StringVar(&memoryListTagsCSV, "tags", "", "comma-separated tag filter")
	memoryListCmd.Flags().IntVar(&memoryListOffset, "offset", 0, "pagination offset")
	memoryListCmd.Flags().IntVar(&memoryListLimit, "limit", 20, "page size")
}

var (
	memoryExtractChunkID string
	memoryExtractGrep    string
	memoryExtractContext int
)

var memoryExtractCmd = &cobra.Command{
	Use:   "memory-extract entry_id",
	Short: "Print the content of one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryID := args[0]

		if memoryExtractGrep != "" {
			snippet, err := current.db.Snippet(memoryExtractGrep, entryID, memoryExtractContext)
			if err != nil {
				return err
			}
			if snippet == "" {
				fmt.Println("no match")
				return nil
			}
			fmt.Println(boundedOutput(snippet))
			return nil
		}

		if memoryExtractChunkID != "" {
			return printChunk(entryID, memoryExtractChunkID)
		}

		out, err := current.surface.Extract(entryID)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func printChunk(entryID, chunkID string) error {
	entry, err := current.db.GetEntry(entryID)
	if err != nil {
		return err
	}
	for _, c := range entry.Chunks {
		if c.ChunkID == chunkID {
			fmt.Println(boundedOutput(entry.Content[c.StartChar:c.EndChar]))
			return nil
		}
	}
	return fmt.Errorf("memory-extract: no chunk %s on entry %s", chunkID, entryID)
}

func init() {
	memoryExtractCmd.Flags().StringVar(&memoryExtractChunkID, "chunk-id", "", "print only this chunk's offset range")
	memoryExtractCmd.Flags().StringVar(&memoryExtractGrep, "grep", "", "pattern to project a snippet around")
	memoryExtractCmd.Flags().IntVar(&memoryExtractContext, "context", 64, "tokens of context around a grep match")
}

var memoryTagsCmd = &cobra.Command{
	Use:   "memory-tags",
	Short: "List tag frequencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := current.db.GetStats()
		if err != nil {
			return err
		}
		if len(stats.TopTags) == 0 {
			fmt.Println("no tags recorded")
			return nil
		}
		for _, t := range stats.TopTags {
			fmt.Printf("%s  %d\n", t.Tag, t.Count)
		}
		return nil
	},
}
