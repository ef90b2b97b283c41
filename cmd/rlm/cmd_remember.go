package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marknutter/rlm/internal/archive"
	"github.com/marknutter/rlm/internal/pipeline"
	"github.com/marknutter/rlm/internal/transcript"
	"github.com/marknutter/rlm/internal/urlsource"
)

var (
	rememberFile    string
	rememberURL     string
	rememberStdin   bool
	rememberTagsCSV string
	rememberSummary string
	rememberDepth   int
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content]",
	Short: "Ingest content into the memory store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRemember,
}

func init() {
	rememberCmd.Flags().StringVar(&rememberFile, "file", "", "read content from this file path")
	rememberCmd.Flags().StringVar(&rememberURL, "url", "", "fetch content from this URL")
	rememberCmd.Flags().BoolVar(&rememberStdin, "stdin", false, "read content from stdin")
	rememberCmd.Flags().StringVar(&rememberTagsCSV, "tags", "", "comma-separated tags (skips the tag oracle)")
	rememberCmd.Flags().StringVar(&rememberSummary, "summary", "", "explicit summary (skips the summary oracle)")
	rememberCmd.Flags().IntVar(&rememberDepth, "depth", 1, "accepted; has no effect (a repo --url is stored as one overview episode)")
}

func runRemember(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	inline := ""
	if len(args) == 1 {
		inline = args[0]
	}
	sources := 0
	for _, set := range []bool{inline != "", rememberFile != "", rememberURL != "", rememberStdin} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("remember: exactly one input source allowed")
	}

	if sources == 0 {
		return runRememberArchiveCurrentSession(ctx)
	}

	switch {
	case rememberURL != "":
		return runRememberURL(ctx, rememberURL)
	case rememberFile != "":
		return rememberFileOrSession(ctx, rememberFile)
	case rememberStdin:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		return ingest(ctx, string(data), "stdin", "")
	default:
		return ingest(ctx, inline, "text", "")
	}
}

func runRememberArchiveCurrentSession(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	result, err := current.coordinator.Archive(ctx, archive.Event{Trigger: archive.TriggerSessionEnd, ProjectDir: cwd})
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Println(result.Reason)
		return nil
	}
	fmt.Println(boundedOutput(fmt.Sprintf("archived session as %s", result.EntryID)))
	return nil
}

// rememberFileOrSession normalizes .jsonl session logs before ingestion
// and reads everything else as plain text (spec.md §6.1: ".jsonl files
// are normalized first").
func rememberFileOrSession(ctx context.Context, path string) error {
	if strings.HasSuffix(path, ".jsonl") {
		rendered, err := transcript.Normalize(path, current.logger)
		if err != nil {
			return err
		}
		return ingest(ctx, rendered, "file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return ingest(ctx, string(data), "file", path)
}

func runRememberURL(ctx context.Context, rawURL string) error {
	if urlsource.IsRepoURL(rawURL) {
		overview := urlsource.RepoOverview(rawURL)
		if err := ingestTagged(ctx, overview, "url", rawURL+"#overview", []string{"url-source"}); err != nil {
			return err
		}
		fmt.Println(boundedOutput("stored repo overview for " + rawURL))
		return nil
	}

	body, err := urlsource.FetchPage(ctx, rawURL)
	if err != nil {
		return err
	}
	return ingestTagged(ctx, body, "url", rawURL, []string{"url-source"})
}

func ingest(ctx context.Context, content, source, sourceName string) error {
	return ingestTagged(ctx, content, source, sourceName, nil)
}

func ingestTagged(ctx context.Context, content, source, sourceName string, extraTags []string) error {
	var tags []string
	if rememberTagsCSV != "" {
		tags = splitCSV(rememberTagsCSV)
	}
	tags = append(tags, extraTags...)

	req := pipeline.Request{
		Content:    content,
		Source:     source,
		SourceName: sourceName,
		Tags:       tags,
		Summary:    rememberSummary,
		Timestamp:  float64(time.Now().Unix()),
		Dedup:      sourceName != "",
	}

	result, err := current.pipeline.SmartRemember(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(boundedOutput(fmt.Sprintf("remembered as %s (tags: %s)", result.EntryID, strings.Join(result.Tags, ", "))))
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
