package rpc

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/marknutter/rlm/internal/archive"
	"github.com/marknutter/rlm/internal/pipeline"
	"github.com/marknutter/rlm/internal/query"
	"github.com/marknutter/rlm/internal/store"
	"github.com/marknutter/rlm/internal/urlsource"
)

// Engine bundles the components RegisterTools wires to RPC tool calls.
type Engine struct {
	DB          store.Storer
	Pipeline    *pipeline.Pipeline
	Surface     *query.Surface
	Coordinator *archive.Coordinator
}

// RegisterTools wires the six tools spec.md §6.3 mandates, one per CLI
// verb, onto s.
func RegisterTools(s *Server, eng Engine) {
	s.Register(ToolSpec{
		Name:        "recall",
		Description: "Search stored memories",
		InputSchema: schema(map[string]string{"query": "string"}, "query"),
		Handler: func(params json.RawMessage) (any, error) {
			var args struct {
				Query string   `json:"query"`
				Tags  []string `json:"tags"`
				Max   int      `json:"max"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, err
			}
			if args.Max <= 0 {
				args.Max = 10
			}
			return eng.Surface.Recall(args.Query, args.Tags, args.Max)
		},
	})

	s.Register(ToolSpec{
		Name:        "remember",
		Description: "Ingest content into the memory store",
		InputSchema: schema(map[string]string{"content": "string"}, "content"),
		Handler: func(params json.RawMessage) (any, error) {
			var args struct {
				Content string   `json:"content"`
				Tags    []string `json:"tags"`
				Summary string   `json:"summary"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, err
			}
			return eng.Pipeline.SmartRemember(context.Background(), pipeline.Request{
				Content:   args.Content,
				Source:    "text",
				Tags:      args.Tags,
				Summary:   args.Summary,
				Timestamp: float64(time.Now().Unix()),
			})
		},
	})

	s.Register(ToolSpec{
		Name:        "remember_url",
		Description: "Fetch and ingest a URL",
		InputSchema: schema(map[string]string{"url": "string"}, "url"),
		Handler: func(params json.RawMessage) (any, error) {
			var args struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, err
			}
			ctx := context.Background()
			content := urlsource.RepoOverview(args.URL)
			sourceName := args.URL + "#overview"
			if !urlsource.IsRepoURL(args.URL) {
				fetched, err := urlsource.FetchPage(ctx, args.URL)
				if err != nil {
					return nil, err
				}
				content, sourceName = fetched, args.URL
			}
			return eng.Pipeline.SmartRemember(ctx, pipeline.Request{
				Content:    content,
				Source:     "url",
				SourceName: sourceName,
				Tags:       []string{"url-source"},
				Timestamp:  float64(time.Now().Unix()),
				Dedup:      true,
			})
		},
	})

	s.Register(ToolSpec{
		Name:        "memory_list",
		Description: "Paginated metadata listing of stored entries",
		InputSchema: schema(map[string]string{}),
		Handler: func(params json.RawMessage) (any, error) {
			var args struct {
				Tags   []string `json:"tags"`
				Offset int      `json:"offset"`
				Limit  int      `json:"limit"`
			}
			if len(params) > 0 {
				if err := json.Unmarshal(params, &args); err != nil {
					return nil, err
				}
			}
			if args.Limit <= 0 {
				args.Limit = 20
			}
			out, total, err := eng.Surface.List(args.Tags, args.Offset, args.Limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"entries": out, "total": total}, nil
		},
	})

	s.Register(ToolSpec{
		Name:        "memory_extract",
		Description: "Entry content with optional chunk projection",
		InputSchema: schema(map[string]string{"entry_id": "string"}, "entry_id"),
		Handler: func(params json.RawMessage) (any, error) {
			var args struct {
				EntryID string `json:"entry_id"`
				ChunkID string `json:"chunk_id"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, err
			}
			if args.ChunkID == "" {
				return eng.Surface.Extract(args.EntryID)
			}
			entry, err := eng.DB.GetEntry(args.EntryID)
			if err != nil {
				return nil, err
			}
			for _, c := range entry.Chunks {
				if c.ChunkID == args.ChunkID {
					return entry.Content[c.StartChar:c.EndChar], nil
				}
			}
			return nil, &dispatchError{code: codeInvalidParams, msg: "no such chunk: " + args.ChunkID}
		},
	})

	s.Register(ToolSpec{
		Name:        "forget",
		Description: "Delete one episode and its facts",
		InputSchema: schema(map[string]string{"entry_id": "string"}, "entry_id"),
		Handler: func(params json.RawMessage) (any, error) {
			var args struct {
				EntryID string `json:"entry_id"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, err
			}
			deleted, err := eng.DB.DeleteEntry(args.EntryID)
			if err != nil {
				return nil, err
			}
			return map[string]bool{"deleted": deleted}, nil
		},
	})
}

func schema(properties map[string]string, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, typ := range properties {
		props[name] = map[string]string{"type": typ}
	}
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 && !(len(required) == 1 && strings.TrimSpace(required[0]) == "") {
		s["required"] = required
	}
	return s
}
