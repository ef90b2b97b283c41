// Package transcript implements the format-agnostic session-log parser and
// compressor described in spec.md §4.2: detect one of two on-disk JSONL
// schemas, parse into a common intermediate stream, then run the nine
// ordered compression passes that produce the final role-tagged transcript.
package transcript

import "time"

// Role is the speaker attribution used in the rendered transcript.
type Role string

const (
	RoleUser      Role = "User"
	RoleAssistant Role = "Claude"
)

// ToolCall is one tool invocation extracted from a record's content blocks.
// Results and thinking blocks never reach this type — they're dropped in
// content extraction (pass 1).
type ToolCall struct {
	Name  string
	Input map[string]interface{}
}

// Message is the common intermediate representation both schema parsers
// produce: (role, timestamp, text_blocks, tool_calls) per spec.md §9.
type Message struct {
	Role      Role
	Timestamp time.Time
	Text      string // joined text blocks, newline-separated
	ToolCalls []ToolCall
}
