package transcript

import (
	"encoding/json"
	"time"

	"github.com/marknutter/rlm/internal/textutil"
)

// Schema A is the flat JSONL form: one record per turn, type is the role
// directly (user/assistant/...), and message.content is either a plain
// string or an array of typed blocks (text/tool_use/tool_result).
type schemaARecord struct {
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Message   schemaAMessage `json:"message"`
}

type schemaAMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type schemaABlock struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text"`
	Name    string                 `json:"name"`
	Input   map[string]interface{} `json:"input"`
	Content interface{}            `json:"content"`
}

// parseSchemaALine parses a single Schema A JSONL record into a Message.
// Records whose role isn't user/assistant (no role at all, or a record the
// harness doesn't actually emit as a turn) are skipped by returning ok=false.
func parseSchemaALine(raw []byte) (Message, bool, error) {
	var rec schemaARecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Message{}, false, err
	}

	role, ok := roleFromSchemaA(rec.Type)
	if !ok {
		return Message{}, false, nil
	}

	msg := Message{
		Role:      role,
		Timestamp: parseTimestamp(rec.Timestamp),
	}

	text, calls := extractSchemaAContent(rec.Message.Content)
	msg.Text = text
	msg.ToolCalls = calls

	if msg.Text == "" && len(msg.ToolCalls) == 0 {
		return Message{}, false, nil
	}
	return msg, true, nil
}

func roleFromSchemaA(t string) (Role, bool) {
	switch t {
	case "user":
		return RoleUser, true
	case "assistant":
		return RoleAssistant, true
	default:
		return "", false
	}
}

// extractSchemaAContent handles both shapes content can take: a bare string,
// or an array of {type: text|tool_use|tool_result} blocks. tool_result
// blocks are dropped entirely (pass 1, content extraction) — their text
// lives only to help the model; it isn't narration worth keeping.
func extractSchemaAContent(raw json.RawMessage) (string, []ToolCall) {
	if len(raw) == 0 {
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	var blocks []schemaABlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", nil
	}

	builder := textutil.GetBuilder()
	defer textutil.PutBuilder(builder)

	var calls []ToolCall
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteByte('\n')
			}
			builder.WriteString(b.Text)
		case "tool_use":
			calls = append(calls, ToolCall{Name: b.Name, Input: b.Input})
		case "tool_result":
			// dropped: results aren't narration
		}
	}
	return builder.String(), calls
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
