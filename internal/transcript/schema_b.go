package transcript

import (
	"encoding/json"

	"github.com/marknutter/rlm/internal/textutil"
)

// Schema B opens with a type=session header record, then carries turns as
// type=message records whose message.role is user/assistant/toolResult and
// whose content blocks are text/toolCall/thinking. Bookkeeping records
// (model_change, thinking_level_change, custom) are interleaved and carry
// no narration — they're ignored outright.
type schemaBRecord struct {
	Type    string         `json:"type"`
	Message schemaBMessage `json:"message"`
}

type schemaBMessage struct {
	Role    string         `json:"role"`
	Content []schemaBBlock `json:"content"`
}

type schemaBBlock struct {
	Type  string                 `json:"type"`
	Text  string                 `json:"text"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// parseSchemaBLine parses a single Schema B JSONL record into a Message.
// thinking blocks are dropped: they're the model's scratch space, not
// something either party said.
func parseSchemaBLine(raw []byte) (Message, bool, error) {
	var rec schemaBRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Message{}, false, err
	}
	if rec.Type != "message" {
		return Message{}, false, nil
	}

	role, ok := roleFromSchemaB(rec.Message.Role)
	if !ok {
		return Message{}, false, nil
	}

	builder := textutil.GetBuilder()
	defer textutil.PutBuilder(builder)

	var calls []ToolCall
	for _, b := range rec.Message.Content {
		switch b.Type {
		case "text":
			if b.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteByte('\n')
			}
			builder.WriteString(b.Text)
		case "toolCall":
			calls = append(calls, ToolCall{Name: b.Name, Input: b.Input})
		case "thinking":
			// dropped: scratch space, not narration
		}
	}

	msg := Message{Role: role, Text: builder.String(), ToolCalls: calls}
	if msg.Text == "" && len(msg.ToolCalls) == 0 {
		return Message{}, false, nil
	}
	return msg, true, nil
}

// roleFromSchemaB maps message.role to a narration Role. toolResult carries
// tool output, not something either party said, so it's excluded here the
// same way tool_result blocks are dropped in Schema A.
func roleFromSchemaB(role string) (Role, bool) {
	switch role {
	case "user":
		return RoleUser, true
	case "assistant":
		return RoleAssistant, true
	default:
		return "", false
	}
}
