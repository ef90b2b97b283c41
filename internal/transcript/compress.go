package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// compress runs the ordered compression passes over a parsed Message
// stream. Passes 1 (content extraction) and the thinking/tool_result drop
// already happened in the schema parsers; everything from here on
// operates on the common stream.
func compress(messages []Message) []Message {
	messages = stripEmbeddedNoise(messages)
	messages = rejectOraclePrompts(messages)
	messages = summarizeToolCalls(messages)
	messages = dedupAssistantStreaming(messages)
	messages = collapseConfirmations(messages)
	messages = stripAssistantBoilerplate(messages)
	messages = compressTerminalOutput(messages)
	messages = compressToolOnly(messages)
	return messages
}

// pass 2: strip <system-reminder>...</system-reminder> wrappers entirely
// and unwrap <command-message>/<command-name>/<command-args> into a plain
// "/cmd args" form that reads like what the user actually typed.
func stripEmbeddedNoise(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		text := systemReminderRe.ReplaceAllString(m.Text, "")
		text = commandMessageRe.ReplaceAllStringFunc(text, func(match string) string {
			sub := commandMessageRe.FindStringSubmatch(match)
			name := strings.TrimSpace(sub[2])
			args := ""
			if len(sub) > 3 {
				args = strings.TrimSpace(sub[3])
			}
			if args != "" {
				return "/" + name + " " + args
			}
			return "/" + name
		})
		m.Text = strings.TrimSpace(text)
		if m.Text == "" && len(m.ToolCalls) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// pass 3: drop user-role blocks that are actually instructional prompts
// injected by an oracle call rather than something a person typed.
func rejectOraclePrompts(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleUser && looksLikeOraclePrompt(m.Text) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func looksLikeOraclePrompt(text string) bool {
	if len(text) < oraclePromptMinLen {
		return false
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, indicator := range oraclePromptIndicators {
		if strings.Contains(lower, indicator) {
			hits++
		}
	}
	return hits >= oraclePromptMinIndicators
}

// pass 4: replace each tool call's raw input with a one-line summary.
func summarizeToolCalls(messages []Message) []Message {
	for i := range messages {
		for j, tc := range messages[i].ToolCalls {
			if f, ok := toolOneLiners[tc.Name]; ok {
				messages[i].ToolCalls[j].Input = map[string]interface{}{"_summary": f(tc.Input)}
			} else {
				messages[i].ToolCalls[j].Input = map[string]interface{}{"_summary": "[Tool: " + tc.Name + "]"}
			}
		}
	}
	return messages
}

func toolCallSummary(tc ToolCall) string {
	if v, ok := tc.Input["_summary"].(string); ok {
		return v
	}
	return "[Tool: " + tc.Name + "]"
}

// pass 5: assistant turns that arrive as incremental streaming deltas show
// up as consecutive assistant records with growing prefixes. Collapse a
// run of consecutive assistant records down to the longest one.
func dedupAssistantStreaming(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	i := 0
	for i < len(messages) {
		if messages[i].Role != RoleAssistant {
			out = append(out, messages[i])
			i++
			continue
		}
		longest := messages[i]
		var allCalls []ToolCall
		allCalls = append(allCalls, messages[i].ToolCalls...)
		j := i + 1
		for j < len(messages) && messages[j].Role == RoleAssistant {
			allCalls = append(allCalls, messages[j].ToolCalls...)
			if len(messages[j].Text) > len(longest.Text) {
				longest = messages[j]
			}
			j++
		}
		longest.ToolCalls = allCalls
		out = append(out, longest)
		i = j
	}
	return out
}

// pass 6: collapse trivial one-word user confirmations to a fixed marker.
func collapseConfirmations(messages []Message) []Message {
	for i := range messages {
		if messages[i].Role != RoleUser {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(strings.Trim(messages[i].Text, ".!")))
		if trivialConfirmations[normalized] {
			messages[i].Text = "[User confirmed]"
		}
	}
	return messages
}

// pass 7: strip boilerplate leading phrases from assistant turns.
func stripAssistantBoilerplate(messages []Message) []Message {
	for i := range messages {
		if messages[i].Role != RoleAssistant {
			continue
		}
		text := messages[i].Text
		for _, re := range assistantBoilerplateRe {
			text = re.ReplaceAllString(text, "")
		}
		if text != "" {
			messages[i].Text = strings.ToUpper(text[:1]) + text[1:]
		}
	}
	return messages
}

// pass 8: pasted terminal/log output is compressed to its first and last
// few lines once it's long enough and terminal-shaped enough to be noise
// rather than something worth preserving in full.
func compressTerminalOutput(messages []Message) []Message {
	for i := range messages {
		if messages[i].Role != RoleUser {
			continue
		}
		messages[i].Text = maybeCompressTerminal(messages[i].Text)
	}
	return messages
}

func maybeCompressTerminal(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < terminalMinLines {
		return text
	}

	terminalLike := 0
	for _, line := range lines {
		for _, re := range terminalOutputMarkers {
			if re.MatchString(line) {
				terminalLike++
				break
			}
		}
	}
	if float64(terminalLike)/float64(len(lines)) < terminalMinFraction {
		return text
	}

	head := lines[:3]
	tail := lines[len(lines)-3:]
	omitted := len(lines) - 6
	var b strings.Builder
	b.WriteString(strings.Join(head, "\n"))
	b.WriteString("\n... [" + strconv.Itoa(omitted) + " lines omitted] ...\n")
	b.WriteString(strings.Join(tail, "\n"))
	return b.String()
}

// toolOnlyCollapseThreshold is the number of tool calls a turn with no
// text must exceed to collapse; at 0, any text-less turn with at least one
// tool call collapses to a single count summary.
const toolOnlyCollapseThreshold = 0

// pass 9: a turn consisting only of tool calls and no text compresses to
// a single summary line naming the tools involved, instead of one
// one-liner per tool.
func compressToolOnly(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Text == "" && len(m.ToolCalls) > toolOnlyCollapseThreshold {
			names := make([]string, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				names[i] = tc.Name
			}
			m.Text = fmt.Sprintf("[Ran %d tools: %s]", len(m.ToolCalls), strings.Join(names, ", "))
			m.ToolCalls = nil
		}
		out = append(out, m)
	}
	return out
}
