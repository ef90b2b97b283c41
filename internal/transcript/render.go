package transcript

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Normalize reads the session log at path, auto-detects its schema, and
// returns the compressed, role-tagged transcript text described in
// spec.md §4.2.
func Normalize(path string, logger zerolog.Logger) (string, error) {
	messages, err := parseFile(path, logger)
	if err != nil {
		return "", err
	}
	messages = compress(messages)
	return render(path, messages), nil
}

func render(path string, messages []Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session Transcript (%d messages)\n", len(messages))
	fmt.Fprintf(&b, "# Source: %s\n\n", path)

	for _, m := range messages {
		label := "User"
		if m.Role == RoleAssistant {
			label = "Claude"
		}
		stamp := "--:--"
		if !m.Timestamp.IsZero() {
			stamp = m.Timestamp.Format("15:04")
		}
		fmt.Fprintf(&b, "[%s] %s:\n", stamp, label)
		if m.Text != "" {
			b.WriteString(m.Text)
			b.WriteByte('\n')
		}
		for _, tc := range m.ToolCalls {
			b.WriteString(toolCallSummary(tc))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
