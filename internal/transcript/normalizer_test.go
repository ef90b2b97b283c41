package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, lines []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(joinLines(lines)), 0o644))
	return path
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func TestNormalizeSchemaAPlainStrings(t *testing.T) {
	path := writeLog(t, []string{
		`{"type":"user","timestamp":"2024-01-01T10:00:00Z","message":{"role":"user","content":"how do I run the tests?"}}`,
		`{"type":"assistant","timestamp":"2024-01-01T10:00:05Z","message":{"role":"assistant","content":"Run go test ./..."}}`,
	})

	out, err := Normalize(path, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, out, "how do I run the tests?")
	require.Contains(t, out, "Run go test ./...")
	require.Contains(t, out, "Claude:")
	require.Contains(t, out, "User:")
}

func TestNormalizeSchemaAToolUse(t *testing.T) {
	path := writeLog(t, []string{
		`{"type":"assistant","timestamp":"2024-01-01T10:00:00Z","message":{"role":"assistant","content":[{"type":"text","text":"Let me check."},{"type":"tool_use","name":"Bash","input":{"command":"go test ./..."}}]}}`,
		`{"type":"user","timestamp":"2024-01-01T10:00:01Z","message":{"role":"user","content":[{"type":"tool_result","content":"ok"}]}}`,
	})

	out, err := Normalize(path, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, out, "[Ran: go test ./...]")
	require.NotContains(t, out, "tool_result")
}

func TestNormalizeSchemaBDetectionAndThinkingOmission(t *testing.T) {
	path := writeLog(t, []string{
		`{"type":"session","version":3}`,
		`{"type":"model_change","model":"x"}`,
		`{"type":"message","message":{"role":"assistant","content":[{"type":"thinking","text":"pondering..."},{"type":"text","text":"Done."},{"type":"toolCall","name":"Write","input":{"file_path":"/tmp/a.go"}}]}}`,
	})

	out, err := Normalize(path, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, out, "Done.")
	require.Contains(t, out, "[Wrote /tmp/a.go]")
	require.NotContains(t, out, "pondering")
}

func TestNormalizeCollapsesTrivialConfirmations(t *testing.T) {
	path := writeLog(t, []string{
		`{"type":"assistant","message":{"role":"assistant","content":"Should I proceed?"}}`,
		`{"type":"user","message":{"role":"user","content":"yes"}}`,
	})

	out, err := Normalize(path, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, out, "[User confirmed]")
}

func TestNormalizeDedupsAssistantStreaming(t *testing.T) {
	path := writeLog(t, []string{
		`{"type":"assistant","message":{"role":"assistant","content":"I'll"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"I'll check the file"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"I'll check the file now."}}`,
	})

	out, err := Normalize(path, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, out, "heck the file now.")
}

func TestNormalizeToolOnlyTurnCompresses(t *testing.T) {
	path := writeLog(t, []string{
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","name":"Grep","input":{"pattern":"foo"}},{"type":"tool_use","name":"Glob","input":{"pattern":"*.go"}}]}}`,
	})

	out, err := Normalize(path, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, out, "[Ran 2 tools: Grep, Glob]")
	require.NotContains(t, out, "Searched for: foo")
}

func TestNormalizeCollapsesLongToolOnlyRun(t *testing.T) {
	path := writeLog(t, []string{
		`{"type":"assistant","message":{"role":"assistant","content":[` +
			`{"type":"tool_use","name":"Grep","input":{"pattern":"a"}},` +
			`{"type":"tool_use","name":"Grep","input":{"pattern":"b"}},` +
			`{"type":"tool_use","name":"Grep","input":{"pattern":"c"}},` +
			`{"type":"tool_use","name":"Grep","input":{"pattern":"d"}},` +
			`{"type":"tool_use","name":"Grep","input":{"pattern":"e"}}]}}`,
	})

	out, err := Normalize(path, zerolog.Nop())
	require.NoError(t, err)
	require.Contains(t, out, "[Ran 5 tools: Grep, Grep, Grep, Grep, Grep]")
}
