package transcript

import "regexp"

// oraclePromptIndicators are phrases that show up in the instructional
// prompts sent to extraction/tagging oracles. A user-role block matching
// at least two of these, and long enough to plausibly be a prompt rather
// than a question, gets dropped as injected machinery rather than
// something a person actually typed (pass 3).
var oraclePromptIndicators = []string{
	"respond only with",
	"respond with valid json",
	"return a json array",
	"return only json",
	"do not include any other text",
	"you are analyzing",
	"you are a fact extraction",
	"extract facts from",
	"confidence score between",
	"format your response as",
}

const oraclePromptMinLen = 500
const oraclePromptMinIndicators = 2

// trivialConfirmations are short user replies that carry no content beyond
// "go ahead" — collapsed to a single marker (pass 6) so a transcript isn't
// padded with dozens of one-word acknowledgements.
var trivialConfirmations = map[string]bool{
	"yes": true, "yep": true, "yup": true, "yeah": true, "ok": true, "okay": true,
	"sure": true, "go ahead": true, "sounds good": true, "lgtm": true,
	"looks good": true, "please proceed": true, "proceed": true, "continue": true,
	"do it": true, "sure thing": true, "correct": true, "right": true,
	"that's right": true, "thanks": true, "thank you": true, "great": true,
	"perfect": true, "cool": true, "nice": true, "k": true, "kk": true,
	"go for it": true, "approved": true,
}

// assistantBoilerplateRe matches leading phrases stripped from the front
// of assistant turns (pass 7) — throat-clearing that adds length without
// adding information.
var assistantBoilerplateRe = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(great|sure|okay|ok|certainly|absolutely)[!,.]?\s+`),
	regexp.MustCompile(`(?i)^i'?ll\s+(go ahead and\s+)?`),
	regexp.MustCompile(`(?i)^let me\s+`),
	regexp.MustCompile(`(?i)^here'?s\s+(what|how|the)\s+`),
}

// terminalOutputMarkers flag a user message as pasted shell output rather
// than prose (pass 8): when enough lines look like this, the block is
// compressible to a head/tail snippet.
var terminalOutputMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^\$\s`),
	regexp.MustCompile(`^[>#]\s`),
	regexp.MustCompile(`^\s*at\s+\S+\(`),
	regexp.MustCompile(`^(PASS|FAIL|ok|---|\+\+\+|error:|Error:|warning:)`),
	regexp.MustCompile(`^\s*\d+\s*\|`),
	regexp.MustCompile(`^(Traceback|panic:|goroutine \d+)`),
}

const terminalMinLines = 10
const terminalMinFraction = 0.3

var systemReminderRe = regexp.MustCompile(`(?s)<system-reminder>.*?</system-reminder>`)
var commandMessageRe = regexp.MustCompile(`(?s)<command-message>(.*?)</command-message>\s*<command-name>(.*?)</command-name>(?:\s*<command-args>(.*?)</command-args>)?`)

// toolOneLiners gives a handful of common tools a compact, informative
// one-line summary instead of dumping their full input (pass 4).
var toolOneLiners = map[string]func(input map[string]interface{}) string{
	"Bash": func(in map[string]interface{}) string {
		if cmd, ok := in["command"].(string); ok {
			return "[Ran: " + truncateOneLine(cmd, 120) + "]"
		}
		return "[Ran a shell command]"
	},
	"Read": func(in map[string]interface{}) string {
		if p, ok := in["file_path"].(string); ok {
			return "[Read " + p + "]"
		}
		return "[Read a file]"
	},
	"Write": func(in map[string]interface{}) string {
		if p, ok := in["file_path"].(string); ok {
			return "[Wrote " + p + "]"
		}
		return "[Wrote a file]"
	},
	"Edit": func(in map[string]interface{}) string {
		if p, ok := in["file_path"].(string); ok {
			return "[Edited " + p + "]"
		}
		return "[Edited a file]"
	},
	"Task": func(in map[string]interface{}) string {
		if d, ok := in["description"].(string); ok {
			return "[Launched subagent: " + truncateOneLine(d, 80) + "]"
		}
		return "[Launched a subagent]"
	},
	"Grep": func(in map[string]interface{}) string {
		if p, ok := in["pattern"].(string); ok {
			return "[Searched for: " + truncateOneLine(p, 80) + "]"
		}
		return "[Searched the codebase]"
	},
	"Glob": func(in map[string]interface{}) string {
		if p, ok := in["pattern"].(string); ok {
			return "[Listed files matching: " + p + "]"
		}
		return "[Listed files]"
	},
}

func truncateOneLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
