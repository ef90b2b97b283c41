package oracle

import (
	"context"
	"regexp"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/orsinium-labs/stopwords"
)

// techKeywords is the fixed vocabulary the fallback tagger scans for when
// the primary oracle is unavailable. It mirrors the original fallback
// extractor's keyword set: common languages, frameworks, and recurring
// session themes.
var techKeywords = []string{
	"python", "javascript", "typescript", "golang", "rust", "java", "ruby",
	"django", "flask", "fastapi", "react", "vue", "angular", "nextjs",
	"pytest", "jest", "testing", "unittest", "debugging", "refactoring",
	"docker", "kubernetes", "terraform", "aws", "gcp", "azure",
	"postgres", "postgresql", "mysql", "sqlite", "redis", "mongodb",
	"graphql", "rest-api", "grpc", "websocket",
	"git", "github", "ci-cd", "deployment", "migration",
	"authentication", "authorization", "security", "performance",
	"concurrency", "async", "caching", "logging", "monitoring",
	"bug-fix", "feature", "architecture", "code-review",
}

var techAutomaton *ahocorasick.Automaton

func init() {
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(techKeywords).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err == nil {
		techAutomaton = automaton
	}
}

// contextualPatterns recognizes a handful of situational tags that a plain
// keyword scan would miss — phrasing that signals "this session was about
// fixing a bug" even when the word "bug" never appears verbatim.
var contextualPatterns = []struct {
	tag string
	re  *regexp.Regexp
}{
	{"bug-fix", regexp.MustCompile(`(?i)\b(fix(ed|ing)?|broken|doesn'?t work|not working|crash(ed|ing)?)\b`)},
	{"testing", regexp.MustCompile(`(?i)\b(test(s|ed|ing)?|assert|coverage)\b`)},
	{"refactoring", regexp.MustCompile(`(?i)\b(refactor(ed|ing)?|clean(ed)? up|simplif(y|ied|ying))\b`)},
}

const maxFallbackTags = 8

// FallbackTagger scans content against a fixed vocabulary and a handful of
// contextual patterns when the primary oracle can't be reached.
type FallbackTagger struct{}

func (FallbackTagger) Tags(_ context.Context, content string) ([]string, error) {
	lower := strings.ToLower(content)

	var found []string
	seen := make(map[string]bool)

	if techAutomaton != nil {
		for _, m := range techAutomaton.FindAllOverlapping([]byte(lower)) {
			tag := techKeywords[m.PatternID]
			if !seen[tag] {
				seen[tag] = true
				found = append(found, tag)
			}
		}
	}

	for _, p := range contextualPatterns {
		if len(found) >= maxFallbackTags {
			break
		}
		if p.re.MatchString(content) && !seen[p.tag] {
			seen[p.tag] = true
			found = append(found, p.tag)
		}
	}

	if len(found) > maxFallbackTags {
		found = found[:maxFallbackTags]
	}
	return found, nil
}

// FallbackSummarizer mines a one-line summary out of the most informative
// line of content (the first line that is not blank, a code fence, or a
// markdown heading) rather than
// attempting real summarization — used when the oracle is unreachable.
type FallbackSummarizer struct{}

func (FallbackSummarizer) Summarize(_ context.Context, content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") || strings.HasPrefix(line, "#") {
			continue
		}
		return clipWords(stripMarkdown(line), 80), nil
	}
	return "", nil
}

var markdownEmphasisRe = regexp.MustCompile(`[*_` + "`" + `]`)

func stripMarkdown(s string) string {
	return markdownEmphasisRe.ReplaceAllString(s, "")
}

func clipWords(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

// FallbackFactExtractor never fabricates facts without the reasoning an LLM
// provides — an empty result is the honest fallback, matching the
// documented degradation path for fact extraction.
type FallbackFactExtractor struct{}

func (FallbackFactExtractor) ExtractFacts(_ context.Context, _ string) ([]ExtractedFact, error) {
	return nil, nil
}

var englishStopwords = stopwords.MustGet("en")

// IsStopword reports whether token is in the English stopword list. The
// fact processor uses it to drop stopword entities; the fallback tagger
// and the pipeline's auto-tagging do not call it.
func IsStopword(token string) bool {
	return englishStopwords.Contains(strings.ToLower(token))
}
