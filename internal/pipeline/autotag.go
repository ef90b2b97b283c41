package pipeline

import (
	"regexp"
	"sort"
	"strings"
)

// autoTagStopwords is a fixed stoplist of about 100 words covering function words
// that would otherwise dominate frequency-based tagging — the same role
// the original's STOP_WORDS set plays ahead of oracle tagging.
var autoTagStopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		the a an and or but if then else for while to of in on at by with
		from as is are was were be been being have has had do does did
		will would should could can may might must shall this that these
		those i you he she it we they them his her its our your their
		not no yes so than too very just about into over under again
		further here there when where why how all any both each few more
		most other some such only own same what which who whom
	`) {
		autoTagStopwords[w] = true
	}
}

var tokenPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_]{2,}`)

const (
	autoTagMaxCount  = 8
	autoTagMinLen    = 4
	autoTagMinOccurs = 2
)

// AutoTags computes a frequency-based tag set from content when no oracle
// tag result is available: tokens at least 4 characters long, appearing
// at least twice, not in the stoplist, most frequent first, capped at 8.
func AutoTags(content string) []string {
	counts := make(map[string]int)
	for _, tok := range tokenPattern.FindAllString(content, -1) {
		tok = strings.ToLower(tok)
		if len(tok) < autoTagMinLen || autoTagStopwords[tok] {
			continue
		}
		counts[tok]++
	}

	type pair struct {
		tok   string
		count int
	}
	var candidates []pair
	for tok, count := range counts {
		if count >= autoTagMinOccurs {
			candidates = append(candidates, pair{tok, count})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].tok < candidates[j].tok
	})

	if len(candidates) > autoTagMaxCount {
		candidates = candidates[:autoTagMaxCount]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.tok
	}
	return out
}

var markdownHeadingRe = regexp.MustCompile(`^#+\s*`)
var markdownEmphasisRe = regexp.MustCompile("[*_`]")

const autoSummaryMaxLen = 80

// AutoSummary picks the first non-blank, non-fence line of content,
// strips markdown decoration, and clips it to a word boundary — the
// fallback used when no oracle summary is available.
func AutoSummary(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = markdownHeadingRe.ReplaceAllString(line, "")
		line = markdownEmphasisRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return clipAtWordBoundary(line, autoSummaryMaxLen)
	}
	return ""
}

func clipAtWordBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
