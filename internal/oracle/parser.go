package oracle

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fenceRe strips a ```json ... ``` or ``` ... ``` code fence some models
// wrap their JSON output in despite being told not to.
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func unfence(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}

type rawTagResponse []string

// parseTagResponse tries strict JSON first, then a regex scrape of
// quoted/comma-separated tokens, then gives up and returns no tags —
// tagging is supplemented by the fallback extractor, so an empty result
// here is an acceptable degradation, not an error.
func parseTagResponse(raw string) ([]string, error) {
	body := unfence(raw)

	var tags rawTagResponse
	if err := json.Unmarshal([]byte(body), &tags); err == nil {
		return cleanTags(tags), nil
	}

	quoted := regexp.MustCompile(`"([a-zA-Z0-9_-]+)"`).FindAllStringSubmatch(body, -1)
	if len(quoted) > 0 {
		out := make([]string, 0, len(quoted))
		for _, m := range quoted {
			out = append(out, m[1])
		}
		return cleanTags(out), nil
	}

	return nil, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func parseSummaryResponse(raw string) string {
	return strings.TrimSpace(unfence(raw))
}

type rawFact struct {
	Entity     string  `json:"entity"`
	FactText   string  `json:"fact_text"`
	FactType   string  `json:"fact_type"`
	Confidence float64 `json:"confidence"`
}

// parseFactResponse tries strict JSON array parsing, then a best-effort
// per-object regex repair for a truncated or slightly malformed array,
// then gives up with an empty (not error) result.
func parseFactResponse(raw string) ([]ExtractedFact, error) {
	body := unfence(raw)

	var facts []rawFact
	if err := json.Unmarshal([]byte(body), &facts); err == nil {
		return toExtractedFacts(facts), nil
	}

	objRe := regexp.MustCompile(`(?s)\{[^{}]*\}`)
	matches := objRe.FindAllString(body, -1)
	var repaired []rawFact
	for _, m := range matches {
		var f rawFact
		if err := json.Unmarshal([]byte(m), &f); err == nil {
			repaired = append(repaired, f)
		}
	}
	return toExtractedFacts(repaired), nil
}

func toExtractedFacts(raw []rawFact) []ExtractedFact {
	out := make([]ExtractedFact, 0, len(raw))
	for _, f := range raw {
		if f.FactText == "" {
			continue
		}
		out = append(out, ExtractedFact{
			Entity:     strings.TrimSpace(f.Entity),
			FactText:   strings.TrimSpace(f.FactText),
			FactType:   strings.TrimSpace(f.FactType),
			Confidence: f.Confidence,
		})
	}
	return out
}
