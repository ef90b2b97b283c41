package transcript

import "encoding/json"

type schemaSniff struct {
	Type string `json:"type"`
}

// detectSchema inspects the first well-formed JSON line of a session log
// and reports which schema it belongs to. Schema B opens with a
// type=session record; anything else (including a type=user first record)
// is treated as Schema A, matching spec.md §4.2's "auto-detected from the
// first record" rule.
func detectSchema(firstLine []byte) string {
	var sniff schemaSniff
	if err := json.Unmarshal(firstLine, &sniff); err != nil {
		return "A"
	}
	if sniff.Type == "session" {
		return "B"
	}
	return "A"
}
