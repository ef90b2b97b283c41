package textutil

// TruncateHeadTail reduces text longer than max to max chars of it — the
// first 60% and the last 40% of that budget — joined by a marker, so the
// result is max chars plus the marker's length.
// Shared by every oracle prompt builder (tags, summary, facts) per the
// input-truncation rule.
func TruncateHeadTail(text string, max int) string {
	if len(text) <= max {
		return text
	}
	const marker = "\n...[middle truncated]...\n"
	headSize := int(float64(max) * 0.6)
	tailSize := max - headSize
	if headSize > len(text) {
		headSize = len(text)
	}
	if tailSize > len(text) {
		tailSize = len(text)
	}
	return text[:headSize] + marker + text[len(text)-tailSize:]
}
