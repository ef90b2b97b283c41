package oracle

import "fmt"

// factExtractionPromptTemplate mirrors the original fact extraction prompt:
// ask for a JSON array of facts, each carrying entity/type/confidence, and
// instruct the model to only emit facts it's actually confident about.
const factExtractionPromptTemplate = `You are analyzing a coding session transcript to extract durable facts worth remembering across future sessions.

A fact is a decision, preference, relationship, technical detail, or observation that will still be true and useful later. Do not extract facts about what files were edited or what commands were run — only extract facts that describe durable knowledge. Also skip how-to steps for a user interface, machine installation or setup steps, and passages quoted from documentation. Look for facts of all five types listed below.

For each fact, assign:
- entity: the proper noun the fact is about (a named project, person, product, or tool), or empty if the fact has no proper-noun subject
- fact_type: one of decision, preference, relationship, technical, observation
- confidence: a confidence score between 0 and 1 reflecting how certain you are this is a durable, correctly-stated fact

Only include facts with confidence >= 0.75. Respond only with a JSON array of objects, each shaped like:
{"entity": "...", "fact_text": "...", "fact_type": "...", "confidence": 0.0}

Return only JSON. Do not include any other text before or after the array. If there are no facts worth keeping, return an empty array.

Transcript:
%s`

// tagPromptTemplate mirrors the original semantic tagging prompt: a short
// list of lowercase, hyphenated tags describing what the content is about.
const tagPromptTemplate = `You are analyzing a piece of text to generate semantic tags for a searchable memory store.

Generate up to 8 tags that capture the topics, technologies, and themes present in the text. Tags should be lowercase, use hyphens instead of spaces, and be specific enough to be useful in search (prefer "database-migration" over "database").

Respond only with a JSON array of strings, for example: ["python", "database-migration", "bug-fix"]. Return only JSON, with no other text.

Text:
%s`

// summaryPromptTemplate asks for a compact, information-dense summary
// suitable for storing alongside the full content as the searchable
// headline (spec.md §3.1's two-tier summary/content split).
const summaryPromptTemplate = `Summarize the following coding session content in 1-3 sentences. Focus on what was decided or accomplished, not a narration of steps taken. Respond with plain text only, no preamble.

Content:
%s`

func buildFactPrompt(transcript string) string {
	return fmt.Sprintf(factExtractionPromptTemplate, transcript)
}

func buildTagPrompt(content string) string {
	return fmt.Sprintf(tagPromptTemplate, content)
}

func buildSummaryPrompt(content string) string {
	return fmt.Sprintf(summaryPromptTemplate, content)
}
