package domain

import "strings"

// Fixed response texts. FallbackAnswer is returned without consulting
// the language model when retrieval produced no usable context.
// NotInContextSentence is the sentence the model is instructed to emit
// verbatim when the context does not support an answer.
const (
	FallbackAnswer = "I couldn't find an exact ICD-11 match for your query. " +
		"Try rephrasing or be more specific."
	NotInContextSentence = "I'm not sure, this information is not found in ICD-11."
	NoMatchMarker        = "No exact ICD-11 match found."
)

// Chat roles for the conversation contract.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the chat contract: an ordered {role,
// content} pair. A query handled by the assistant appends exactly one
// user turn and one assistant turn to the history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Citation points an answer back at a retrieved record.
type Citation struct {
	// Code is the ICD-11 code of the cited record.
	Code string `json:"code"`

	// URL is the WHO browser link, possibly empty.
	URL string `json:"url,omitempty"`
}

// Answer is the generated answer text plus its citation list,
// deduplicated in first-seen order.
type Answer struct {
	// Text is the trimmed model output, or a fixed fallback sentence.
	Text string `json:"text"`

	// Citations lists the records the context was assembled from.
	// Empty when the fallback path was taken.
	Citations []Citation `json:"citations,omitempty"`

	// Fallback reports whether the answer is the fixed sentinel rather
	// than model output.
	Fallback bool `json:"fallback"`
}

// Render formats the answer for display: the answer text followed by a
// citation footer, or the no-match marker when nothing was cited.
func (a Answer) Render() string {
	var b strings.Builder
	b.WriteString(a.Text)

	if len(a.Citations) == 0 {
		b.WriteString("\n\n")
		b.WriteString(NoMatchMarker)
		return b.String()
	}

	b.WriteString("\n\nICD-11 references: ")
	for i, c := range a.Citations {
		if i > 0 {
			b.WriteString(", ")
		}
		if c.URL != "" {
			b.WriteString("[" + c.Code + "](" + c.URL + ")")
		} else {
			b.WriteString(c.Code)
		}
	}
	return b.String()
}

// CiteChunks builds the citation list for a set of retrieved chunks,
// deduplicated by record code in first-seen order.
func CiteChunks(chunks []Chunk) []Citation {
	seen := make(map[string]bool, len(chunks))
	citations := make([]Citation, 0, len(chunks))

	for _, ch := range chunks {
		if ch.RecordCode == "" || seen[ch.RecordCode] {
			continue
		}
		seen[ch.RecordCode] = true
		citations = append(citations, Citation{
			Code: ch.RecordCode,
			URL:  ch.BrowserURL,
		})
	}
	return citations
}
