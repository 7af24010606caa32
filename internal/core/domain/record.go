package domain

import (
	"strings"
	"unicode"
)

// NoDefinitionPlaceholder is substituted into a record's text block when
// the source entity carries no definition and skipping is disabled.
const NoDefinitionPlaceholder = "No definition provided for this ICD entity."

// maxFileNameLen bounds sanitised text file names so that long titles
// cannot produce filesystem-incompatible paths.
const maxFileNameLen = 80

// Record is a single ICD-11 entity as parsed from one raw JSON file.
// It is immutable once read; its only lifecycle is transformation into
// a text block and from there into a chunk set.
type Record struct {
	// Code is the unique ICD-11 identifier, the last path segment of the
	// entity's @id URI.
	Code string

	// Title is the human-readable entity title.
	Title string

	// Synonyms is the ordered synonym list, possibly empty.
	Synonyms []string

	// Definition is the entity definition, possibly empty.
	Definition string

	// BrowserURL is the WHO browser link for citations, possibly empty.
	BrowserURL string

	// SourceFile is the name of the JSON file the record was read from.
	SourceFile string
}

// TextBlock serialises the record into a single flat text payload with
// deterministic field ordering: title, synonyms, definition, source
// link, identifier. The same record always yields the same block.
func (r Record) TextBlock() string {
	parts := make([]string, 0, 5)

	parts = append(parts, "Title: "+r.Title)

	if len(r.Synonyms) > 0 {
		parts = append(parts, "Synonyms: "+strings.Join(r.Synonyms, "; "))
	}

	if r.Definition != "" {
		parts = append(parts, "Definition: "+r.Definition)
	} else {
		parts = append(parts, NoDefinitionPlaceholder)
	}

	if r.BrowserURL != "" {
		parts = append(parts, "SourceURL: "+r.BrowserURL)
	}

	parts = append(parts, "ICDCode: "+r.Code)

	return strings.Join(parts, "\n")
}

// FileName derives a sanitised text file name for the record. Characters
// outside [A-Za-z0-9_- ] and space are stripped, and the result is
// truncated so that two records only collide if code and title match.
func (r Record) FileName() string {
	base := r.Code + "_" + r.Title

	var b strings.Builder
	b.Grow(len(base))
	for _, c := range base {
		if unicode.IsLetter(c) && c < 128 || unicode.IsDigit(c) && c < 128 ||
			c == '_' || c == '-' || c == ' ' {
			b.WriteRune(c)
		}
	}

	name := b.String()
	if len(name) > maxFileNameLen {
		name = name[:maxFileNameLen]
	}
	return name + ".txt"
}
