package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCiteChunks_DeduplicatesFirstSeen(t *testing.T) {
	chunks := []Chunk{
		{RecordCode: "XN60A", BrowserURL: "https://example.org/XN60A"},
		{RecordCode: "1A00", BrowserURL: "https://example.org/1A00"},
		{RecordCode: "XN60A", BrowserURL: "https://example.org/XN60A"},
	}

	citations := CiteChunks(chunks)
	require.Len(t, citations, 2)
	assert.Equal(t, "XN60A", citations[0].Code)
	assert.Equal(t, "1A00", citations[1].Code)
}

func TestCiteChunks_SkipsEmptyCodes(t *testing.T) {
	citations := CiteChunks([]Chunk{{RecordCode: ""}, {RecordCode: "1A00"}})
	require.Len(t, citations, 1)
	assert.Equal(t, "1A00", citations[0].Code)
}

func TestAnswer_Render_WithCitations(t *testing.T) {
	a := Answer{
		Text: "Myocardial infarction is necrosis of heart muscle.",
		Citations: []Citation{
			{Code: "XN60A", URL: "https://example.org/XN60A"},
			{Code: "BA41"},
		},
	}

	out := a.Render()
	assert.Contains(t, out, "ICD-11 references: [XN60A](https://example.org/XN60A), BA41")
	assert.NotContains(t, out, NoMatchMarker)
}

func TestAnswer_Render_NoCitations(t *testing.T) {
	a := Answer{Text: FallbackAnswer, Fallback: true}

	out := a.Render()
	assert.Contains(t, out, FallbackAnswer)
	assert.Contains(t, out, NoMatchMarker)
}

func TestSynonymTable_Sorted(t *testing.T) {
	table := SynonymTable{
		{Informal: "stroke", Formal: "cerebrovascular accident"},
		{Informal: "flu", Formal: "influenza"},
		{Informal: "heart attack", Formal: "myocardial infarction"},
	}

	sorted := table.Sorted()
	assert.Equal(t, "flu", sorted[0].Informal)
	assert.Equal(t, "heart attack", sorted[1].Informal)
	assert.Equal(t, "stroke", sorted[2].Informal)

	// Original order untouched.
	assert.Equal(t, "stroke", table[0].Informal)
}
