package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
)

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 50, cfg.Index.BatchSize)
	assert.Equal(t, 4, cfg.Query.TopK)
	assert.Equal(t, 50, cfg.Query.MinContextChars)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbeddingModel)
	assert.Equal(t, "phi3:medium", cfg.Ollama.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.Ollama.EmbedTimeout())
	assert.Equal(t, 120*time.Second, cfg.Ollama.GenerateTimeout())
	assert.Equal(t, "icd11_index", cfg.Chroma.Collection)
	assert.Equal(t, filepath.Join(dir, "icd_json"), cfg.Paths.JSONDir)
	assert.False(t, cfg.Ingest.SkipMissingDefinitions)
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[chunking]
size = 400
overlap = 50

[ingest]
skip_missing_definitions = true

[ollama]
llm_model = "llama3.2"
generate_timeout_secs = 60
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.True(t, cfg.Ingest.SkipMissingDefinitions)
	assert.Equal(t, "llama3.2", cfg.Ollama.LLMModel)
	assert.Equal(t, 60*time.Second, cfg.Ollama.GenerateTimeout())

	// Untouched sections keep defaults
	assert.Equal(t, 4, cfg.Query.TopK)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbeddingModel)
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadSynonyms_WritesDefaultsOnFirstLoad(t *testing.T) {
	dir := t.TempDir()

	table, err := LoadSynonyms(dir)
	require.NoError(t, err)
	assert.Len(t, table, len(defaultSynonyms))
	assert.Contains(t, table, domain.SynonymPair{Informal: "heart attack", Formal: "myocardial infarction"})

	// File was created for future edits
	_, err = os.Stat(filepath.Join(dir, SynonymsFileName))
	assert.NoError(t, err)

	// Second load reads the file and yields the same table
	again, err := LoadSynonyms(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, table, again)
}

func TestLoadSynonyms_CustomFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[[synonyms]]
informal = "kissing disease"
formal = "infectious mononucleosis"

[[synonyms]]
informal = ""
formal = "dropped"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SynonymsFileName), []byte(content), 0o600))

	table, err := LoadSynonyms(dir)
	require.NoError(t, err)

	require.Len(t, table, 1)
	assert.Equal(t, "kissing disease", table[0].Informal)
	assert.Equal(t, "infectious mononucleosis", table[0].Formal)
}

func TestPromptStore_LoadDefaults(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Contains(t, prompt, "%s")
	assert.Contains(t, prompt, domain.NotInContextSentence)

	system, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.NotEmpty(t, system)
}

func TestPromptStore_UserOverride(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	custom := "Custom context %s question %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswer+".txt"), []byte(custom), 0o600))

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_ReloadPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	edited := "Edited %s / %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswer+".txt"), []byte(edited), 0o600))

	// Cached until reload
	cached, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}
