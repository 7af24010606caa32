package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the typed application configuration, loaded from
// ~/.icdassist/config.toml. Missing fields keep their defaults; an
// absent file is not an error.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Ingest   IngestConfig   `toml:"ingest"`
	Chunking ChunkingConfig `toml:"chunking"`
	Index    IndexConfig    `toml:"index"`
	Query    QueryConfig    `toml:"query"`
	Ollama   OllamaConfig   `toml:"ollama"`
	Chroma   ChromaConfig   `toml:"chroma"`
}

// PathsConfig holds the data directories.
type PathsConfig struct {
	// JSONDir is where raw ICD-11 entity JSON files live.
	JSONDir string `toml:"json_dir"`

	// TextDir is where converted text blocks are written.
	TextDir string `toml:"text_dir"`

	// DataDir is where the SQLite database lives.
	DataDir string `toml:"data_dir"`
}

// IngestConfig controls ingestion behaviour.
type IngestConfig struct {
	// SkipMissingDefinitions drops entities without a definition
	// instead of substituting a placeholder.
	SkipMissingDefinitions bool `toml:"skip_missing_definitions"`
}

// ChunkingConfig controls how text blocks are split.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// IndexConfig controls index building.
type IndexConfig struct {
	BatchSize int `toml:"batch_size"`
}

// QueryConfig controls the online query path.
type QueryConfig struct {
	TopK            int `toml:"top_k"`
	MinContextChars int `toml:"min_context_chars"`
}

// OllamaConfig holds the model server settings.
type OllamaConfig struct {
	BaseURL             string  `toml:"base_url"`
	EmbeddingModel      string  `toml:"embedding_model"`
	LLMModel            string  `toml:"llm_model"`
	EmbedTimeoutSecs    int     `toml:"embed_timeout_secs"`
	GenerateTimeoutSecs int     `toml:"generate_timeout_secs"`
	MaxTokens           int     `toml:"max_tokens"`
	Temperature         float64 `toml:"temperature"`
}

// EmbedTimeout returns the embedding request timeout.
func (c OllamaConfig) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSecs) * time.Second
}

// GenerateTimeout returns the generation request timeout.
func (c OllamaConfig) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutSecs) * time.Second
}

// ChromaConfig holds the vector index settings.
type ChromaConfig struct {
	BaseURL    string `toml:"base_url"`
	Collection string `toml:"collection"`
}

// DefaultConfigDir returns the default configuration directory,
// ~/.icdassist.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".icdassist"), nil
}

// DefaultConfig returns the configuration defaults, rooted at the
// given config directory.
func DefaultConfig(configDir string) Config {
	return Config{
		Paths: PathsConfig{
			JSONDir: filepath.Join(configDir, "icd_json"),
			TextDir: filepath.Join(configDir, "icd_texts"),
			DataDir: filepath.Join(configDir, "data"),
		},
		Chunking: ChunkingConfig{
			Size:    800,
			Overlap: 100,
		},
		Index: IndexConfig{
			BatchSize: 50,
		},
		Query: QueryConfig{
			TopK:            4,
			MinContextChars: 50,
		},
		Ollama: OllamaConfig{
			BaseURL:             "http://localhost:11434",
			EmbeddingModel:      "nomic-embed-text",
			LLMModel:            "phi3:medium",
			EmbedTimeoutSecs:    30,
			GenerateTimeoutSecs: 120,
			MaxTokens:           512,
			Temperature:         0.1,
		},
		Chroma: ChromaConfig{
			BaseURL:    "http://localhost:8000",
			Collection: "icd11_index",
		},
	}
}

// LoadConfig reads config.toml from the given directory, layered over
// the defaults. If configDir is empty, the default directory is used;
// a missing file yields the defaults.
func LoadConfig(configDir string) (Config, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return Config{}, err
		}
		configDir = dir
	}

	cfg := DefaultConfig(configDir)

	data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
