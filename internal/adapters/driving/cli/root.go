// Package cli provides the command-line interface for icdassist.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medkb-labs/icdassist/internal/adapters/driven/config/file"
	ollamaembed "github.com/medkb-labs/icdassist/internal/adapters/driven/embedding/ollama"
	ollamallm "github.com/medkb-labs/icdassist/internal/adapters/driven/llm/ollama"
	"github.com/medkb-labs/icdassist/internal/adapters/driven/storage/sqlite"
	"github.com/medkb-labs/icdassist/internal/adapters/driven/vectorstore/chroma"
	"github.com/medkb-labs/icdassist/internal/chunker"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
	"github.com/medkb-labs/icdassist/internal/core/ports/driving"
	"github.com/medkb-labs/icdassist/internal/core/services"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// version is set by Execute from the build-time value in main.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
)

// Package-level service handles. Wired lazily per command so that, for
// example, ingestion does not require a running ChromaDB. Tests inject
// substitutes before executing commands.
var (
	appConfig *file.Config

	docStore         driven.DocumentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	promptStore      driven.PromptStore

	ingestService    driving.IngestService
	indexService     driving.IndexService
	assistantService driving.AssistantService
)

var rootCmd = &cobra.Command{
	Use:   "icdassist",
	Short: "Retrieval-augmented ICD-11 assistant",
	Long: `icdassist answers medical classification questions from the WHO ICD-11
reference corpus. Raw entity JSON is ingested into text blocks, chunked and
embedded into a local ChromaDB index, and queried through a locally hosted
language model via Ollama.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.icdassist)")
}

// Execute runs the root command. The version string comes from the
// build.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer closeServices()
	return rootCmd.Execute()
}

// config loads the application configuration once per process.
func config() (file.Config, error) {
	if appConfig != nil {
		return *appConfig, nil
	}
	cfg, err := file.LoadConfig(flagConfigDir)
	if err != nil {
		return file.Config{}, err
	}
	appConfig = &cfg
	return cfg, nil
}

// ensureDocStore wires the SQLite store.
func ensureDocStore() error {
	if docStore != nil {
		return nil
	}
	cfg, err := config()
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(cfg.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	docStore = store
	return nil
}

// ensureIngest wires the ingestion pipeline.
func ensureIngest() error {
	if ingestService != nil {
		return nil
	}
	if err := ensureDocStore(); err != nil {
		return err
	}
	cfg, err := config()
	if err != nil {
		return err
	}
	ingestService = services.NewIngestService(docStore, cfg.Ingest.SkipMissingDefinitions)
	return nil
}

// ensureEmbedding wires the Ollama embedding service and pings it.
func ensureEmbedding(ctx context.Context) error {
	if embeddingService != nil {
		return nil
	}
	cfg, err := config()
	if err != nil {
		return err
	}
	svc := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.EmbeddingModel,
		Timeout: cfg.Ollama.EmbedTimeout(),
	})
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("ollama is not reachable at %s: %w", cfg.Ollama.BaseURL, err)
	}
	embeddingService = svc
	return nil
}

// ensureVectorIndex wires the Chroma collection. Requires the
// embedding service, whose model name fingerprints the collection.
func ensureVectorIndex(ctx context.Context) error {
	if vectorIndex != nil {
		return nil
	}
	if err := ensureEmbedding(ctx); err != nil {
		return err
	}
	cfg, err := config()
	if err != nil {
		return err
	}
	store, err := chroma.New(ctx, chroma.Config{
		BaseURL:        cfg.Chroma.BaseURL,
		Collection:     cfg.Chroma.Collection,
		EmbeddingModel: embeddingService.ModelName(),
	})
	if err != nil {
		return fmt.Errorf("chromadb is not reachable at %s: %w", cfg.Chroma.BaseURL, err)
	}
	vectorIndex = store
	return nil
}

// ensureIndexService wires the index builder.
func ensureIndexService(ctx context.Context) error {
	if indexService != nil {
		return nil
	}
	if err := ensureDocStore(); err != nil {
		return err
	}
	if err := ensureVectorIndex(ctx); err != nil {
		return err
	}
	cfg, err := config()
	if err != nil {
		return err
	}
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	indexService = services.NewIndexService(docStore, vectorIndex, embeddingService, splitter, cfg.Index.BatchSize)
	return nil
}

// ensureAssistant wires the full query pipeline.
func ensureAssistant(ctx context.Context) error {
	if assistantService != nil {
		return nil
	}
	if err := ensureDocStore(); err != nil {
		return err
	}
	if err := ensureVectorIndex(ctx); err != nil {
		return err
	}
	cfg, err := config()
	if err != nil {
		return err
	}

	if llmService == nil {
		svc := ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.LLMModel,
			Timeout: cfg.Ollama.GenerateTimeout(),
		})
		if err := svc.Ping(ctx); err != nil {
			return fmt.Errorf("ollama is not reachable at %s: %w", cfg.Ollama.BaseURL, err)
		}
		llmService = svc
	}

	if promptStore == nil {
		store, err := file.NewPromptStore("")
		if err != nil {
			return err
		}
		promptStore = store
	}

	synonyms, err := file.LoadSynonyms(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading synonym table: %w", err)
	}

	assistantService = services.NewAssistantService(
		services.NewExpander(synonyms),
		services.NewRetriever(docStore, vectorIndex, embeddingService, cfg.Query.TopK),
		services.NewAnswerer(llmService, promptStore, cfg.Query.MinContextChars, cfg.Ollama.GenerateTimeout(), driven.GenerateOptions{
			MaxTokens:   cfg.Ollama.MaxTokens,
			Temperature: cfg.Ollama.Temperature,
		}),
		vectorIndex,
		embeddingService,
	)
	return nil
}

// closeServices releases every wired service handle.
func closeServices() {
	for _, c := range []interface{ Close() error }{docStore, vectorIndex, embeddingService, llmService} {
		if c != nil {
			if err := c.Close(); err != nil {
				logger.Debug("Close failed: %v", err)
			}
		}
	}
}
