package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var indexReset bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed ingested records into the vector index",
	Long: `Chunks every ingested record, embeds the chunks in batches via Ollama
and appends them to the ChromaDB collection. A checkpoint is saved after
every batch: an interrupted run resumes where it stopped instead of
re-embedding. Use --reset to discard the checkpoint and rebuild from the
first chunk.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "discard the checkpoint and rebuild from scratch")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	if err := ensureIndexService(ctx); err != nil {
		return err
	}

	if indexReset {
		if err := indexService.Reset(ctx); err != nil {
			return err
		}
		cmd.Println("Checkpoint discarded, rebuilding from scratch.")
	}

	status, err := indexService.BuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks from %d records (model %s)\n",
		status.ChunksIndexed, status.Records, status.EmbeddingModel)
	return nil
}
