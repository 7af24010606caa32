package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index progress and service reachability",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	if err := ensureIndexService(ctx); err != nil {
		return err
	}

	status, err := indexService.Status(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Records ingested:  %d\n", status.Records)
	cmd.Printf("Chunks indexed:    %d / %d\n", status.ChunksIndexed, status.ChunksTotal)
	if status.EmbeddingModel != "" {
		cmd.Printf("Embedding model:   %s\n", status.EmbeddingModel)
	} else {
		cmd.Println("Embedding model:   (no index built yet)")
	}

	entries, err := vectorIndex.Count(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Index entries:     %d\n", entries)
	return nil
}
