package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestOutDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest [json-dir]",
	Short: "Convert raw ICD-11 entity JSON into text blocks",
	Long: `Reads every .json file in the given directory (or the configured
json_dir), extracts the entity fields and writes one text file per record.
Malformed files are skipped and reported; they never abort the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestOutDir, "out", "o", "", "output directory for text blocks (default from config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureIngest(); err != nil {
		return err
	}
	cfg, err := config()
	if err != nil {
		return err
	}

	jsonDir := cfg.Paths.JSONDir
	if len(args) == 1 {
		jsonDir = args[0]
	}
	textDir := cfg.Paths.TextDir
	if ingestOutDir != "" {
		textDir = ingestOutDir
	}

	report, err := ingestService.IngestDir(context.Background(), jsonDir, textDir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Ingested %d records into %s\n", report.Processed, textDir)
	if report.SkippedMissingDefinition > 0 {
		cmd.Printf("Skipped %d entities without a definition\n", report.SkippedMissingDefinition)
	}
	if len(report.Failures) > 0 {
		cmd.Printf("Failed to process %d files:\n", len(report.Failures))
		for _, f := range report.Failures {
			cmd.Printf("  %s\n", f)
		}
	}
	return nil
}
