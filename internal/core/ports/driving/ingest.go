package driving

import (
	"context"

	"github.com/medkb-labs/icdassist/internal/core/domain"
)

// IngestService converts raw ICD-11 JSON entities into text blocks.
type IngestService interface {
	// IngestDir processes every *.json file under jsonDir, writing one
	// text file per record to textDir and persisting the record rows.
	// Malformed files are skipped and reported, never fatal.
	IngestDir(ctx context.Context, jsonDir, textDir string) (*domain.IngestReport, error)

	// IngestFile processes a single JSON file. Used by the watcher for
	// incremental ingestion.
	IngestFile(ctx context.Context, path, textDir string) (*domain.Record, error)
}
