package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
	"github.com/medkb-labs/icdassist/internal/core/ports/driving"
	"github.com/medkb-labs/icdassist/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// FailureLogName is the per-run failure log written next to the
// converted text files.
const FailureLogName = "ingest_failures.log"

// icdEntity mirrors the raw WHO ICD-11 entity JSON shape. Only the
// fields the pipeline needs are mapped; everything else is ignored.
type icdEntity struct {
	ID    string `json:"@id"`
	Title struct {
		Value string `json:"@value"`
	} `json:"title"`
	Synonym []struct {
		Label struct {
			Value string `json:"@value"`
		} `json:"label"`
	} `json:"synonym"`
	Definition struct {
		Value string `json:"@value"`
	} `json:"definition"`
	BrowserURL string `json:"browserUrl"`
}

// IngestService converts raw ICD-11 entity JSON files into text blocks
// and persists the parsed records.
type IngestService struct {
	docStore        driven.DocumentStore
	skipMissingDefs bool
}

// NewIngestService creates a new ingest service. When skipMissingDefs
// is set, entities without a definition are dropped instead of getting
// a placeholder definition.
func NewIngestService(docStore driven.DocumentStore, skipMissingDefs bool) *IngestService {
	return &IngestService{
		docStore:        docStore,
		skipMissingDefs: skipMissingDefs,
	}
}

// IngestDir processes every .json file under jsonDir, writing one text
// file per record to textDir. Per-file failures are logged and
// collected, never fatal; the failure log is written to textDir when
// any file failed.
func (s *IngestService) IngestDir(ctx context.Context, jsonDir, textDir string) (*domain.IngestReport, error) {
	logger.Section("Ingestion")

	entries, err := os.ReadDir(jsonDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	if err := os.MkdirAll(textDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	report := &domain.IngestReport{RunID: uuid.New().String()}
	logger.Debug("Ingestion run %s: %d directory entries", report.RunID, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}

		rec, err := s.ingestOne(ctx, filepath.Join(jsonDir, entry.Name()), textDir)
		if err != nil {
			logger.Warn("Skipping %s: %v", entry.Name(), err)
			report.Failures = append(report.Failures, domain.FileFailure{
				File:   entry.Name(),
				Reason: err.Error(),
			})
			continue
		}
		if rec == nil {
			report.SkippedMissingDefinition++
			continue
		}
		report.Processed++
	}

	if len(report.Failures) > 0 {
		s.writeFailureLog(textDir, report)
	}

	logger.Info("Ingested %d records, skipped %d", report.Processed, report.Skipped())
	return report, nil
}

// IngestFile processes a single JSON file. The returned record is nil
// when the entity was skipped for a missing definition.
func (s *IngestService) IngestFile(ctx context.Context, path, textDir string) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(textDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return s.ingestOne(ctx, path, textDir)
}

func (s *IngestService) ingestOne(ctx context.Context, path, textDir string) (*domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	name := filepath.Base(path)
	rec, err := parseEntity(data, strings.TrimSuffix(name, filepath.Ext(name)))
	if err != nil {
		return nil, err
	}
	rec.SourceFile = name

	if rec.Definition == "" && s.skipMissingDefs {
		logger.Debug("No definition for %s, skipping", rec.Code)
		return nil, nil
	}

	outPath := filepath.Join(textDir, rec.FileName())
	if err := os.WriteFile(outPath, []byte(rec.TextBlock()), 0o644); err != nil {
		return nil, fmt.Errorf("writing text block: %w", err)
	}

	if err := s.docStore.SaveRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving record: %w", err)
	}

	logger.Debug("Ingested %s -> %s", rec.Code, outPath)
	return rec, nil
}

// parseEntity decodes one raw entity payload into a record, applying
// the documented field fallbacks: an entity without an @id takes the
// source file's stem as its code, a missing title is synthesized from
// the identifier, missing synonyms become an empty list, and a missing
// definition is left empty for the caller's policy to resolve.
func parseEntity(data []byte, fallbackCode string) (*domain.Record, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var ent icdEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return nil, fmt.Errorf("parsing entity: %w", err)
	}

	code := lastPathSegment(ent.ID)
	if code == "" {
		code = strings.TrimSpace(fallbackCode)
	}
	if code == "" {
		return nil, fmt.Errorf("entity has no @id and no usable file name: %w", domain.ErrInvalidInput)
	}

	title := strings.TrimSpace(ent.Title.Value)
	if title == "" {
		title = "Untitled ICD Entry " + code
	}

	var synonyms []string
	for _, syn := range ent.Synonym {
		if v := strings.TrimSpace(syn.Label.Value); v != "" {
			synonyms = append(synonyms, v)
		}
	}

	return &domain.Record{
		Code:       code,
		Title:      title,
		Synonyms:   synonyms,
		Definition: strings.TrimSpace(ent.Definition.Value),
		BrowserURL: strings.TrimSpace(ent.BrowserURL),
	}, nil
}

// lastPathSegment extracts the entity identifier from its @id URI.
func lastPathSegment(uri string) string {
	uri = strings.TrimRight(strings.TrimSpace(uri), "/")
	if uri == "" {
		return ""
	}
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

func (s *IngestService) writeFailureLog(textDir string, report *domain.IngestReport) {
	var b strings.Builder
	b.WriteString("run " + report.RunID + "\n")
	for _, f := range report.Failures {
		b.WriteString(f.String() + "\n")
	}

	logPath := filepath.Join(textDir, FailureLogName)
	if err := os.WriteFile(logPath, []byte(b.String()), 0o644); err != nil {
		logger.Warn("Failed to write failure log: %v", err)
		return
	}
	logger.Info("Wrote failure log to %s", logPath)
}
