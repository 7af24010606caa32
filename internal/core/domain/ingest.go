package domain

import "fmt"

// FileFailure records one input file the ingester could not process,
// with the reason it was skipped.
type FileFailure struct {
	File   string
	Reason string
}

func (f FileFailure) String() string {
	return fmt.Sprintf("%s -> %s", f.File, f.Reason)
}

// IngestReport summarises one ingestion run. Per-file failures never
// abort the batch; they are collected here and written to the failure
// log alongside the converted text files.
type IngestReport struct {
	// RunID identifies the ingestion run in logs.
	RunID string

	// Processed counts records successfully converted to text blocks.
	Processed int

	// SkippedMissingDefinition counts records dropped because they had
	// no definition and skipping was enabled.
	SkippedMissingDefinition int

	// Failures lists files that could not be parsed or written.
	Failures []FileFailure
}

// Skipped reports the total number of input files that produced no
// text block.
func (r IngestReport) Skipped() int {
	return r.SkippedMissingDefinition + len(r.Failures)
}
