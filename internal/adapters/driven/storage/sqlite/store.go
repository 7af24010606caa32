// Package sqlite provides the SQLite-backed document store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/medkb-labs/icdassist/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is the SQLite-backed document store holding ingested records,
// their chunks (embeddings included) and the index build checkpoint.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.icdassist/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".icdassist", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveRecord stores or updates an ingested record.
func (s *Store) SaveRecord(ctx context.Context, rec *domain.Record) error {
	synonymsJSON, err := json.Marshal(rec.Synonyms)
	if err != nil {
		return fmt.Errorf("marshalling synonyms: %w", err)
	}

	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (code, title, synonyms, definition, browser_url, source_file, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			title = excluded.title,
			synonyms = excluded.synonyms,
			definition = excluded.definition,
			browser_url = excluded.browser_url,
			source_file = excluded.source_file,
			updated_at = excluded.updated_at
	`, rec.Code, rec.Title, string(synonymsJSON), rec.Definition,
		rec.BrowserURL, rec.SourceFile, now, now)

	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// GetRecord retrieves a record by ICD code.
func (s *Store) GetRecord(ctx context.Context, code string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, title, synonyms, definition, browser_url, source_file
		FROM records WHERE code = ?
	`, code)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return rec, nil
}

// ListRecords returns all records ordered by code.
func (s *Store) ListRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, title, synonyms, definition, browser_url, source_file
		FROM records ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// CountRecords reports the number of stored records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// SaveChunks stores chunks with their embeddings, upserting by ID.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, record_code, content, position, browser_url, source_file, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			position = excluded.position,
			browser_url = excluded.browser_url,
			source_file = excluded.source_file,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.RecordCode, chunk.Content,
			chunk.Position, chunk.BrowserURL, chunk.SourceFile, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, record_code, content, position, browser_url, source_file, embedding
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var embeddingBlob []byte
	if err := row.Scan(&chunk.ID, &chunk.RecordCode, &chunk.Content,
		&chunk.Position, &chunk.BrowserURL, &chunk.SourceFile, &embeddingBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// CountChunks reports the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// IndexState returns the current index checkpoint, or nil when no
// indexing run has been persisted yet.
func (s *Store) IndexState(ctx context.Context) (*driven.IndexState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT embedding_model, chunks_indexed, last_chunk_id, updated_at
		FROM index_state WHERE id = 1
	`)

	var state driven.IndexState
	if err := row.Scan(&state.EmbeddingModel, &state.ChunksIndexed, &state.LastChunkID, &state.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting index state: %w", err)
	}
	return &state, nil
}

// SaveIndexState persists the index checkpoint.
func (s *Store) SaveIndexState(ctx context.Context, state driven.IndexState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_state (id, embedding_model, chunks_indexed, last_chunk_id, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding_model = excluded.embedding_model,
			chunks_indexed = excluded.chunks_indexed,
			last_chunk_id = excluded.last_chunk_id,
			updated_at = excluded.updated_at
	`, state.EmbeddingModel, state.ChunksIndexed, state.LastChunkID, state.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving index state: %w", err)
	}
	return nil
}

// ResetIndexState removes the checkpoint.
func (s *Store) ResetIndexState(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM index_state WHERE id = 1"); err != nil {
		return fmt.Errorf("resetting index state: %w", err)
	}
	return nil
}

// scanRecord scans one record row using the given scan function.
func scanRecord(scan func(...any) error) (*domain.Record, error) {
	var rec domain.Record
	var synonymsJSON string

	if err := scan(&rec.Code, &rec.Title, &synonymsJSON,
		&rec.Definition, &rec.BrowserURL, &rec.SourceFile); err != nil {
		return nil, err
	}

	if synonymsJSON != "" && synonymsJSON != "null" {
		if err := json.Unmarshal([]byte(synonymsJSON), &rec.Synonyms); err != nil {
			return nil, fmt.Errorf("unmarshalling synonyms: %w", err)
		}
	}
	return &rec, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
