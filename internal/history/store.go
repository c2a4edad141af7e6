package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mlaskin/docvision/constants"
)

// Entry is one recorded extraction run. History is an audit trail kept by
// the collaborators (daemon, CLI); the extraction core itself stays
// stateless and never reads it.
type Entry struct {
	ID         string
	Identifier string
	Mode       constants.ExtractionMode
	MediaType  string
	Fields     string // comma-joined requested field names, "" for text mode
	Result     string // extracted text or the fields JSON
	Status     constants.ExtractionStatus
	ErrorMsg   string
	CreatedAt  time.Time
}

// Store is an embedded sqlite log of extraction runs.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS extractions (
	id          TEXT PRIMARY KEY,
	identifier  TEXT NOT NULL,
	mode        TEXT NOT NULL,
	media_type  TEXT NOT NULL DEFAULT '',
	fields      TEXT NOT NULL DEFAULT '',
	result      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error_msg   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at);
`

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	logger.Debug("history.open", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one extraction run. A zero ID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, identifier, mode, media_type, fields, result, status, error_msg, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Identifier, string(e.Mode), e.MediaType, e.Fields, e.Result, string(e.Status), e.ErrorMsg, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}
	s.logger.Debug("history.record", "id", e.ID, "mode", string(e.Mode), "status", string(e.Status))
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identifier, mode, media_type, fields, result, status, error_msg, created_at
		 FROM extractions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("history.rows_close_error", "error", cerr)
		}
	}()

	var out []Entry
	for rows.Next() {
		var e Entry
		var mode, status string
		if err := rows.Scan(&e.ID, &e.Identifier, &mode, &e.MediaType, &e.Fields, &e.Result, &status, &e.ErrorMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan extraction row: %w", err)
		}
		e.Mode = constants.ExtractionMode(mode)
		e.Status = constants.ExtractionStatus(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction rows: %w", err)
	}
	return out, nil
}
