package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"sigcerh/internal/platform/postgres"
	"sigcerh/internal/record/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	txcontext "sigcerh/pkg/platform/tx"
)

// PostgresStore persists records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const recordColumns = `
	id, institution, number, year, grade, section, shift, kind, folio, content_hash, state,
	extraction, extraction_schema, extracted_at, normalized, normalized_at, corrections, uploaded_by,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Record) error {
	corrections, err := encodeCorrections(r.Corrections)
	if err != nil {
		return err
	}
	query := `INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), r.Institution, r.Number, r.Year, r.Grade, r.Section, r.Shift, r.Kind, r.Folio,
		r.ContentHash, string(r.State), nullJSON(r.RawExtraction), extractionSchema(r), r.ExtractedAt,
		r.Normalized, r.NormalizedAt, corrections, string(r.UploadedBy), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	return s.findOne(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, uuid.UUID(recordID))
}

func (s *PostgresStore) FindByContentHash(ctx context.Context, hash string) (*models.Record, error) {
	return s.findOne(ctx, `SELECT `+recordColumns+` FROM records WHERE content_hash = $1`, hash)
}

func (s *PostgresStore) FindByNumberYear(ctx context.Context, number string, year int) (*models.Record, error) {
	return s.findOne(ctx, `SELECT `+recordColumns+` FROM records WHERE number = $1 AND year = $2`, number, year)
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Record) error {
	corrections, err := encodeCorrections(r.Corrections)
	if err != nil {
		return err
	}
	query := `
		UPDATE records SET
			state = $2, extraction = $3, extraction_schema = $4, extracted_at = $5,
			normalized = $6, normalized_at = $7, corrections = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID), string(r.State), nullJSON(r.RawExtraction), extractionSchema(r), r.ExtractedAt,
		r.Normalized, r.NormalizedAt, corrections, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", postgres.TranslateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Record, error) {
	var (
		r                 models.Record
		recordID          uuid.UUID
		state, uploadedBy string
		raw               []byte
		corrections       []byte
		schema            string
		extractedAt       sql.NullTime
		normalizedAt      sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, args...).Scan(
		&recordID, &r.Institution, &r.Number, &r.Year, &r.Grade, &r.Section, &r.Shift, &r.Kind, &r.Folio,
		&r.ContentHash, &state, &raw, &schema, &extractedAt, &r.Normalized, &normalizedAt, &corrections, &uploadedBy,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find record: %w", postgres.TranslateError(err))
	}
	r.ID = id.RecordID(recordID)
	r.State = models.State(state)
	r.UploadedBy = id.ActorID(uploadedBy)
	if len(raw) > 0 {
		var ext models.Extraction
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, fmt.Errorf("decode stored extraction: %w", err)
		}
		r.Extraction = &ext
		r.RawExtraction = raw
	}
	if len(corrections) > 0 {
		if err := json.Unmarshal(corrections, &r.Corrections); err != nil {
			return nil, fmt.Errorf("decode stored corrections: %w", err)
		}
	}
	if extractedAt.Valid {
		t := extractedAt.Time
		r.ExtractedAt = &t
	}
	if normalizedAt.Valid {
		t := normalizedAt.Time
		r.NormalizedAt = &t
	}
	return &r, nil
}

// nullJSON passes jsonb as text; lib/pq would send a []byte as bytea.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func encodeCorrections(cs []models.CorrectionEntry) (string, error) {
	if len(cs) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(cs)
	if err != nil {
		return "", fmt.Errorf("encode corrections: %w", err)
	}
	return string(raw), nil
}

func extractionSchema(r *models.Record) string {
	if r.Extraction == nil {
		return ""
	}
	return r.Extraction.Schema
}
