package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sigcerh/internal/platform/postgres"
	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	txcontext "sigcerh/pkg/platform/tx"
)

// PostgresStore persists requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const requestColumns = `
	id, tracking_code, state, priority, applicant_name, applicant_national_id, applicant_email,
	student_id, payment_id, certificate_id, record_id, editor_id,
	submitted_by, submitted_at, payment_validated_by, payment_validated_at,
	process_started_by, process_started_at, certificate_generated_by, certificate_generated_at,
	signed_by, signed_at, delivered_by, delivered_at, rejected_at, rejection_reason,
	version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Request) error {
	query := `INSERT INTO requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29)`
	_, err := s.execer(ctx).ExecContext(ctx, query, requestArgs(r)...)
	if err != nil {
		return fmt.Errorf("insert request: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, uuid.UUID(requestID))
	return scanRequest(row)
}

func (s *PostgresStore) FindByTrackingCode(ctx context.Context, code string) (*models.Request, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE tracking_code = $1`, code)
	return scanRequest(row)
}

// Update is a compare-and-set on version. Concurrent writers block on the row
// lock; the loser then sees the new version and gets sentinel.ErrConflict.
func (s *PostgresStore) Update(ctx context.Context, r *models.Request, expectedVersion int) error {
	m := r.Milestones
	query := `
		UPDATE requests SET
			state = $3, priority = $4, applicant_name = $5, applicant_national_id = $6, applicant_email = $7,
			student_id = $8, payment_id = $9, certificate_id = $10, record_id = $11, editor_id = $12,
			submitted_by = $13, submitted_at = $14, payment_validated_by = $15, payment_validated_at = $16,
			process_started_by = $17, process_started_at = $18, certificate_generated_by = $19,
			certificate_generated_at = $20, signed_by = $21, signed_at = $22, delivered_by = $23,
			delivered_at = $24, rejected_at = $25, rejection_reason = $26,
			version = version + 1, updated_at = $27
		WHERE id = $1 AND version = $2
	`
	args := []any{
		uuid.UUID(r.ID), expectedVersion, string(r.State), string(r.Priority),
		r.Applicant.FullName, r.Applicant.NationalID, r.Applicant.Email,
		nullUUID(r.StudentID), nullUUID(r.PaymentID), nullUUID(r.CertificateID), nullUUID(r.RecordID),
		string(r.EditorID),
		actorArg(m.Submission), m.Submission.At,
		actorArg(m.PaymentValidation), m.PaymentValidation.At,
		actorArg(m.ProcessStart), m.ProcessStart.At,
		actorArg(m.CertificateGeneration), m.CertificateGeneration.At,
		actorArg(m.Signature), m.Signature.At,
		actorArg(m.Delivery), m.Delivery.At,
		r.RejectedAt, r.RejectionNote, r.UpdatedAt,
	}
	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update request: %w", postgres.TranslateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request rows affected: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := s.execer(ctx).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`, uuid.UUID(r.ID)).Scan(&exists); err != nil {
			return fmt.Errorf("check request exists: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	r.Version = expectedVersion + 1
	return nil
}

func (s *PostgresStore) ListByState(ctx context.Context, state models.State, limit int) ([]*models.Request, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE state = $1 ORDER BY created_at ASC LIMIT $2`,
		string(state), limit)
	if err != nil {
		return nil, fmt.Errorf("list requests by state: %w", err)
	}
	return collectRequests(rows)
}

func (s *PostgresStore) ListByEditor(ctx context.Context, editorID id.ActorID, states []models.State, limit int) ([]*models.Request, error) {
	if limit <= 0 {
		limit = 100
	}
	names := make([]string, len(states))
	for i, st := range states {
		names[i] = string(st)
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE editor_id = $1 AND state = ANY($2) ORDER BY created_at ASC LIMIT $3`,
		string(editorID), pq.Array(names), limit)
	if err != nil {
		return nil, fmt.Errorf("list requests by editor: %w", err)
	}
	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]*models.Request, error) {
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return out, nil
}

func requestArgs(r *models.Request) []any {
	m := r.Milestones
	return []any{
		uuid.UUID(r.ID), r.TrackingCode, string(r.State), string(r.Priority),
		r.Applicant.FullName, r.Applicant.NationalID, r.Applicant.Email,
		nullUUID(r.StudentID), nullUUID(r.PaymentID), nullUUID(r.CertificateID), nullUUID(r.RecordID),
		string(r.EditorID),
		actorArg(m.Submission), m.Submission.At,
		actorArg(m.PaymentValidation), m.PaymentValidation.At,
		actorArg(m.ProcessStart), m.ProcessStart.At,
		actorArg(m.CertificateGeneration), m.CertificateGeneration.At,
		actorArg(m.Signature), m.Signature.At,
		actorArg(m.Delivery), m.Delivery.At,
		r.RejectedAt, r.RejectionNote,
		r.Version, r.CreatedAt, r.UpdatedAt,
	}
}

func nullUUID[T ~[16]byte](v *T) *uuid.UUID {
	if v == nil {
		return nil
	}
	u := uuid.UUID(*v)
	return &u
}

func actorArg(m models.Milestone) *string {
	if !m.Reached() {
		return nil
	}
	s := string(m.ActorID)
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r                                           models.Request
		reqID                                       uuid.UUID
		state, priority, editor                     string
		studentID, paymentID, certificateID, record uuid.NullUUID
		actors                                      [6]sql.NullString
		times                                       [6]sql.NullTime
		rejectedAt                                  sql.NullTime
	)
	err := row.Scan(
		&reqID, &r.TrackingCode, &state, &priority,
		&r.Applicant.FullName, &r.Applicant.NationalID, &r.Applicant.Email,
		&studentID, &paymentID, &certificateID, &record, &editor,
		&actors[0], &times[0], &actors[1], &times[1], &actors[2], &times[2],
		&actors[3], &times[3], &actors[4], &times[4], &actors[5], &times[5],
		&rejectedAt, &r.RejectionNote,
		&r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", postgres.TranslateError(err))
	}

	r.ID = id.RequestID(reqID)
	r.State = models.State(state)
	r.Priority = models.Priority(priority)
	r.EditorID = id.ActorID(editor)
	if studentID.Valid {
		v := id.StudentID(studentID.UUID)
		r.StudentID = &v
	}
	if paymentID.Valid {
		v := id.PaymentID(paymentID.UUID)
		r.PaymentID = &v
	}
	if certificateID.Valid {
		v := id.CertificateID(certificateID.UUID)
		r.CertificateID = &v
	}
	if record.Valid {
		v := id.RecordID(record.UUID)
		r.RecordID = &v
	}
	milestones := []*models.Milestone{
		&r.Milestones.Submission, &r.Milestones.PaymentValidation, &r.Milestones.ProcessStart,
		&r.Milestones.CertificateGeneration, &r.Milestones.Signature, &r.Milestones.Delivery,
	}
	for i, m := range milestones {
		if times[i].Valid {
			t := times[i].Time
			m.At = &t
			m.ActorID = id.ActorID(actors[i].String)
		}
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		r.RejectedAt = &t
	}
	return &r, nil
}
