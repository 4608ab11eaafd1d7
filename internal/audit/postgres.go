package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	txcontext "sigcerh/pkg/platform/tx"
)

// PostgresStore persists the ledger in audit_entries. A trigger rejects
// UPDATE and DELETE on that table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts e inside the caller's transaction and reads back its seq.
func (s *PostgresStore) Append(ctx context.Context, e *Entry) error {
	sqlTx, ok := txcontext.From(ctx)
	if !ok {
		return sentinel.ErrOutsideUnit
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	if e.Metadata == nil {
		meta = []byte("{}")
	}

	var from *string
	if e.FromState != nil {
		f := string(*e.FromState)
		from = &f
	}

	query := `
		INSERT INTO audit_entries (id, request_id, from_state, to_state, actor_id, actor_role, note, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`
	err = sqlTx.QueryRowContext(ctx, query,
		uuid.UUID(e.ID),
		uuid.UUID(e.RequestID),
		from,
		string(e.ToState),
		string(e.ActorID),
		string(e.ActorRole),
		e.Note,
		string(meta),
		e.At,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByRequest returns entries in commit order.
func (s *PostgresStore) ListByRequest(ctx context.Context, requestID id.RequestID) ([]Entry, error) {
	query := `
		SELECT seq, id, request_id, from_state, to_state, actor_id, actor_role, note, metadata, created_at
		FROM audit_entries
		WHERE request_id = $1
		ORDER BY seq ASC
	`
	var q interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	} = s.db
	if sqlTx, ok := txcontext.From(ctx); ok {
		q = sqlTx
	}
	rows, err := q.QueryContext(ctx, query, uuid.UUID(requestID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			entryID    uuid.UUID
			reqID      uuid.UUID
			from       sql.NullString
			to, actor  string
			role, note string
			meta       []byte
		)
		if err := rows.Scan(&e.Seq, &entryID, &reqID, &from, &to, &actor, &role, &note, &meta, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = id.AuditEntryID(entryID)
		e.RequestID = id.RequestID(reqID)
		if from.Valid {
			f := models.State(from.String)
			e.FromState = &f
		}
		e.ToState = models.State(to)
		e.ActorID = id.ActorID(actor)
		e.ActorRole = models.Role(role)
		e.Note = note
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
