package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"sigcerh/internal/ingestion/models"
	"sigcerh/internal/platform/postgres"
	"sigcerh/internal/reconcile"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	txcontext "sigcerh/pkg/platform/tx"
)

// PostgresStore persists grade period links and notes in PostgreSQL.
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

const linkColumns = `id, record_id, student_id, ordinal, outcome, remarks, created_at`

func (s *PostgresStore) CreateLink(ctx context.Context, l *models.Link) error {
	_, err := s.execer(ctx).ExecContext(ctx, `INSERT INTO grade_period_links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(l.ID), uuid.UUID(l.RecordID), uuid.UUID(l.StudentID), l.Ordinal, l.Outcome, l.Remarks, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert link: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) FindLink(ctx context.Context, recordID id.RecordID, studentID id.StudentID) (*models.Link, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+linkColumns+` FROM grade_period_links
		WHERE record_id = $1 AND student_id = $2
		ORDER BY created_at LIMIT 1`, uuid.UUID(recordID), uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("find link: %w", err)
	}
	links, err := scanLinks(rows)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return &links[0], nil
}

func (s *PostgresStore) DeleteLink(ctx context.Context, linkID id.LinkID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM grade_period_links WHERE id = $1`, uuid.UUID(linkID))
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PurgeRecord removes every link of a record. Notes go with them through the
// ON DELETE CASCADE foreign key.
func (s *PostgresStore) PurgeRecord(ctx context.Context, recordID id.RecordID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM grade_period_links WHERE record_id = $1`, uuid.UUID(recordID))
	if err != nil {
		return 0, fmt.Errorf("purge record links: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge record links: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) CreateNotes(ctx context.Context, notes []models.Note) error {
	exec := s.execer(ctx)
	for _, n := range notes {
		value := decimal.NullDecimal{}
		if n.Value != nil {
			value = decimal.NullDecimal{Decimal: *n.Value, Valid: true}
		}
		_, err := exec.ExecContext(ctx, `INSERT INTO notes
			(id, link_id, area_id, kind, numeric_value, literal_value, original_label, confidence, method)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.UUID(n.ID), uuid.UUID(n.LinkID), uuid.UUID(n.AreaID), string(n.Kind), value, n.Literal,
			n.Label, n.Confidence, string(n.Method),
		)
		if err != nil {
			return fmt.Errorf("insert note: %w", postgres.TranslateError(err))
		}
	}
	return nil
}

func (s *PostgresStore) ListLinksByRecord(ctx context.Context, recordID id.RecordID) ([]models.Link, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+linkColumns+` FROM grade_period_links
		WHERE record_id = $1 ORDER BY ordinal, created_at`, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("list record links: %w", err)
	}
	return scanLinks(rows)
}

func (s *PostgresStore) ListLinksByStudent(ctx context.Context, studentID id.StudentID) ([]models.Link, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+linkColumns+` FROM grade_period_links
		WHERE student_id = $1 ORDER BY ordinal, created_at`, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list student links: %w", err)
	}
	return scanLinks(rows)
}

func (s *PostgresStore) NotesByLinks(ctx context.Context, linkIDs []id.LinkID) (map[id.LinkID][]models.Note, error) {
	out := make(map[id.LinkID][]models.Note, len(linkIDs))
	if len(linkIDs) == 0 {
		return out, nil
	}
	raw := make([]string, len(linkIDs))
	for i, linkID := range linkIDs {
		raw[i] = linkID.String()
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT id, link_id, area_id, kind, numeric_value, literal_value,
			original_label, confidence, method
		FROM notes WHERE link_id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n                      models.Note
			noteID, linkID, areaID uuid.UUID
			kind, method           string
			value                  decimal.NullDecimal
		)
		if err := rows.Scan(&noteID, &linkID, &areaID, &kind, &value, &n.Literal, &n.Label, &n.Confidence, &method); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.ID, n.LinkID, n.AreaID = id.NoteID(noteID), id.LinkID(linkID), id.AreaID(areaID)
		n.Kind, n.Method = reconcile.ScoreKind(kind), reconcile.Method(method)
		if value.Valid {
			v := value.Decimal
			n.Value = &v
		}
		out[n.LinkID] = append(out[n.LinkID], n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}

func scanLinks(rows *sql.Rows) ([]models.Link, error) {
	defer rows.Close()
	var out []models.Link
	for rows.Next() {
		var (
			l                         models.Link
			linkID, recordID, student uuid.UUID
		)
		if err := rows.Scan(&linkID, &recordID, &student, &l.Ordinal, &l.Outcome, &l.Remarks, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.ID, l.RecordID, l.StudentID = id.LinkID(linkID), id.RecordID(recordID), id.StudentID(student)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return out, nil
}
