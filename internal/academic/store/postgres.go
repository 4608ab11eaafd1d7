package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sigcerh/internal/academic/models"
	"sigcerh/internal/platform/postgres"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	txcontext "sigcerh/pkg/platform/tx"
)

// PostgresStore persists the academic catalog in PostgreSQL.
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

const studentColumns = `id, national_id, national_id_temporary, first_names, paternal_surname, maternal_surname, sex, birth_date, created_at`

func (s *PostgresStore) CreateStudent(ctx context.Context, st *models.Student) error {
	_, err := s.execer(ctx).ExecContext(ctx, `INSERT INTO students (`+studentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(st.ID), st.NationalID, st.Temporary, st.FirstNames, st.PaternalSurname, st.MaternalSurname,
		st.Sex, st.BirthDate, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert student: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) FindStudentByID(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	return s.findStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, uuid.UUID(studentID))
}

func (s *PostgresStore) FindStudentByNationalID(ctx context.Context, nationalID string) (*models.Student, error) {
	return s.findStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE national_id = $1`, nationalID)
}

func (s *PostgresStore) FindStudentByName(ctx context.Context, first, paternal, maternal string) (*models.Student, error) {
	return s.findStudent(ctx, `SELECT `+studentColumns+` FROM students
		WHERE first_names = $1 AND paternal_surname = $2 AND maternal_surname = $3
		ORDER BY created_at LIMIT 1`, first, paternal, maternal)
}

func (s *PostgresStore) findStudent(ctx context.Context, query string, args ...any) (*models.Student, error) {
	var (
		st    models.Student
		sid   uuid.UUID
		birth sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, args...).Scan(
		&sid, &st.NationalID, &st.Temporary, &st.FirstNames, &st.PaternalSurname, &st.MaternalSurname,
		&st.Sex, &birth, &st.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	st.ID = id.StudentID(sid)
	if birth.Valid {
		t := birth.Time
		st.BirthDate = &t
	}
	return &st, nil
}

func (s *PostgresStore) CreateArea(ctx context.Context, a *models.Area) error {
	_, err := s.execer(ctx).ExecContext(ctx, `INSERT INTO areas (id, institution, code, name, position, active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(a.ID), a.Institution, a.Code, a.Name, a.Position, a.Active,
	)
	if err != nil {
		return fmt.Errorf("insert area: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) ListAreas(ctx context.Context, institution string, activeOnly bool) ([]models.Area, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT id, institution, code, name, position, active FROM areas
		WHERE institution = $1 AND (active OR NOT $2)
		ORDER BY position, code`, institution, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return scanAreas(rows)
}

func (s *PostgresStore) FindAreas(ctx context.Context, ids []id.AreaID) (map[id.AreaID]models.Area, error) {
	raw := make([]string, len(ids))
	for i, areaID := range ids {
		raw[i] = areaID.String()
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT id, institution, code, name, position, active FROM areas
		WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find areas: %w", err)
	}
	areas, err := scanAreas(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[id.AreaID]models.Area, len(areas))
	for _, a := range areas {
		out[a.ID] = a
	}
	return out, nil
}

// SetTemplate replaces the template inside the caller's unit of work when
// there is one.
func (s *PostgresStore) SetTemplate(ctx context.Context, institution string, year, grade int, areaIDs []id.AreaID) error {
	exec := s.execer(ctx)
	if _, err := exec.ExecContext(ctx, `DELETE FROM curriculum_templates WHERE institution = $1 AND year = $2 AND grade = $3`,
		institution, year, grade); err != nil {
		return fmt.Errorf("clear template: %w", err)
	}
	for i, areaID := range areaIDs {
		_, err := exec.ExecContext(ctx, `INSERT INTO curriculum_templates (institution, year, grade, area_id, position)
			VALUES ($1, $2, $3, $4, $5)`, institution, year, grade, uuid.UUID(areaID), i+1)
		if err != nil {
			return fmt.Errorf("insert template area: %w", postgres.TranslateError(err))
		}
	}
	return nil
}

func (s *PostgresStore) TemplateAreas(ctx context.Context, institution string, year, grade int) ([]models.Area, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT a.id, a.institution, a.code, a.name, a.position, a.active
		FROM curriculum_templates t JOIN areas a ON a.id = t.area_id
		WHERE t.institution = $1 AND t.year = $2 AND t.grade = $3
		ORDER BY t.position`, institution, year, grade)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	areas, err := scanAreas(rows)
	if err != nil || len(areas) == 0 {
		return nil, err
	}
	return areas, nil
}

func scanAreas(rows *sql.Rows) ([]models.Area, error) {
	defer rows.Close()
	out := make([]models.Area, 0)
	for rows.Next() {
		var (
			a   models.Area
			aid uuid.UUID
		)
		if err := rows.Scan(&aid, &a.Institution, &a.Code, &a.Name, &a.Position, &a.Active); err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		a.ID = id.AreaID(aid)
		out = append(out, a)
	}
	return out, rows.Err()
}
