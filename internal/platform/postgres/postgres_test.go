package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"sigcerh/pkg/platform/sentinel"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil))
	assert.ErrorIs(t, TranslateError(sql.ErrNoRows), sentinel.ErrNotFound)

	dup := &pq.Error{Code: "23505", Constraint: "records_content_hash_key"}
	err := TranslateError(dup)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Contains(t, err.Error(), "records_content_hash_key")

	missing := &pq.Error{Code: "23503", Constraint: "notes_area_id_fkey"}
	assert.ErrorIs(t, TranslateError(missing), sentinel.ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, TranslateError(other))
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS requests")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS audit_entries")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS grade_period_links")
}
