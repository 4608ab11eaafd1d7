package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

type fakeLookup struct {
	byID   map[string]id.StudentID
	byName map[string]id.StudentID
	err    error
}

func (f *fakeLookup) FindByNationalID(_ context.Context, nationalID string) (id.StudentID, bool, error) {
	if f.err != nil {
		return id.StudentID{}, false, f.err
	}
	sid, ok := f.byID[nationalID]
	return sid, ok, nil
}

func (f *fakeLookup) FindByName(_ context.Context, first, paternal, maternal string) (id.StudentID, bool, error) {
	if f.err != nil {
		return id.StudentID{}, false, f.err
	}
	sid, ok := f.byName[paternal+"|"+maternal+"|"+first]
	return sid, ok, nil
}

func TestMatcher(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_123_456)
	studentA, studentB := id.NewStudentID(), id.NewStudentID()
	lookup := &fakeLookup{
		byID:   map[string]id.StudentID{"12345678": studentA},
		byName: map[string]id.StudentID{"QUISPE|MAMANI|ROSA ELENA": studentB},
	}

	t.Run("national id takes precedence over name", func(t *testing.T) {
		m, err := NewMatcher(lookup, true).Match(ctx, Row{
			Ordinal: 1, NationalID: "12345678",
			FirstNames: "Rosa Elena", PaternalSurname: "Quispe", MaternalSurname: "Mamani",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, MatchNationalID, m.Kind)
		assert.Equal(t, studentA, m.StudentID)
	})

	t.Run("cleaned name matches when the id is unknown", func(t *testing.T) {
		m, err := NewMatcher(lookup, true).Match(ctx, Row{
			Ordinal: 2, NationalID: "87654321",
			FirstNames: "  rosa   elena", PaternalSurname: "QUISPE", MaternalSurname: "mamani ",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, MatchName, m.Kind)
		assert.Equal(t, studentB, m.StudentID)
	})

	t.Run("placeholder ids are never looked up", func(t *testing.T) {
		withPlaceholder := &fakeLookup{byID: map[string]id.StudentID{"T1234501": studentA}}
		m, err := NewMatcher(withPlaceholder, true).Match(ctx, Row{
			Ordinal: 3, NationalID: "T1234501", FirstNames: "Luis", PaternalSurname: "Rojas",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, MatchNew, m.Kind)
		assert.True(t, m.Temporary)
	})

	t.Run("unknown real id creates a new student with that id", func(t *testing.T) {
		m, err := NewMatcher(lookup, false).Match(ctx, Row{
			Ordinal: 4, NationalID: "11112222", FirstNames: "Ana", PaternalSurname: "Flores",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, MatchNew, m.Kind)
		assert.Equal(t, "11112222", m.NationalID)
		assert.False(t, m.Temporary)
	})

	t.Run("missing id gets a temporary placeholder", func(t *testing.T) {
		m, err := NewMatcher(lookup, true).Match(ctx, Row{
			Ordinal: 7, FirstNames: "Ana", PaternalSurname: "Flores",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, MatchNew, m.Kind)
		assert.True(t, m.Temporary)
		assert.Equal(t, "T2345607", m.NationalID)
	})

	t.Run("missing id is rejected when temporaries are disabled", func(t *testing.T) {
		_, err := NewMatcher(lookup, false).Match(ctx, Row{
			Ordinal: 7, FirstNames: "Ana", PaternalSurname: "Flores",
		}, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingIdentifier))
	})

	t.Run("lookup failures propagate", func(t *testing.T) {
		boom := errors.New("store down")
		_, err := NewMatcher(&fakeLookup{err: boom}, true).Match(ctx, Row{NationalID: "12345678"}, now)
		assert.ErrorIs(t, err, boom)
	})
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder(time.UnixMilli(1_700_000_000_042), 5)
	assert.Equal(t, "T0004205", p)
	assert.Len(t, p, PlaceholderLength)
	assert.True(t, IsPlaceholder(p))

	assert.Len(t, Placeholder(time.UnixMilli(99_999), 123), PlaceholderLength)
	assert.False(t, IsPlaceholder("45678912"))
	assert.False(t, IsPlaceholder(""))
}
