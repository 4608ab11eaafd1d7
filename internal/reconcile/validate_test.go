package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scores(kv ...string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = json.RawMessage(kv[i+1])
	}
	return out
}

func issueKinds(issues []Issue) []IssueKind {
	out := make([]IssueKind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func TestValidate(t *testing.T) {
	areas := curriculum()

	t.Run("clean page passes with stats", func(t *testing.T) {
		rows := []Row{
			{Ordinal: 1, NationalID: "12345678", FirstNames: "Rosa", PaternalSurname: "Quispe", MaternalSurname: "Mamani",
				Scores: scores("MATEMATICAS", `15`, "Comunicación", `"AD"`, "CTA", `"EXO"`)},
			{Ordinal: 2, NationalID: "87654321", FirstNames: "Luis", PaternalSurname: "Rojas", MaternalSurname: "Vega",
				Scores: scores("MATEMATICAS", `11.5`, "Comunicación", `null`)},
		}
		e := NewEngine(Options{AllowTemporaryIDs: true})
		rep := e.Validate(rows, e.MapAreas(rows, areas))

		require.True(t, rep.Valid, "%+v", rep.Errors)
		assert.Equal(t, Stats{
			Students: 2, WithID: 2, Notes: 4, Numeric: 2, Literal: 1, Exonerated: 1, Missing: 1,
			AreasDetected: 3, AreasMapped: 3,
		}, rep.Stats)
		assert.Empty(t, rep.Warnings)
	})

	t.Run("score outside the scale is a hard error", func(t *testing.T) {
		rows := []Row{{Ordinal: 1, NationalID: "12345678", FirstNames: "Rosa", PaternalSurname: "Quispe",
			MaternalSurname: "Mamani", Scores: scores("Matemática", `"25"`)}}
		e := NewEngine(Options{AllowTemporaryIDs: true})
		rep := e.Validate(rows, e.MapAreas(rows, areas))

		require.False(t, rep.Valid)
		require.Len(t, rep.Errors, 1)
		assert.Equal(t, IssueScoreRange, rep.Errors[0].Kind)
		assert.Contains(t, rep.Errors[0].Detail, "out of range 0–20")
		assert.Equal(t, "QUISPE MAMANI ROSA", rep.Errors[0].Name)
		assert.True(t, rep.RowFailed(0))
	})

	t.Run("missing names fail and missing maternal surname warns", func(t *testing.T) {
		rows := []Row{
			{Ordinal: 1, NationalID: "12345678", PaternalSurname: "Quispe", Scores: scores("MAT", `12`)},
			{Ordinal: 2, NationalID: "87654321", FirstNames: "Luis", PaternalSurname: "Rojas", Scores: scores("MAT", `12`)},
		}
		e := NewEngine(Options{AllowTemporaryIDs: true})
		rep := e.Validate(rows, e.MapAreas(rows, areas))

		assert.Equal(t, []IssueKind{IssueMissingName}, issueKinds(rep.Errors))
		assert.Equal(t, []IssueKind{IssueMissingMaternal}, issueKinds(rep.Warnings))
		assert.True(t, rep.RowFailed(0))
		assert.False(t, rep.RowFailed(1))
	})

	t.Run("missing id depends on temporary id policy", func(t *testing.T) {
		rows := []Row{{Ordinal: 1, FirstNames: "Rosa", PaternalSurname: "Quispe", MaternalSurname: "Mamani",
			Scores: scores("MAT", `12`)}}

		lenient := NewEngine(Options{AllowTemporaryIDs: true})
		rep := lenient.Validate(rows, lenient.MapAreas(rows, areas))
		assert.True(t, rep.Valid)
		assert.Equal(t, []IssueKind{IssueMissingID}, issueKinds(rep.Warnings))
		assert.Equal(t, 1, rep.Stats.WithoutID)

		strict := NewEngine(Options{})
		rep = strict.Validate(rows, strict.MapAreas(rows, areas))
		assert.False(t, rep.Valid)
		assert.Equal(t, []IssueKind{IssueMissingID}, issueKinds(rep.Errors))
	})

	t.Run("unmapped labels fail only under strict areas", func(t *testing.T) {
		rows := []Row{{Ordinal: 1, NationalID: "12345678", FirstNames: "Rosa", PaternalSurname: "Quispe",
			MaternalSurname: "Mamani", Scores: scores("MAT", `12`, "Religión", `14`)}}

		lenient := NewEngine(Options{AllowTemporaryIDs: true})
		rep := lenient.Validate(rows, lenient.MapAreas(rows, areas))
		assert.True(t, rep.Valid)
		assert.Equal(t, []IssueKind{IssueUnmappedArea}, issueKinds(rep.Warnings))
		assert.Equal(t, 1, rep.Stats.AreasUnmapped)
		assert.Equal(t, 1, rep.Stats.Notes)

		strict := NewEngine(Options{AllowTemporaryIDs: true, StrictAreas: true})
		rep = strict.Validate(rows, strict.MapAreas(rows, areas))
		assert.False(t, rep.Valid)
		assert.Equal(t, []IssueKind{IssueUnmappedArea}, issueKinds(rep.Errors))
		assert.False(t, rep.RowFailed(0))
	})

	t.Run("approximate mappings and empty rows warn", func(t *testing.T) {
		rows := []Row{{Ordinal: 1, NationalID: "12345678", FirstNames: "Rosa", PaternalSurname: "Quispe",
			MaternalSurname: "Mamani", Scores: scores("Educación para el Trabajo (taller)", `null`)}}
		e := NewEngine(Options{AllowTemporaryIDs: true})
		rep := e.Validate(rows, e.MapAreas(rows, areas))
		assert.True(t, rep.Valid)
		assert.ElementsMatch(t, []IssueKind{IssueApproximateArea, IssueMissingScores}, issueKinds(rep.Warnings))
	})
}

func TestBuildNotes(t *testing.T) {
	areas := curriculum()
	row := Row{Ordinal: 3, Scores: scores("Matemática", `14`, "MATEMATICAS", `15`, "COM", `""`, "Religión", `12`)}
	m := MapAreas(Labels([]Row{row}), areas, DefaultThreshold)

	notes, issues := BuildNotes(row, m)
	require.Len(t, notes, 1)
	assert.Equal(t, areas[0].ID, notes[0].AreaID)
	assert.Equal(t, "MATEMATICAS", notes[0].Label)
	assert.Equal(t, "15", notes[0].Score.String())
	assert.Equal(t, 100, notes[0].Confidence)
	assert.Equal(t, []IssueKind{IssueDuplicateArea}, issueKinds(issues))
}
