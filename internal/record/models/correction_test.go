package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sigcerh/pkg/domain-errors"
)

const ledgerPage = `{"schema":"sigcerh.ocr/v1","engine_build":"7.2",
	"students":[
		{"number":1,"national_id":"1234567","paternal_surname":"QISPE","first_names":"ANA","scores":{"MAT":12,"ARTE":"A"}},
		{"number":2,"paternal_surname":"ROJAS","first_names":"LUIS","scores":{}}
	]}`

func TestApplyCorrections(t *testing.T) {
	t.Run("rewrites text fields and scores", func(t *testing.T) {
		raw, err := ApplyCorrections([]byte(ledgerPage), []Correction{
			{Number: 1, Field: "paternal_surname", Previous: "qispe", Value: "QUISPE"},
			{Number: 1, Field: "national_id", Previous: "1234567", Value: "12345678"},
			{Number: 1, Field: "scores.MAT", Previous: "12", Value: "14.5"},
			{Number: 1, Field: "scores.ARTE", Previous: "A", Value: ""},
			{Number: 2, Field: "scores.COM", Previous: "", Value: "AD"},
		})
		require.NoError(t, err)

		ext, err := ParseExtraction(raw)
		require.NoError(t, err)
		first := ext.Students[0]
		assert.Equal(t, "QUISPE", first.PaternalSurname)
		assert.Equal(t, "12345678", first.NationalID)
		assert.Equal(t, "14.5", string(first.Scores["MAT"]))
		assert.Equal(t, "null", string(first.Scores["ARTE"]))
		assert.Equal(t, `"AD"`, string(ext.Students[1].Scores["COM"]))

		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.Equal(t, `"7.2"`, string(doc["engine_build"]), "unknown envelope fields survive")
	})

	t.Run("an empty value clears a text field", func(t *testing.T) {
		raw, err := ApplyCorrections([]byte(ledgerPage), []Correction{{Number: 1, Field: "national_id", Previous: "1234567"}})
		require.NoError(t, err)
		ext, err := ParseExtraction(raw)
		require.NoError(t, err)
		assert.Empty(t, ext.Students[0].NationalID)
	})

	t.Run("a stale previous value is a conflict", func(t *testing.T) {
		_, err := ApplyCorrections([]byte(ledgerPage), []Correction{{Number: 1, Field: "first_names", Previous: "ROSA", Value: "ANA MARIA"}})
		require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		details, ok := dErrors.DetailsOf(err).(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "ANA", details["current"])
	})

	t.Run("unknown rows and fields are invalid input", func(t *testing.T) {
		cases := map[string]Correction{
			"missing row":   {Number: 9, Field: "first_names", Value: "X"},
			"unknown field": {Number: 1, Field: "grade", Value: "3"},
			"bare prefix":   {Number: 1, Field: "scores.", Value: "3"},
		}
		for name, c := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := ApplyCorrections([]byte(ledgerPage), []Correction{c})
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			})
		}
	})

	t.Run("a repeated row number is ambiguous", func(t *testing.T) {
		page := `{"schema":"sigcerh.ocr/v1","students":[{"number":3,"scores":{}},{"number":3,"scores":{}}]}`
		_, err := ApplyCorrections([]byte(page), []Correction{{Number: 3, Field: "remarks", Value: "traslado"}})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
