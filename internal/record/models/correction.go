package models

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"

	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

// scorePrefix addresses one subject score, as in "scores.MATEMATICA".
const scorePrefix = "scores."

// correctableFields are the row fields an operator may rewrite, named as in
// the extraction envelope.
var correctableFields = []string{
	"national_id",
	"paternal_surname",
	"maternal_surname",
	"first_names",
	"sex",
	"birth_date",
	"outcome",
	"remarks",
}

// Correction replaces one value of one ledger row. Previous must match the
// value currently stored; an empty Value clears the field.
type Correction struct {
	Number   int    `json:"number"`
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Value    string `json:"value"`
}

// CorrectionEntry is an applied correction kept with the record.
type CorrectionEntry struct {
	Correction
	Note    string     `json:"note,omitempty"`
	ActorID id.ActorID `json:"actor_id"`
	At      time.Time  `json:"at"`
}

// AddCorrections appends applied corrections to the record history.
func (r *Record) AddCorrections(cs []Correction, note string, actor id.ActorID, now time.Time) {
	for _, c := range cs {
		r.Corrections = append(r.Corrections, CorrectionEntry{Correction: c, Note: note, ActorID: actor, At: now})
	}
	r.UpdatedAt = now
}

// ApplyCorrections returns raw with every correction applied in order.
// Envelope fields it does not know about are carried over untouched.
func ApplyCorrections(raw []byte, corrections []Correction) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidationFailed, "stored extraction is not valid JSON")
	}
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(doc["students"], &rows); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidationFailed, "stored extraction has no student list")
	}

	for _, c := range corrections {
		row, err := findRow(rows, c.Number)
		if err != nil {
			return nil, err
		}
		if err := applyCorrection(row, c); err != nil {
			return nil, err
		}
	}

	students, err := json.Marshal(rows)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode corrected students")
	}
	doc["students"] = students
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode corrected extraction")
	}
	return out, nil
}

func findRow(rows []map[string]json.RawMessage, number int) (map[string]json.RawMessage, error) {
	var found map[string]json.RawMessage
	for _, row := range rows {
		var n int
		if err := json.Unmarshal(row["number"], &n); err != nil || n != number {
			continue
		}
		if found != nil {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "row number %d appears more than once", number)
		}
		found = row
	}
	if found == nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "row number %d not found", number)
	}
	return found, nil
}

func applyCorrection(row map[string]json.RawMessage, c Correction) error {
	field := strings.TrimSpace(c.Field)
	if label, ok := strings.CutPrefix(field, scorePrefix); ok {
		label = strings.TrimSpace(label)
		if label == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "score correction needs an area label")
		}
		scores := map[string]json.RawMessage{}
		if raw, ok := row["scores"]; ok && string(raw) != "null" {
			if err := json.Unmarshal(raw, &scores); err != nil {
				return dErrors.Wrap(err, dErrors.CodeValidationFailed, "stored scores are not an object")
			}
		}
		if err := checkPrevious(c, displayValue(scores[label])); err != nil {
			return err
		}
		scores[label] = scoreValue(c.Value)
		encoded, err := json.Marshal(scores)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode scores")
		}
		row["scores"] = encoded
		return nil
	}

	if !slices.Contains(correctableFields, field) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "field %q cannot be corrected", c.Field)
	}
	if err := checkPrevious(c, displayValue(row[field])); err != nil {
		return err
	}
	value := strings.TrimSpace(c.Value)
	if value == "" {
		delete(row, field)
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode correction")
	}
	row[field] = encoded
	return nil
}

func checkPrevious(c Correction, current string) error {
	if strings.EqualFold(strings.TrimSpace(c.Previous), strings.TrimSpace(current)) {
		return nil
	}
	return dErrors.WithDetails(dErrors.CodeConflict,
		"row "+strconv.Itoa(c.Number)+" "+c.Field+" no longer holds the expected value",
		map[string]string{"field": c.Field, "current": current})
}

// displayValue renders a stored JSON value the way an operator reads it.
func displayValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// scoreValue keeps numeric input numeric so it parses like OCR output.
func scoreValue(v string) json.RawMessage {
	v = strings.TrimSpace(v)
	if v == "" {
		return json.RawMessage("null")
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))
	}
	encoded, _ := json.Marshal(v)
	return encoded
}
