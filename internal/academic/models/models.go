// Package models holds the canonical academic entities that reconciliation
// resolves OCR rows onto.
package models

import (
	"strings"
	"time"

	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

// MaxNationalIDLength bounds national ids, including temporary placeholders.
const MaxNationalIDLength = 8

// Student is a canonical identity. NationalID is unique; Temporary marks a
// synthesized placeholder that a later real id may replace.
type Student struct {
	ID              id.StudentID `json:"id"`
	NationalID      string       `json:"national_id"`
	Temporary       bool         `json:"national_id_temporary"`
	FirstNames      string       `json:"first_names"`
	PaternalSurname string       `json:"paternal_surname"`
	MaternalSurname string       `json:"maternal_surname"`
	Sex             string       `json:"sex,omitempty"`
	BirthDate       *time.Time   `json:"birth_date,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// NewStudent validates and builds a Student. Names are stored upper-cased.
func NewStudent(nationalID string, temporary bool, first, paternal, maternal, sex string, birth *time.Time, now time.Time) (*Student, error) {
	s := &Student{
		ID:              id.NewStudentID(),
		NationalID:      strings.TrimSpace(nationalID),
		Temporary:       temporary,
		FirstNames:      cleanName(first),
		PaternalSurname: cleanName(paternal),
		MaternalSurname: cleanName(maternal),
		Sex:             strings.ToUpper(strings.TrimSpace(sex)),
		BirthDate:       birth,
		CreatedAt:       now,
	}
	if s.NationalID == "" {
		return nil, dErrors.New(dErrors.CodeMissingIdentifier, "student national id is required")
	}
	if len(s.NationalID) > MaxNationalIDLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "national id exceeds %d characters", MaxNationalIDLength)
	}
	if s.FirstNames == "" || s.PaternalSurname == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student names are required")
	}
	return s, nil
}

// FullName renders surnames first, the way ledgers list students.
func (s *Student) FullName() string {
	return strings.TrimSpace(strings.Join([]string{s.PaternalSurname, s.MaternalSurname, s.FirstNames}, " "))
}

func cleanName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Area is a curricular subject of one institution. Position orders areas on
// certificates and breaks ties during matching.
type Area struct {
	ID          id.AreaID `json:"id"`
	Institution string    `json:"institution"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	Active      bool      `json:"active"`
}

// NewArea validates and builds an active Area.
func NewArea(institution, code, name string, position int) (*Area, error) {
	a := &Area{
		ID:          id.NewAreaID(),
		Institution: strings.TrimSpace(institution),
		Code:        strings.ToUpper(strings.TrimSpace(code)),
		Name:        strings.TrimSpace(name),
		Position:    position,
		Active:      true,
	}
	if a.Institution == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "institution is required")
	}
	if a.Code == "" || a.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "area code and name are required")
	}
	if a.Position < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "area position must be positive")
	}
	return a, nil
}

// Curriculum is the ordered subject list for one year and grade. Fallback is
// set when no template exists and the institution's active catalog was used.
type Curriculum struct {
	Institution string `json:"institution"`
	Year        int    `json:"year"`
	Grade       int    `json:"grade"`
	Areas       []Area `json:"areas"`
	Fallback    bool   `json:"fallback"`
}
