package models

import (
	"github.com/shopspring/decimal"

	id "sigcerh/pkg/domain"
)

// PassingScore is the lowest numeric note that counts as passed.
var PassingScore = decimal.NewFromInt(11)

// PeriodNote is one area grade within a period, in curriculum order.
type PeriodNote struct {
	AreaID   id.AreaID        `json:"area_id"`
	AreaCode string           `json:"area_code"`
	AreaName string           `json:"area_name"`
	Position int              `json:"position"`
	Value    *decimal.Decimal `json:"value,omitempty"`
	Literal  string           `json:"literal,omitempty"`
	Display  string           `json:"display"`
}

// Period is one school year of a student as read from one record.
type Period struct {
	RecordID     id.RecordID      `json:"record_id"`
	RecordNumber string           `json:"record_number"`
	Year         int              `json:"year"`
	Grade        int              `json:"grade"`
	Section      string           `json:"section,omitempty"`
	Outcome      string           `json:"outcome,omitempty"`
	Average      *decimal.Decimal `json:"average,omitempty"`
	Notes        []PeriodNote     `json:"notes"`
}

// Summary aggregates every period of a student.
type Summary struct {
	Periods   int              `json:"periods"`
	FirstYear int              `json:"first_year,omitempty"`
	LastYear  int              `json:"last_year,omitempty"`
	Grades    []int            `json:"grades"`
	Missing   []int            `json:"missing_grades"`
	Average   *decimal.Decimal `json:"average,omitempty"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// ConsolidatedStudent is the identity part of a consolidated view.
type ConsolidatedStudent struct {
	ID         id.StudentID `json:"id"`
	NationalID string       `json:"national_id"`
	Temporary  bool         `json:"national_id_temporary"`
	FullName   string       `json:"full_name"`
	FirstNames string       `json:"first_names"`
	Paternal   string       `json:"paternal_surname"`
	Maternal   string       `json:"maternal_surname"`
}

// Consolidated is everything certificate drafting needs about one student.
type Consolidated struct {
	Student  ConsolidatedStudent `json:"student"`
	Periods  []Period            `json:"periods"`
	Summary  Summary             `json:"summary"`
	CanDraft bool                `json:"can_draft"`
}
