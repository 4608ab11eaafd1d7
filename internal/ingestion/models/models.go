// Package models holds the rows derived from a physical record when its OCR
// output is normalized, and the shapes reported back to operators.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sigcerh/internal/reconcile"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

// DuplicatePolicy decides what happens when a student is already linked to
// the record being normalized.
type DuplicatePolicy string

const (
	DuplicateError     DuplicatePolicy = "error"
	DuplicateSkip      DuplicatePolicy = "skip"
	DuplicateOverwrite DuplicatePolicy = "overwrite"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DuplicateError, DuplicateSkip, DuplicateOverwrite:
		return p, nil
	case "":
		return DuplicateSkip, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown duplicate policy %q", s)
	}
}

// Mode is the partial failure policy of one deployment.
type Mode string

const (
	ModeBestEffort   Mode = "best_effort"
	ModeAllOrNothing Mode = "all_or_nothing"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeBestEffort, ModeAllOrNothing:
		return m, nil
	case "":
		return ModeBestEffort, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown ingestion mode %q", s)
	}
}

// Link ties a student to the record their grades were read from.
type Link struct {
	ID        id.LinkID    `json:"id"`
	RecordID  id.RecordID  `json:"record_id"`
	StudentID id.StudentID `json:"student_id"`
	Ordinal   int          `json:"number"`
	Outcome   string       `json:"outcome,omitempty"`
	Remarks   string       `json:"remarks,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewLink(recordID id.RecordID, studentID id.StudentID, ordinal int, outcome, remarks string, now time.Time) *Link {
	return &Link{
		ID:        id.NewLinkID(),
		RecordID:  recordID,
		StudentID: studentID,
		Ordinal:   ordinal,
		Outcome:   strings.ToUpper(strings.TrimSpace(outcome)),
		Remarks:   strings.TrimSpace(remarks),
		CreatedAt: now,
	}
}

// Note is one grade of a linked student in one area. Value is set only for
// numeric notes.
type Note struct {
	ID         id.NoteID           `json:"id"`
	LinkID     id.LinkID           `json:"link_id"`
	AreaID     id.AreaID           `json:"area_id"`
	Kind       reconcile.ScoreKind `json:"kind"`
	Value      *decimal.Decimal    `json:"value,omitempty"`
	Literal    string              `json:"literal,omitempty"`
	Label      string              `json:"original_label"`
	Confidence int                 `json:"confidence"`
	Method     reconcile.Method    `json:"method"`
}

// NewNote converts a reconciled note into a row of link.
func NewNote(linkID id.LinkID, n reconcile.Note) Note {
	note := Note{
		ID:         id.NewNoteID(),
		LinkID:     linkID,
		AreaID:     n.AreaID,
		Kind:       n.Score.Kind,
		Literal:    n.Score.Literal,
		Label:      n.Label,
		Confidence: n.Confidence,
		Method:     n.Method,
	}
	if n.Score.Kind == reconcile.ScoreNumeric {
		v := n.Score.Value
		note.Value = &v
	}
	return note
}

// Display renders the note the way certificates print it.
func (n Note) Display() string {
	switch n.Kind {
	case reconcile.ScoreNumeric:
		if n.Value != nil {
			return n.Value.String()
		}
	case reconcile.ScoreLiteral:
		return n.Literal
	case reconcile.ScoreExonerated:
		return "EXO"
	}
	return ""
}

// Phase names the step of a row that failed.
type Phase string

const (
	PhaseValidation Phase = "validation"
	PhaseStudent    Phase = "student"
	PhaseLink       Phase = "link"
	PhaseNotes      Phase = "notes"
)

// RowError is a row that could not be written. Number is the ordinal printed
// on the ledger, Index its position in the payload.
type RowError struct {
	Index      int    `json:"index"`
	Number     int    `json:"number"`
	Name       string `json:"name"`
	NationalID string `json:"national_id,omitempty"`
	Phase      Phase  `json:"phase"`
	Reason     string `json:"reason"`
}

// Result aggregates one normalization run.
type Result struct {
	RecordID     id.RecordID   `json:"record_id"`
	Created      int           `json:"created"`
	Existing     int           `json:"existing"`
	Linked       int           `json:"linked"`
	Skipped      int           `json:"skipped"`
	NotesWritten int           `json:"notes_written"`
	Purged       int           `json:"purged"`
	Warnings     int           `json:"warnings"`
	RowErrors    []RowError    `json:"row_errors"`
	Duration     time.Duration `json:"duration_ns"`
	Truncated    bool          `json:"truncated"`
}

// BatchItem is the outcome for one record of a NormalizeMany call.
type BatchItem struct {
	RecordID id.RecordID  `json:"record_id"`
	Result   *Result      `json:"result,omitempty"`
	Code     dErrors.Code `json:"error_code,omitempty"`
	Error    string       `json:"error,omitempty"`
}
