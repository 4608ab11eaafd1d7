package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

// State is the lifecycle of a physical record, separate from the request lifecycle.
type State string

const (
	StateAvailable State = "AVAILABLE"
	StateAssigned  State = "ASSIGNED"
	StateFound     State = "FOUND"
	StateNotFound  State = "NOT_FOUND"
)

var transitions = map[State][]State{
	StateAvailable: {StateAssigned},
	StateAssigned:  {StateFound, StateNotFound},
	StateFound:     {},
	StateNotFound:  {},
}

// ParseState validates a record state taken from external input.
func ParseState(s string) (State, error) {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown record state %q", s)
	}
	return st, nil
}

// Next returns the states reachable from s.
func (s State) Next() []State {
	return slices.Clone(transitions[s])
}

// CanMoveTo reports whether target is reachable from s in one step.
func (s State) CanMoveTo(target State) bool {
	return slices.Contains(transitions[s], target)
}

func (s State) String() string {
	return string(s)
}

const (
	MinYear = 1985
	MaxYear = 2012
)

// Record is a scanned ledger page.
//
// Invariants:
//   - ContentHash is unique across records
//   - (Number, Year) is unique across records
//   - Extraction is only present once the record reached StateFound
//   - Normalized implies NormalizedAt is set
type Record struct {
	ID            id.RecordID       `json:"id"`
	Institution   string            `json:"institution"`
	Number        string            `json:"number"`
	Year          int               `json:"year"`
	Grade         int               `json:"grade"`
	Section       string            `json:"section,omitempty"`
	Shift         string            `json:"shift,omitempty"`
	Kind          string            `json:"kind,omitempty"`
	Folio         string            `json:"folio,omitempty"`
	ContentHash   string            `json:"content_hash"`
	State         State             `json:"state"`
	Extraction    *Extraction       `json:"-"`
	RawExtraction json.RawMessage   `json:"-"`
	ExtractedAt   *time.Time        `json:"extracted_at,omitempty"`
	Normalized    bool              `json:"normalized"`
	NormalizedAt  *time.Time        `json:"normalized_at,omitempty"`
	Corrections   []CorrectionEntry `json:"corrections,omitempty"`
	UploadedBy    id.ActorID        `json:"uploaded_by"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// HasExtraction reports whether OCR output has been attached.
func (r *Record) HasExtraction() bool {
	return r.Extraction != nil
}

// MoveTo changes the record state. Moving to the current state is a no-op.
func (r *Record) MoveTo(target State, now time.Time) error {
	if r.State == target {
		return nil
	}
	if !r.State.CanMoveTo(target) {
		allowed := make([]string, 0, len(transitions[r.State]))
		for _, s := range r.State.Next() {
			allowed = append(allowed, string(s))
		}
		return dErrors.NewInvalidTransition(string(r.State), string(target), allowed)
	}
	r.State = target
	r.UpdatedAt = now
	return nil
}

// MarkNormalized flags the record as reconciled into canonical rows.
func (r *Record) MarkNormalized(now time.Time) {
	t := now
	r.Normalized = true
	r.NormalizedAt = &t
	r.UpdatedAt = now
}

// ClearNormalized drops the reconciled flag. It reports whether anything changed.
func (r *Record) ClearNormalized(now time.Time) bool {
	if !r.Normalized && r.NormalizedAt == nil {
		return false
	}
	r.Normalized = false
	r.NormalizedAt = nil
	r.UpdatedAt = now
	return true
}

// Clone returns a copy that shares no mutable state with r.
func (r *Record) Clone() *Record {
	c := *r
	c.RawExtraction = slices.Clone(r.RawExtraction)
	c.Corrections = slices.Clone(r.Corrections)
	if r.Extraction != nil {
		ext := r.Extraction.clone()
		c.Extraction = &ext
	}
	if r.ExtractedAt != nil {
		t := *r.ExtractedAt
		c.ExtractedAt = &t
	}
	if r.NormalizedAt != nil {
		t := *r.NormalizedAt
		c.NormalizedAt = &t
	}
	return &c
}
