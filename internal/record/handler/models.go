package handler

import (
	"strings"
	"time"

	"sigcerh/internal/record/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

type StateRequest struct {
	State string `json:"state"`

	state models.State
}

func (r *StateRequest) Validate() error {
	st, err := models.ParseState(r.State)
	if err != nil {
		return err
	}
	r.state = st
	return nil
}

type CorrectionsRequest struct {
	Corrections []models.Correction `json:"corrections"`
	Note        string              `json:"note"`
}

func (r *CorrectionsRequest) Validate() error {
	if len(r.Corrections) == 0 {
		return dErrors.New(dErrors.CodeValidation, "corrections are required")
	}
	for i, c := range r.Corrections {
		if strings.TrimSpace(c.Field) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "corrections[%d].field is required", i)
		}
	}
	return nil
}

type RecordResponse struct {
	ID            id.RecordID  `json:"id"`
	Institution   string       `json:"institution"`
	Number        string       `json:"number"`
	Year          int          `json:"year"`
	Grade         int          `json:"grade"`
	Section       string       `json:"section,omitempty"`
	Shift         string       `json:"shift,omitempty"`
	Kind          string       `json:"kind,omitempty"`
	Folio         string       `json:"folio,omitempty"`
	ContentHash   string       `json:"content_hash"`
	State         models.State `json:"state"`
	HasExtraction bool         `json:"has_extraction"`
	StudentCount  int          `json:"student_count,omitempty"`
	ExtractedAt   *time.Time   `json:"extracted_at,omitempty"`
	Normalized    bool         `json:"normalized"`
	NormalizedAt  *time.Time   `json:"normalized_at,omitempty"`
	Corrections   int          `json:"corrections,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

func toResponse(r *models.Record) RecordResponse {
	resp := RecordResponse{
		ID:            r.ID,
		Institution:   r.Institution,
		Number:        r.Number,
		Year:          r.Year,
		Grade:         r.Grade,
		Section:       r.Section,
		Shift:         r.Shift,
		Kind:          r.Kind,
		Folio:         r.Folio,
		ContentHash:   r.ContentHash,
		State:         r.State,
		HasExtraction: r.HasExtraction(),
		ExtractedAt:   r.ExtractedAt,
		Normalized:    r.Normalized,
		NormalizedAt:  r.NormalizedAt,
		Corrections:   len(r.Corrections),
		CreatedAt:     r.CreatedAt,
	}
	if r.Extraction != nil {
		resp.StudentCount = len(r.Extraction.Students)
	}
	return resp
}
