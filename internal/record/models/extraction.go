package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"

	dErrors "sigcerh/pkg/domain-errors"
	strs "sigcerh/pkg/platform/strings"
)

// ExtractionSchemaV1 tags the only envelope version currently accepted.
const ExtractionSchemaV1 = "sigcerh.ocr/v1"

// Extraction is the structured OCR output for one ledger page.
type Extraction struct {
	Schema   string             `json:"schema" validate:"required,eq=sigcerh.ocr/v1"`
	Students []ExtractedStudent `json:"students" validate:"required,min=1,dive"`
	Metadata ExtractionMetadata `json:"metadata"`
}

// ExtractedStudent is one row of the ledger. Scores maps a subject label as
// printed on the page to a number, a string, or null.
type ExtractedStudent struct {
	Ordinal         int                        `json:"number" validate:"gte=0,lte=99"`
	NationalID      string                     `json:"national_id,omitempty" validate:"omitempty,max=20"`
	PaternalSurname string                     `json:"paternal_surname"`
	MaternalSurname string                     `json:"maternal_surname"`
	FirstNames      string                     `json:"first_names"`
	Sex             string                     `json:"sex,omitempty" validate:"omitempty,oneof=M F H"`
	BirthDate       string                     `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Outcome         string                     `json:"outcome,omitempty" validate:"max=40"`
	Remarks         string                     `json:"remarks,omitempty"`
	Scores          map[string]json.RawMessage `json:"scores"`
}

// ExtractionMetadata is what the OCR collaborator reports about its own run.
type ExtractionMetadata struct {
	TotalStudents     int      `json:"total_students" validate:"gte=0"`
	AverageConfidence float64  `json:"average_confidence" validate:"gte=0,lte=100"`
	DetectedAreas     []string `json:"detected_areas,omitempty"`
	ProcessedAt       string   `json:"processed_at,omitempty"`
	Model             string   `json:"model,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

var validate = validator.New()

// ParseExtraction decodes and validates an OCR envelope. Unknown fields are
// tolerated so newer collaborators can add metadata without breaking ingestion.
func ParseExtraction(raw []byte) (*Extraction, error) {
	var header struct {
		Schema string `json:"schema"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidationFailed, "extraction payload is not valid JSON")
	}
	if header.Schema != ExtractionSchemaV1 {
		return nil, dErrors.Newf(dErrors.CodeValidationFailed, "unsupported extraction schema %q", header.Schema)
	}

	var ext Extraction
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&ext); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidationFailed, "extraction payload has an invalid structure")
	}
	if err := validate.Struct(ext); err != nil {
		return nil, dErrors.WithDetails(dErrors.CodeValidationFailed, "extraction payload failed validation", fieldErrors(err))
	}
	ext.Metadata.DetectedAreas = strs.DedupeAndTrim(ext.Metadata.DetectedAreas)
	ext.Metadata.Warnings = strs.DedupeAndTrim(ext.Metadata.Warnings)
	return &ext, nil
}

// FieldError is one failed constraint, reported back to the operator.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Rule: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		out = append(out, FieldError{Field: fe.Namespace(), Rule: rule})
	}
	return out
}

func (e Extraction) clone() Extraction {
	c := e
	c.Students = make([]ExtractedStudent, len(e.Students))
	for i, s := range e.Students {
		s.Scores = maps.Clone(s.Scores)
		c.Students[i] = s
	}
	c.Metadata.DetectedAreas = slices.Clone(e.Metadata.DetectedAreas)
	c.Metadata.Warnings = slices.Clone(e.Metadata.Warnings)
	return c
}
