package models

import id "sigcerh/pkg/domain"

// Comparison puts the OCR rows of a record beside the students and notes
// normalization stored for them, for review against the physical ledger.
type Comparison struct {
	RecordID   id.RecordID     `json:"record_id"`
	Normalized bool            `json:"normalized"`
	Rows       []ComparisonRow `json:"rows"`
	// Orphans are stored links whose number no longer appears in the OCR rows.
	Orphans     []ComparisonRow `json:"orphans,omitempty"`
	Differences int             `json:"differences"`
}

// ComparisonRow is one ledger row. The Stored fields are empty when the row
// was never linked.
type ComparisonRow struct {
	Number           int           `json:"number"`
	OCRName          string        `json:"ocr_name,omitempty"`
	OCRNationalID    string        `json:"ocr_national_id,omitempty"`
	OCRScores        int           `json:"ocr_scores"`
	Linked           bool          `json:"linked"`
	StudentID        *id.StudentID `json:"student_id,omitempty"`
	StoredName       string        `json:"stored_name,omitempty"`
	StoredNationalID string        `json:"stored_national_id,omitempty"`
	Temporary        bool          `json:"temporary,omitempty"`
	Notes            int           `json:"notes"`
	Differences      []string      `json:"differences,omitempty"`
}
