package service

import (
	"context"
	"strings"

	"sigcerh/internal/ingestion/models"
	"sigcerh/internal/reconcile"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	strs "sigcerh/pkg/platform/strings"
)

// Differences reported by Compare.
const (
	DiffUnlinked   = "unlinked"
	DiffName       = "name"
	DiffNationalID = "national_id"
	DiffNotes      = "notes"
)

// Compare returns the OCR rows of a record next to the links, students and
// notes stored for them. Rows are paired by ledger number in payload order.
func (s *Service) Compare(ctx context.Context, recordID id.RecordID) (*models.Comparison, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !rec.HasExtraction() {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "record has no extracted data")
	}
	links, err := s.store.ListLinksByRecord(ctx, recordID)
	if err != nil {
		return nil, translate(err, "failed to list record links")
	}
	linkIDs := make([]id.LinkID, len(links))
	byNumber := make(map[int][]models.Link, len(links))
	for i, l := range links {
		linkIDs[i] = l.ID
		byNumber[l.Ordinal] = append(byNumber[l.Ordinal], l)
	}
	notes, err := s.store.NotesByLinks(ctx, linkIDs)
	if err != nil {
		return nil, translate(err, "failed to load notes")
	}

	out := &models.Comparison{RecordID: rec.ID, Normalized: rec.Normalized}
	for _, row := range toRows(rec.Extraction) {
		cmp := models.ComparisonRow{
			Number:        row.Ordinal,
			OCRName:       row.Name(),
			OCRNationalID: strings.TrimSpace(row.NationalID),
			OCRScores:     countScores(row),
		}
		if queue := byNumber[row.Ordinal]; len(queue) > 0 {
			byNumber[row.Ordinal] = queue[1:]
			if err := s.fillStored(ctx, &cmp, queue[0], notes); err != nil {
				return nil, err
			}
			cmp.Differences = differences(cmp)
		} else {
			cmp.Differences = []string{DiffUnlinked}
		}
		out.Differences += len(cmp.Differences)
		out.Rows = append(out.Rows, cmp)
	}
	for _, l := range links {
		queue := byNumber[l.Ordinal]
		if len(queue) == 0 || queue[0].ID != l.ID {
			continue
		}
		byNumber[l.Ordinal] = queue[1:]
		orphan := models.ComparisonRow{Number: l.Ordinal}
		if err := s.fillStored(ctx, &orphan, l, notes); err != nil {
			return nil, err
		}
		out.Orphans = append(out.Orphans, orphan)
	}
	return out, nil
}

func (s *Service) fillStored(ctx context.Context, cmp *models.ComparisonRow, l models.Link, notes map[id.LinkID][]models.Note) error {
	st, err := s.students.FindStudentByID(ctx, l.StudentID)
	if err != nil {
		return translate(err, "failed to load linked student")
	}
	studentID := st.ID
	cmp.Linked = true
	cmp.StudentID = &studentID
	cmp.StoredName = st.FullName()
	cmp.StoredNationalID = st.NationalID
	cmp.Temporary = st.Temporary || reconcile.IsPlaceholder(st.NationalID)
	cmp.Notes = len(notes[l.ID])
	return nil
}

func differences(c models.ComparisonRow) []string {
	var diffs []string
	if foldName(c.OCRName) != foldName(c.StoredName) {
		diffs = append(diffs, DiffName)
	}
	if c.OCRNationalID != "" && c.OCRNationalID != c.StoredNationalID {
		diffs = append(diffs, DiffNationalID)
	}
	if c.OCRScores > c.Notes {
		diffs = append(diffs, DiffNotes)
	}
	return diffs
}

func foldName(s string) string {
	return strs.CollapseUpper(strs.StripAccents(s))
}

// countScores counts the scores of a row that carry a value.
func countScores(row reconcile.Row) int {
	n := 0
	for _, raw := range row.Scores {
		if sc, err := reconcile.ParseScore(raw); err == nil && sc.Kind != reconcile.ScoreMissing {
			n++
		}
	}
	return n
}
