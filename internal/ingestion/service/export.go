package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/xuri/excelize/v2"

	acmodels "sigcerh/internal/academic/models"
	"sigcerh/internal/ingestion/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

const (
	notesSheet  = "Notes"
	recordSheet = "Record"
)

var fixedColumns = []any{"No.", "National ID", "Temporary ID", "Paternal surname", "Maternal surname", "First names", "Outcome"}

// Export renders the normalized links and notes of one record as an XLSX
// workbook: one row per linked student, one column per area in curriculum
// order, plus a sheet describing the record.
func (s *Service) Export(ctx context.Context, recordID id.RecordID) ([]byte, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !rec.Normalized {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "record has not been normalized")
	}
	links, err := s.store.ListLinksByRecord(ctx, recordID)
	if err != nil {
		return nil, translate(err, "failed to list record links")
	}
	notes, areas, err := s.notesAndAreas(ctx, links)
	if err != nil {
		return nil, err
	}

	columns := make([]acmodels.Area, 0, len(areas))
	for _, a := range areas {
		columns = append(columns, a)
	}
	slices.SortFunc(columns, func(a, b acmodels.Area) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.Code, b.Code))
	})

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", notesSheet); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build workbook")
	}

	header := slices.Clone(fixedColumns)
	for _, a := range columns {
		header = append(header, a.Code)
	}
	if err := f.SetSheetRow(notesSheet, "A1", &header); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write header")
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(notesSheet, "A1", last, bold)
	}

	for i, l := range links {
		st, err := s.students.FindStudentByID(ctx, l.StudentID)
		if err != nil {
			return nil, translate(err, "failed to load linked student")
		}
		byArea := make(map[id.AreaID]models.Note, len(notes[l.ID]))
		for _, n := range notes[l.ID] {
			byArea[n.AreaID] = n
		}

		row := []any{l.Ordinal, st.NationalID, yesNo(st.Temporary), st.PaternalSurname, st.MaternalSurname, st.FirstNames, l.Outcome}
		for _, a := range columns {
			n, ok := byArea[a.ID]
			switch {
			case !ok:
				row = append(row, nil)
			case n.Value != nil:
				row = append(row, n.Value.InexactFloat64())
			default:
				row = append(row, n.Display())
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(notesSheet, cell, &row); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write row")
		}
	}

	if _, err := f.NewSheet(recordSheet); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build workbook")
	}
	normalizedAt := ""
	if rec.NormalizedAt != nil {
		normalizedAt = rec.NormalizedAt.UTC().Format("2006-01-02 15:04:05")
	}
	meta := [][]any{
		{"Record", rec.Number},
		{"Year", rec.Year},
		{"Grade", rec.Grade},
		{"Section", rec.Section},
		{"Shift", rec.Shift},
		{"Students", len(links)},
		{"Normalized at", normalizedAt},
	}
	for i, m := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(recordSheet, cell, &m); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write record sheet")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode workbook")
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
