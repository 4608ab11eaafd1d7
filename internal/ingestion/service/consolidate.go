package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"

	acmodels "sigcerh/internal/academic/models"
	"sigcerh/internal/ingestion/models"
	"sigcerh/internal/reconcile"
	recmodels "sigcerh/internal/record/models"
	id "sigcerh/pkg/domain"
)

// secondaryGrades is the number of grades a complete secondary history spans.
const secondaryGrades = 5

// Consolidate gathers every normalized period of a student, notes in
// curriculum order, with the statistics certificate drafting needs.
func (s *Service) Consolidate(ctx context.Context, studentID id.StudentID) (*models.Consolidated, error) {
	st, err := s.students.FindStudentByID(ctx, studentID)
	if err != nil {
		return nil, translate(err, "student not found")
	}
	all, err := s.store.ListLinksByStudent(ctx, studentID)
	if err != nil {
		return nil, translate(err, "failed to list student links")
	}
	// Links of a record whose extraction changed since its last run are
	// left out until the record is normalized again.
	records := make(map[id.RecordID]*recmodels.Record, len(all))
	links := make([]models.Link, 0, len(all))
	for _, l := range all {
		rec, ok := records[l.RecordID]
		if !ok {
			if rec, err = s.records.Get(ctx, l.RecordID); err != nil {
				return nil, err
			}
			records[l.RecordID] = rec
		}
		if rec.Normalized {
			links = append(links, l)
		}
	}
	notes, areas, err := s.notesAndAreas(ctx, links)
	if err != nil {
		return nil, err
	}

	out := &models.Consolidated{
		Student: models.ConsolidatedStudent{
			ID:         st.ID,
			NationalID: st.NationalID,
			Temporary:  st.Temporary || reconcile.IsPlaceholder(st.NationalID),
			FullName:   st.FullName(),
			FirstNames: st.FirstNames,
			Paternal:   st.PaternalSurname,
			Maternal:   st.MaternalSurname,
		},
		Periods: make([]models.Period, 0, len(links)),
	}

	var values []decimal.Decimal
	for _, l := range links {
		rec := records[l.RecordID]
		period := models.Period{
			RecordID:     rec.ID,
			RecordNumber: rec.Number,
			Year:         rec.Year,
			Grade:        rec.Grade,
			Section:      rec.Section,
			Outcome:      l.Outcome,
			Notes:        periodNotes(notes[l.ID], areas),
		}
		var scores []decimal.Decimal
		for _, n := range period.Notes {
			if n.Value != nil {
				scores = append(scores, *n.Value)
			}
		}
		period.Average = average(scores)
		values = append(values, scores...)
		out.Periods = append(out.Periods, period)
	}
	slices.SortStableFunc(out.Periods, func(a, b models.Period) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Grade, b.Grade), cmp.Compare(a.RecordNumber, b.RecordNumber))
	})

	out.Summary = summarize(out.Periods, values)
	out.CanDraft = len(out.Periods) > 0
	return out, nil
}

func (s *Service) notesAndAreas(ctx context.Context, links []models.Link) (map[id.LinkID][]models.Note, map[id.AreaID]acmodels.Area, error) {
	linkIDs := make([]id.LinkID, len(links))
	for i, l := range links {
		linkIDs[i] = l.ID
	}
	notes, err := s.store.NotesByLinks(ctx, linkIDs)
	if err != nil {
		return nil, nil, translate(err, "failed to load notes")
	}
	var areaIDs []id.AreaID
	seen := make(map[id.AreaID]bool)
	for _, ns := range notes {
		for _, n := range ns {
			if !seen[n.AreaID] {
				seen[n.AreaID] = true
				areaIDs = append(areaIDs, n.AreaID)
			}
		}
	}
	areas, err := s.curriculum.Areas(ctx, areaIDs)
	if err != nil {
		return nil, nil, err
	}
	return notes, areas, nil
}

func periodNotes(notes []models.Note, areas map[id.AreaID]acmodels.Area) []models.PeriodNote {
	out := make([]models.PeriodNote, 0, len(notes))
	for _, n := range notes {
		a := areas[n.AreaID]
		out = append(out, models.PeriodNote{
			AreaID:   n.AreaID,
			AreaCode: a.Code,
			AreaName: a.Name,
			Position: a.Position,
			Value:    n.Value,
			Literal:  n.Literal,
			Display:  n.Display(),
		})
	}
	slices.SortStableFunc(out, func(a, b models.PeriodNote) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.AreaCode, b.AreaCode))
	})
	return out
}

func summarize(periods []models.Period, values []decimal.Decimal) models.Summary {
	sum := models.Summary{Periods: len(periods), Grades: []int{}, Missing: []int{}}
	for _, p := range periods {
		if sum.FirstYear == 0 || p.Year < sum.FirstYear {
			sum.FirstYear = p.Year
		}
		sum.LastYear = max(sum.LastYear, p.Year)
		if !slices.Contains(sum.Grades, p.Grade) {
			sum.Grades = append(sum.Grades, p.Grade)
		}
	}
	slices.Sort(sum.Grades)
	for g := 1; g <= secondaryGrades; g++ {
		if !slices.Contains(sum.Grades, g) {
			sum.Missing = append(sum.Missing, g)
		}
	}
	for _, v := range values {
		if v.GreaterThanOrEqual(models.PassingScore) {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	sum.Average = average(values)
	return sum
}

func average(values []decimal.Decimal) *decimal.Decimal {
	if len(values) == 0 {
		return nil
	}
	avg := decimal.Avg(values[0], values[1:]...).Round(2)
	return &avg
}
