package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	acmodels "sigcerh/internal/academic/models"
	"sigcerh/internal/ingestion/models"
	"sigcerh/internal/reconcile"
	recmodels "sigcerh/internal/record/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/requestcontext"
)

// MaxBatchSize bounds the records of one NormalizeMany call.
const MaxBatchSize = 50

// plan is everything reconciliation decides about a record before writing.
type plan struct {
	record *recmodels.Record
	rows   []reconcile.Row
	areas  reconcile.AreaMap
	report reconcile.Report
}

// rowOutcome is what one committed row contributed.
type rowOutcome struct {
	created bool
	skipped bool
	notes   int
}

// Normalize reconciles the OCR output of a record into students, links and
// notes. Links of an earlier run are purged first, so repeating the call with
// the same payload converges on the same content.
//
// In best effort mode every row is its own unit of work and a failing row is
// reported in RowErrors while the rest continue. Errors that belong to the
// whole page still abort before any write. In all or nothing mode an invalid
// report aborts before any write and the whole run is one unit.
func (s *Service) Normalize(ctx context.Context, recordID id.RecordID, actor id.ActorID) (*models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "ingestion.Normalize", trace.WithAttributes(
		attribute.String("record.id", recordID.String()),
		attribute.String("ingestion.mode", string(s.cfg.Mode)),
	))
	defer span.End()
	start := s.now()

	res, err := s.normalize(ctx, recordID, actor, start)
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("ingestion.linked", res.Linked),
			attribute.Int("ingestion.row_errors", len(res.RowErrors)),
			attribute.Bool("ingestion.truncated", res.Truncated),
		)
	}
	s.metrics.IncrementNormalization(string(s.cfg.Mode), outcome)
	s.metrics.ObserveNormalizeDuration(s.now().Sub(start))
	return res, err
}

func (s *Service) normalize(ctx context.Context, recordID id.RecordID, actor id.ActorID, start time.Time) (*models.Result, error) {
	unlock, err := s.locker.Lock(ctx, "normalize:"+recordID.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			s.metrics.IncrementLockUnavailable()
		}
		return nil, translate(err, "record is already being normalized")
	}
	defer unlock()

	p, err := s.plan(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if s.cfg.Mode == models.ModeAllOrNothing && !p.report.Valid {
		return nil, dErrors.WithDetails(dErrors.CodeValidationFailed,
			fmt.Sprintf("extraction has %d validation errors", len(p.report.Errors)), p.report)
	}
	if page := p.report.PageErrors(); len(page) > 0 {
		return nil, dErrors.WithDetails(dErrors.CodeValidationFailed,
			fmt.Sprintf("extraction has %d page level errors", len(page)), p.report)
	}

	res := &models.Result{RecordID: recordID, Warnings: len(p.report.Warnings)}
	if s.cfg.Mode == models.ModeAllOrNothing {
		err = s.normalizeAtomically(ctx, p, res)
	} else {
		err = s.normalizeBestEffort(ctx, p, res, start)
	}
	if err != nil {
		return nil, err
	}
	res.Duration = s.now().Sub(start)

	s.metrics.AddRows("linked", res.Linked)
	s.metrics.AddRows("skipped", res.Skipped)
	s.metrics.AddRows("failed", len(res.RowErrors))
	s.metrics.AddNotes(res.NotesWritten)
	s.logger.InfoContext(ctx, "record normalized",
		"record_id", recordID,
		"actor_id", actor,
		"mode", s.cfg.Mode,
		"purged", res.Purged,
		"created", res.Created,
		"existing", res.Existing,
		"linked", res.Linked,
		"skipped", res.Skipped,
		"notes", res.NotesWritten,
		"row_errors", len(res.RowErrors),
		"truncated", res.Truncated,
	)
	return res, nil
}

func (s *Service) normalizeAtomically(ctx context.Context, p *plan, res *models.Result) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		purged, err := s.store.PurgeRecord(ctx, p.record.ID)
		if err != nil {
			return translate(err, "failed to purge previous normalization")
		}
		res.Purged = purged
		if err := s.records.ClearNormalized(ctx, p.record.ID); err != nil {
			return err
		}
		for i, row := range p.rows {
			out, phase, err := s.writeRow(ctx, p, row)
			if err != nil {
				rowErr := rowError(i, row, phase, err)
				return dErrors.WithDetails(dErrors.CodeOf(err),
					fmt.Sprintf("row %d failed: %s", row.Ordinal, rowErr.Reason), []models.RowError{rowErr})
			}
			out.applyTo(res)
		}
		if err := s.records.MarkNormalized(ctx, p.record.ID); err != nil {
			return err
		}
		return nil
	})
}

// normalizeBestEffort purges and clears the normalized flag in one unit, then
// writes each row in its own unit of work. Rows already started are never
// interrupted; once the batch timeout passes the remaining rows are left for a
// rerun and the record stays unnormalized.
func (s *Service) normalizeBestEffort(ctx context.Context, p *plan, res *models.Result, start time.Time) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		purged, err := s.store.PurgeRecord(ctx, p.record.ID)
		if err != nil {
			return translate(err, "failed to purge previous normalization")
		}
		res.Purged = purged
		return s.records.ClearNormalized(ctx, p.record.ID)
	})
	if err != nil {
		return err
	}

	rowCtx := context.WithoutCancel(ctx)
	for i, row := range p.rows {
		if s.expired(ctx, start) {
			res.Truncated = true
			s.metrics.AddRows("truncated", len(p.rows)-i)
			break
		}
		if p.report.RowFailed(i) {
			res.RowErrors = append(res.RowErrors, rowError(i, row, models.PhaseValidation,
				errors.New(rowIssues(p.report, i))))
			continue
		}

		var out rowOutcome
		var phase models.Phase
		err := s.tx.RunInTx(rowCtx, func(ctx context.Context) error {
			var err error
			out, phase, err = s.writeRow(ctx, p, row)
			return err
		})
		if err != nil {
			s.logger.WarnContext(ctx, "ledger row failed",
				"record_id", p.record.ID,
				"number", row.Ordinal,
				"phase", phase,
				"error", err,
			)
			res.RowErrors = append(res.RowErrors, rowError(i, row, phase, err))
			continue
		}
		out.applyTo(res)
	}

	if res.Truncated {
		return nil
	}
	return s.records.MarkNormalized(rowCtx, p.record.ID)
}

func (s *Service) expired(ctx context.Context, start time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return s.cfg.BatchTimeout > 0 && s.now().Sub(start) >= s.cfg.BatchTimeout
}

// writeRow resolves the student of one row, applies the duplicate policy and
// writes its link and notes. It must run inside a unit of work.
func (s *Service) writeRow(ctx context.Context, p *plan, row reconcile.Row) (rowOutcome, models.Phase, error) {
	var out rowOutcome
	now := requestcontext.Now(ctx)

	match, err := s.matcher.Match(ctx, row, now)
	if err != nil {
		return out, models.PhaseStudent, translate(err, "failed to resolve student")
	}
	studentID := match.StudentID
	if match.Kind == reconcile.MatchNew {
		st, err := acmodels.NewStudent(match.NationalID, match.Temporary, row.FirstNames, row.PaternalSurname,
			row.MaternalSurname, row.Sex, parseBirthDate(row.BirthDate), now)
		if err != nil {
			return out, models.PhaseStudent, err
		}
		if err := s.students.CreateStudent(ctx, st); err != nil {
			return out, models.PhaseStudent, translate(err, "failed to create student")
		}
		studentID = st.ID
		out.created = true
	}

	existing, err := s.store.FindLink(ctx, p.record.ID, studentID)
	switch {
	case err == nil:
		switch s.cfg.DuplicatePolicy {
		case models.DuplicateError:
			return out, models.PhaseLink, dErrors.New(dErrors.CodeConflict, "student is already linked to this record")
		case models.DuplicateSkip:
			out.skipped = true
			return out, "", nil
		case models.DuplicateOverwrite:
			if err := s.store.DeleteLink(ctx, existing.ID); err != nil {
				return out, models.PhaseLink, translate(err, "failed to replace link")
			}
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return out, models.PhaseLink, translate(err, "failed to check existing link")
	}

	link := models.NewLink(p.record.ID, studentID, row.Ordinal, row.Outcome, row.Remarks, now)
	if err := s.store.CreateLink(ctx, link); err != nil {
		return out, models.PhaseLink, translate(err, "failed to create link")
	}

	reconciled, _ := reconcile.BuildNotes(row, p.areas)
	notes := make([]models.Note, 0, len(reconciled))
	for _, n := range reconciled {
		notes = append(notes, models.NewNote(link.ID, n))
	}
	if len(notes) > 0 {
		if err := s.store.CreateNotes(ctx, notes); err != nil {
			return out, models.PhaseNotes, translate(err, "failed to write notes")
		}
	}
	out.notes = len(notes)
	return out, "", nil
}

func (r rowOutcome) applyTo(res *models.Result) {
	if r.created {
		res.Created++
	} else {
		res.Existing++
	}
	if r.skipped {
		res.Skipped++
		return
	}
	res.Linked++
	res.NotesWritten += r.notes
}

// Validate runs the reconciliation checks for a record without writing.
func (s *Service) Validate(ctx context.Context, recordID id.RecordID) (*reconcile.Report, error) {
	p, err := s.plan(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &p.report, nil
}

// NormalizeMany normalizes independent records concurrently. A failing record
// does not stop the others; each outcome is reported in input order.
func (s *Service) NormalizeMany(ctx context.Context, recordIDs []id.RecordID, actor id.ActorID) ([]models.BatchItem, error) {
	if len(recordIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one record id is required")
	}
	if len(recordIDs) > MaxBatchSize {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "at most %d records per batch", MaxBatchSize)
	}

	items := make([]models.BatchItem, len(recordIDs))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, recordID := range recordIDs {
		g.Go(func() error {
			item := models.BatchItem{RecordID: recordID}
			res, err := s.Normalize(ctx, recordID, actor)
			if err != nil {
				item.Code = dErrors.CodeOf(err)
				item.Error = err.Error()
			} else {
				item.Result = res
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()
	return items, ctx.Err()
}

func (s *Service) plan(ctx context.Context, recordID id.RecordID) (*plan, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.State != recmodels.StateFound {
		return nil, dErrors.Newf(dErrors.CodePreconditionFailed, "record must be %s to normalize, it is %s",
			recmodels.StateFound, rec.State)
	}
	if !rec.HasExtraction() {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "record has no extracted data")
	}

	curriculum, err := s.curriculum.Template(ctx, rec.Year, rec.Grade)
	if err != nil {
		return nil, err
	}
	areas := make([]reconcile.Area, 0, len(curriculum.Areas))
	for _, a := range curriculum.Areas {
		areas = append(areas, reconcile.Area{ID: a.ID, Code: a.Code, Name: a.Name, Position: a.Position})
	}

	rows := toRows(rec.Extraction)
	areaMap := s.engine.MapAreas(rows, areas)
	return &plan{
		record: rec,
		rows:   rows,
		areas:  areaMap,
		report: s.engine.Validate(rows, areaMap),
	}, nil
}

func toRows(ext *recmodels.Extraction) []reconcile.Row {
	rows := make([]reconcile.Row, len(ext.Students))
	for i, st := range ext.Students {
		rows[i] = reconcile.Row{
			Ordinal:         st.Ordinal,
			NationalID:      st.NationalID,
			FirstNames:      st.FirstNames,
			PaternalSurname: st.PaternalSurname,
			MaternalSurname: st.MaternalSurname,
			Sex:             st.Sex,
			BirthDate:       st.BirthDate,
			Outcome:         st.Outcome,
			Remarks:         st.Remarks,
			Scores:          st.Scores,
		}
	}
	return rows
}

func parseBirthDate(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}

func rowError(index int, row reconcile.Row, phase models.Phase, err error) models.RowError {
	reason := err.Error()
	var dErr *dErrors.Error
	if errors.As(err, &dErr) && dErr.Code == dErrors.CodeInternal {
		reason = dErr.Message
	}
	return models.RowError{
		Index:      index,
		Number:     row.Ordinal,
		Name:       row.Name(),
		NationalID: strings.TrimSpace(row.NationalID),
		Phase:      phase,
		Reason:     reason,
	}
}

func rowIssues(rep reconcile.Report, index int) string {
	var parts []string
	for _, is := range rep.Errors {
		if is.Index == index {
			parts = append(parts, is.Detail)
		}
	}
	return strings.Join(parts, "; ")
}
