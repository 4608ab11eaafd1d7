package service

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/blake2b"

	"sigcerh/internal/record/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/platform/tx"
	"sigcerh/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	FindByContentHash(ctx context.Context, hash string) (*models.Record, error)
	FindByNumberYear(ctx context.Context, number string, year int) (*models.Record, error)
	Update(ctx context.Context, r *models.Record) error
}

// Service owns physical records: upload, their own search lifecycle and the
// attachment of OCR output.
type Service struct {
	store       Store
	tx          tx.Runner
	institution string
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithInstitution sets the institution stamped on uploaded records.
func WithInstitution(institution string) Option {
	return func(s *Service) {
		s.institution = institution
	}
}

func New(store Store, runner tx.Runner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	svc := &Service{
		store:       store,
		tx:          runner,
		institution: "default",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type UploadCommand struct {
	Number  string
	Year    int
	Grade   int
	Section string
	Shift   string
	Kind    string
	Folio   string
	Content []byte
	ActorID id.ActorID
}

func (c *UploadCommand) normalize() {
	c.Number = strings.TrimSpace(c.Number)
	c.Section = strings.ToUpper(strings.TrimSpace(c.Section))
	c.Shift = strings.ToUpper(strings.TrimSpace(c.Shift))
	c.Kind = strings.ToUpper(strings.TrimSpace(c.Kind))
	c.Folio = strings.TrimSpace(c.Folio)
}

func (c *UploadCommand) validate() error {
	if c.Number == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "record number is required")
	}
	if c.Year < models.MinYear || c.Year > models.MaxYear {
		return dErrors.Newf(dErrors.CodeInvalidInput, "year must be between %d and %d", models.MinYear, models.MaxYear)
	}
	if c.Grade < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "grade must be positive")
	}
	if len(c.Content) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "record content is empty")
	}
	if c.ActorID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	return nil
}

// ContentHash is the hex BLAKE2b-256 digest used to reject byte-identical uploads.
func ContentHash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Upload registers a scanned ledger page in AVAILABLE.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*models.Record, error) {
	cmd.normalize()
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	rec := &models.Record{
		ID:          id.NewRecordID(),
		Institution: s.institution,
		Number:      cmd.Number,
		Year:        cmd.Year,
		Grade:       cmd.Grade,
		Section:     cmd.Section,
		Shift:       cmd.Shift,
		Kind:        cmd.Kind,
		Folio:       cmd.Folio,
		ContentHash: ContentHash(cmd.Content),
		State:       models.StateAvailable,
		UploadedBy:  cmd.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindByContentHash(ctx, rec.ContentHash)
		if err == nil {
			return dErrors.WithDetails(dErrors.CodeDuplicateContent, "a record with identical content already exists",
				map[string]string{"record_id": existing.ID.String()})
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check content hash")
		}
		if _, err := s.store.FindByNumberYear(ctx, rec.Number, rec.Year); err == nil {
			return dErrors.Newf(dErrors.CodeDuplicateContent, "record %s for year %d already exists", rec.Number, rec.Year)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check record number")
		}
		if err := s.store.Create(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeDuplicateContent, "record already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "record uploaded",
		"record_id", rec.ID,
		"number", rec.Number,
		"year", rec.Year,
		"actor_id", cmd.ActorID,
	)
	return rec, nil
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	rec, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, translate(err, "failed to load record")
	}
	return rec, nil
}

// MarkState moves the record along its own lifecycle. Repeating the current
// state succeeds without a write.
func (s *Service) MarkState(ctx context.Context, recordID id.RecordID, target models.State, actor id.ActorID) (*models.Record, error) {
	var rec *models.Record
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.store.FindByID(ctx, recordID)
		if err != nil {
			return translate(err, "failed to load record")
		}
		if rec.State == target {
			return nil
		}
		from := rec.State
		if err := rec.MoveTo(target, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, rec); err != nil {
			return translate(err, "failed to update record")
		}
		s.logger.InfoContext(ctx, "record state changed",
			"record_id", recordID,
			"from", from,
			"to", target,
			"actor_id", actor,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AttachExtraction validates OCR output and stores it with the record. The
// record must have been found first. A new extraction invalidates any earlier
// normalization.
func (s *Service) AttachExtraction(ctx context.Context, recordID id.RecordID, raw []byte, actor id.ActorID) (*models.Record, error) {
	ext, err := models.ParseExtraction(raw)
	if err != nil {
		return nil, err
	}

	var rec *models.Record
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.store.FindByID(ctx, recordID)
		if err != nil {
			return translate(err, "failed to load record")
		}
		if rec.State != models.StateFound {
			return dErrors.Newf(dErrors.CodePreconditionFailed,
				"record must be %s to accept extracted data, it is %s", models.StateFound, rec.State)
		}
		now := requestcontext.Now(ctx)
		rec.Extraction = ext
		rec.RawExtraction = append([]byte(nil), raw...)
		rec.ExtractedAt = &now
		rec.UpdatedAt = now
		rec.ClearNormalized(now)
		if err := s.store.Update(ctx, rec); err != nil {
			return translate(err, "failed to store extraction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "extraction attached",
		"record_id", recordID,
		"students", len(ext.Students),
		"actor_id", actor,
	)
	return rec, nil
}

// MarkNormalized flags a record as reconciled. Runs inside the caller's unit
// of work when there is one.
func (s *Service) MarkNormalized(ctx context.Context, recordID id.RecordID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.store.FindByID(ctx, recordID)
		if err != nil {
			return translate(err, "failed to load record")
		}
		rec.MarkNormalized(requestcontext.Now(ctx))
		if err := s.store.Update(ctx, rec); err != nil {
			return translate(err, "failed to mark record normalized")
		}
		return nil
	})
}

// MaxCorrections bounds the corrections of one CorrectExtraction call.
const MaxCorrections = 200

type CorrectCommand struct {
	RecordID    id.RecordID
	Corrections []models.Correction
	Note        string
	ActorID     id.ActorID
}

func (c *CorrectCommand) validate() error {
	if len(c.Corrections) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one correction is required")
	}
	if len(c.Corrections) > MaxCorrections {
		return dErrors.Newf(dErrors.CodeInvalidInput, "at most %d corrections per call", MaxCorrections)
	}
	if c.ActorID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	return nil
}

// CorrectExtraction applies operator corrections to the attached OCR output.
// The corrected payload goes through the same validation as a fresh
// extraction, the corrections are kept with the record, and the record must
// be normalized again before its notes are served.
func (s *Service) CorrectExtraction(ctx context.Context, cmd CorrectCommand) (*models.Record, error) {
	cmd.Note = strings.TrimSpace(cmd.Note)
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	var rec *models.Record
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.store.FindByID(ctx, cmd.RecordID)
		if err != nil {
			return translate(err, "failed to load record")
		}
		if rec.State != models.StateFound || !rec.HasExtraction() {
			return dErrors.New(dErrors.CodePreconditionFailed, "record has no extracted data to correct")
		}
		raw, err := models.ApplyCorrections(rec.RawExtraction, cmd.Corrections)
		if err != nil {
			return err
		}
		ext, err := models.ParseExtraction(raw)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		rec.Extraction = ext
		rec.RawExtraction = raw
		rec.AddCorrections(cmd.Corrections, cmd.Note, cmd.ActorID, now)
		rec.ClearNormalized(now)
		if err := s.store.Update(ctx, rec); err != nil {
			return translate(err, "failed to store corrections")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "extraction corrected",
		"record_id", cmd.RecordID,
		"corrections", len(cmd.Corrections),
		"actor_id", cmd.ActorID,
	)
	return rec, nil
}

// ClearNormalized drops the reconciled flag, typically in the same unit that
// purges the derived links and notes. A record that is not normalized is left
// untouched.
func (s *Service) ClearNormalized(ctx context.Context, recordID id.RecordID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.store.FindByID(ctx, recordID)
		if err != nil {
			return translate(err, "failed to load record")
		}
		if !rec.ClearNormalized(requestcontext.Now(ctx)) {
			return nil
		}
		if err := s.store.Update(ctx, rec); err != nil {
			return translate(err, "failed to clear record normalization")
		}
		return nil
	})
}

func translate(err error, msg string) error {
	var dErr *dErrors.Error
	switch {
	case errors.As(err, &dErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "record not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
