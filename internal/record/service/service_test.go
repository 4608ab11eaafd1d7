package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigcerh/internal/record/models"
	"sigcerh/internal/record/store"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/tx"
	"sigcerh/pkg/requestcontext"
)

type RecordServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
	ctx     context.Context
}

func TestRecordServiceSuite(t *testing.T) {
	suite.Run(t, new(RecordServiceSuite))
}

func (s *RecordServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	runner := tx.NewMemoryRunner(s.store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error
	s.service, err = New(s.store, runner, WithLogger(logger), WithInstitution("IE-001"))
	s.Require().NoError(err)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
}

func (s *RecordServiceSuite) upload(number string, year int, content string) *models.Record {
	rec, err := s.service.Upload(s.ctx, UploadCommand{
		Number:  number,
		Year:    year,
		Grade:   3,
		Section: "a",
		Content: []byte(content),
		ActorID: "editor-1",
	})
	s.Require().NoError(err)
	return rec
}

func (s *RecordServiceSuite) foundRecord() *models.Record {
	rec := s.upload("045", 1998, "page-bytes")
	_, err := s.service.MarkState(s.ctx, rec.ID, models.StateAssigned, "editor-1")
	s.Require().NoError(err)
	rec, err = s.service.MarkState(s.ctx, rec.ID, models.StateFound, "editor-1")
	s.Require().NoError(err)
	return rec
}

func (s *RecordServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, tx.NewMemoryRunner())
		s.Error(err)
	})
	s.Run("nil runner returns error", func() {
		_, err := New(store.NewInMemory(), nil)
		s.Error(err)
	})
}

func (s *RecordServiceSuite) TestUpload() {
	s.Run("stores record in AVAILABLE with hash and normalized fields", func() {
		rec := s.upload(" 001 ", 1990, "first")
		s.Equal("001", rec.Number)
		s.Equal("A", rec.Section)
		s.Equal("IE-001", rec.Institution)
		s.Equal(models.StateAvailable, rec.State)
		s.Equal(ContentHash([]byte("first")), rec.ContentHash)
		s.Len(rec.ContentHash, 64)
	})

	s.Run("byte-identical content is rejected", func() {
		s.upload("002", 1991, "same-bytes")
		_, err := s.service.Upload(s.ctx, UploadCommand{Number: "003", Year: 1992, Grade: 1, Content: []byte("same-bytes"), ActorID: "editor-1"})
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateContent))
	})

	s.Run("duplicate number and year is rejected", func() {
		s.upload("004", 1993, "content-a")
		_, err := s.service.Upload(s.ctx, UploadCommand{Number: "004", Year: 1993, Grade: 1, Content: []byte("content-b"), ActorID: "editor-1"})
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateContent))
	})

	s.Run("year outside the ledger range is invalid", func() {
		for _, year := range []int{1984, 2013} {
			_, err := s.service.Upload(s.ctx, UploadCommand{Number: "005", Year: year, Grade: 1, Content: []byte("x"), ActorID: "editor-1"})
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "year %d", year)
		}
	})

	s.Run("empty content is invalid", func() {
		_, err := s.service.Upload(s.ctx, UploadCommand{Number: "006", Year: 2000, Grade: 1, ActorID: "editor-1"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RecordServiceSuite) TestMarkState() {
	s.Run("follows the record lifecycle", func() {
		rec := s.foundRecord()
		s.Equal(models.StateFound, rec.State)
	})

	s.Run("repeating the current state is idempotent", func() {
		rec := s.upload("010", 2001, "idempotent")
		_, err := s.service.MarkState(s.ctx, rec.ID, models.StateAssigned, "editor-1")
		s.Require().NoError(err)
		again, err := s.service.MarkState(s.ctx, rec.ID, models.StateAssigned, "editor-1")
		s.Require().NoError(err)
		s.Equal(models.StateAssigned, again.State)
	})

	s.Run("skipping ASSIGNED is an invalid transition", func() {
		rec := s.upload("011", 2002, "skip")
		_, err := s.service.MarkState(s.ctx, rec.ID, models.StateFound, "editor-1")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		details, ok := dErrors.DetailsOf(err).(dErrors.TransitionRejection)
		s.Require().True(ok)
		s.Equal([]string{"ASSIGNED"}, details.Allowed)
	})

	s.Run("terminal states do not move", func() {
		rec := s.upload("012", 2003, "terminal")
		_, err := s.service.MarkState(s.ctx, rec.ID, models.StateAssigned, "editor-1")
		s.Require().NoError(err)
		_, err = s.service.MarkState(s.ctx, rec.ID, models.StateNotFound, "editor-1")
		s.Require().NoError(err)
		_, err = s.service.MarkState(s.ctx, rec.ID, models.StateFound, "editor-1")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown record is not found", func() {
		_, err := s.service.MarkState(s.ctx, id.NewRecordID(), models.StateAssigned, "editor-1")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

const validExtraction = `{
	"schema": "sigcerh.ocr/v1",
	"students": [
		{"number": 1, "national_id": "12345678", "paternal_surname": "QUISPE", "maternal_surname": "MAMANI",
		 "first_names": "ANA", "sex": "M", "scores": {"MATEMATICA": 15, "COMUNICACION": "AD"}}
	],
	"metadata": {"total_students": 1, "average_confidence": 91.5}
}`

func (s *RecordServiceSuite) TestAttachExtraction() {
	s.Run("stores parsed and raw payload on a found record", func() {
		rec := s.foundRecord()
		got, err := s.service.AttachExtraction(s.ctx, rec.ID, []byte(validExtraction), "editor-1")
		s.Require().NoError(err)
		s.Require().NotNil(got.Extraction)
		s.Len(got.Extraction.Students, 1)
		s.NotNil(got.ExtractedAt)
		s.JSONEq(validExtraction, string(got.RawExtraction))

		stored, err := s.service.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.True(stored.HasExtraction())
	})

	s.Run("record not yet found fails the precondition", func() {
		rec := s.upload("020", 2004, "not-found-yet")
		_, err := s.service.AttachExtraction(s.ctx, rec.ID, []byte(validExtraction), "editor-1")
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("unknown schema tag fails validation", func() {
		rec := s.upload("021", 2005, "schema")
		_, err := s.service.AttachExtraction(s.ctx, rec.ID, []byte(`{"schema":"other/v9","students":[]}`), "editor-1")
		s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
	})

	s.Run("empty student list fails validation", func() {
		rec := s.upload("022", 2006, "empty")
		_, err := s.service.AttachExtraction(s.ctx, rec.ID, []byte(`{"schema":"sigcerh.ocr/v1","students":[]}`), "editor-1")
		s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
		s.NotNil(dErrors.DetailsOf(err))
	})
}

func (s *RecordServiceSuite) TestMarkNormalized() {
	rec := s.foundRecord()
	s.Require().NoError(s.service.MarkNormalized(s.ctx, rec.ID))
	got, err := s.service.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.True(got.Normalized)
	s.Require().NotNil(got.NormalizedAt)
}

func (s *RecordServiceSuite) TestClearNormalized() {
	rec := s.foundRecord()
	s.Require().NoError(s.service.MarkNormalized(s.ctx, rec.ID))
	s.Require().NoError(s.service.ClearNormalized(s.ctx, rec.ID))
	got, err := s.service.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.False(got.Normalized)
	s.Nil(got.NormalizedAt)

	s.Require().NoError(s.service.ClearNormalized(s.ctx, rec.ID), "clearing twice is a no-op")
	s.True(dErrors.HasCode(s.service.ClearNormalized(s.ctx, id.NewRecordID()), dErrors.CodeNotFound))
}

func (s *RecordServiceSuite) TestAttachExtractionClearsNormalization() {
	rec := s.foundRecord()
	_, err := s.service.AttachExtraction(s.ctx, rec.ID, []byte(validExtraction), "editor-1")
	s.Require().NoError(err)
	s.Require().NoError(s.service.MarkNormalized(s.ctx, rec.ID))

	got, err := s.service.AttachExtraction(s.ctx, rec.ID, []byte(validExtraction), "editor-2")
	s.Require().NoError(err)
	s.False(got.Normalized)
	s.Nil(got.NormalizedAt)
}

func (s *RecordServiceSuite) TestCorrectExtraction() {
	rec := s.foundRecord()
	_, err := s.service.AttachExtraction(s.ctx, rec.ID, []byte(validExtraction), "editor-1")
	s.Require().NoError(err)
	s.Require().NoError(s.service.MarkNormalized(s.ctx, rec.ID))

	s.Run("applies corrections and requires a new normalization", func() {
		got, err := s.service.CorrectExtraction(s.ctx, CorrectCommand{
			RecordID: rec.ID,
			Corrections: []models.Correction{
				{Number: 1, Field: "first_names", Previous: "ANA", Value: "ANA MARIA"},
				{Number: 1, Field: "scores.MATEMATICA", Previous: "15", Value: "16"},
			},
			Note:    " checked against the physical ledger ",
			ActorID: "editor-2",
		})
		s.Require().NoError(err)
		s.Equal("ANA MARIA", got.Extraction.Students[0].FirstNames)
		s.Equal("16", string(got.Extraction.Students[0].Scores["MATEMATICA"]))
		s.False(got.Normalized)
		s.Require().Len(got.Corrections, 2)
		s.Equal("checked against the physical ledger", got.Corrections[0].Note)
		s.Equal(id.ActorID("editor-2"), got.Corrections[1].ActorID)

		stored, err := s.service.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Contains(string(stored.RawExtraction), "ANA MARIA")
	})

	s.Run("a stale value leaves the extraction untouched", func() {
		_, err := s.service.CorrectExtraction(s.ctx, CorrectCommand{
			RecordID: rec.ID,
			Corrections: []models.Correction{
				{Number: 1, Field: "maternal_surname", Previous: "MAMANI", Value: "MAMANI TITO"},
				{Number: 1, Field: "first_names", Previous: "ANA", Value: "ANITA"},
			},
			ActorID: "editor-3",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		stored, err := s.service.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal("MAMANI", stored.Extraction.Students[0].MaternalSurname)
		s.Len(stored.Corrections, 2)
	})

	s.Run("a correction that breaks the envelope fails validation", func() {
		_, err := s.service.CorrectExtraction(s.ctx, CorrectCommand{
			RecordID:    rec.ID,
			Corrections: []models.Correction{{Number: 1, Field: "sex", Previous: "M", Value: "X"}},
			ActorID:     "editor-3",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
	})

	s.Run("command checks", func() {
		_, err := s.service.CorrectExtraction(s.ctx, CorrectCommand{RecordID: rec.ID, ActorID: "editor-3"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.service.CorrectExtraction(s.ctx, CorrectCommand{
			RecordID:    rec.ID,
			Corrections: []models.Correction{{Number: 1, Field: "remarks", Value: "x"}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("record without extraction", func() {
		other := s.upload("060", 2000, "bare")
		_, err := s.service.CorrectExtraction(s.ctx, CorrectCommand{
			RecordID:    other.ID,
			Corrections: []models.Correction{{Number: 1, Field: "remarks", Value: "x"}},
			ActorID:     "editor-3",
		})
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}
