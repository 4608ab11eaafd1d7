package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

func newTestRequest(t *testing.T, now time.Time) *Request {
	t.Helper()
	r, err := NewRequest(id.NewRequestID(), "SIG-2024-00000001", Applicant{FullName: "Ana Quispe"}, PriorityNormal, "public-1", now)
	require.NoError(t, err)
	return r
}

func TestNewRequest(t *testing.T) {
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	t.Run("starts registered with submission milestone", func(t *testing.T) {
		r := newTestRequest(t, now)
		assert.Equal(t, StateRegistered, r.State)
		assert.Equal(t, 1, r.Version)
		require.True(t, r.Milestones.Submission.Reached())
		assert.Equal(t, id.ActorID("public-1"), r.Milestones.Submission.ActorID)
	})

	t.Run("rejects empty applicant", func(t *testing.T) {
		_, err := NewRequest(id.NewRequestID(), "SIG-1", Applicant{FullName: "  "}, PriorityNormal, "p", now)
		assert.Error(t, err)
	})
}

func TestApplyTransitionMilestones(t *testing.T) {
	t0 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	r := newTestRequest(t, t0)

	t1 := t0.Add(time.Hour)
	r.ApplyTransition(StateDerivedToEditor, "mesa-1", "", map[string]string{MetaEditorID: "editor-9"}, t1)
	assert.Equal(t, id.ActorID("editor-9"), r.EditorID)
	require.True(t, r.Milestones.ProcessStart.Reached())
	assert.Equal(t, t1, *r.Milestones.ProcessStart.At)

	t2 := t1.Add(time.Hour)
	r.ApplyTransition(StateOCRProcessing, "editor-9", "", nil, t2)
	assert.Equal(t, t1, *r.Milestones.ProcessStart.At, "milestones are never overwritten")
	assert.Equal(t, id.ActorID("mesa-1"), r.Milestones.ProcessStart.ActorID)

	r.ApplyTransition(StateCertificateIssued, "editor-9", "", map[string]string{MetaSignerID: "director-1"}, t2)
	assert.True(t, r.Milestones.CertificateGeneration.Reached())
	assert.Equal(t, id.ActorID("director-1"), r.Milestones.Signature.ActorID)
	assert.True(t, r.Milestones.Submission.Reached(), "earlier milestones survive")
}

func TestApplyTransitionRejection(t *testing.T) {
	now := time.Now()
	r := newTestRequest(t, now)
	r.ApplyTransition(StateRecordNotFound, "editor-1", "ledger missing", nil, now)
	require.NotNil(t, r.RejectedAt)
	assert.Equal(t, "ledger missing", r.RejectionNote)
}

func TestHas(t *testing.T) {
	r := newTestRequest(t, time.Now())
	assert.False(t, r.Has(RequirePayment))
	r.LinkPayment(id.PaymentID(id.NewRequestID()), time.Now())
	assert.True(t, r.Has(RequirePayment))
	assert.False(t, r.Has(RequireCertificate))
}

func TestCanLinkPayment(t *testing.T) {
	now := time.Now()
	r := newTestRequest(t, now)
	first := id.PaymentID(id.NewRequestID())
	second := id.PaymentID(id.NewRequestID())

	require.NoError(t, r.CanLinkPayment(first))
	r.LinkPayment(first, now)
	require.NoError(t, r.CanLinkPayment(second), "a pending payment can still be swapped")

	r.ApplyTransition(StateReadyForOCR, "system", "", nil, now)
	require.True(t, r.Milestones.PaymentValidation.Reached())
	assert.NoError(t, r.CanLinkPayment(first), "relinking the same payment is idempotent")
	assert.True(t, dErrors.HasCode(r.CanLinkPayment(second), dErrors.CodeConflict))
}

func TestCanLinkCertificate(t *testing.T) {
	now := time.Now()
	r := newTestRequest(t, now)
	first := id.CertificateID(id.NewRequestID())
	r.LinkCertificate(first, now)
	r.ApplyTransition(StateCertificateIssued, "editor-1", "", nil, now)

	assert.NoError(t, r.CanLinkCertificate(first))
	err := r.CanLinkCertificate(id.CertificateID(id.NewRequestID()))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestNewTrackingCode(t *testing.T) {
	code, err := NewTrackingCode(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Regexp(t, `^SIG-2024-[0-9A-F]{8}$`, code)
}
