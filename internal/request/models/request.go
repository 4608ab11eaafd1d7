package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

// Milestone is one actor/time pair of trazability data. The zero value means
// the milestone has not been reached.
type Milestone struct {
	ActorID id.ActorID `json:"actor_id,omitempty"`
	At      *time.Time `json:"at,omitempty"`
}

// Reached reports whether the milestone has been set.
func (m Milestone) Reached() bool {
	return m.At != nil
}

func (m *Milestone) setOnce(actor id.ActorID, now time.Time) {
	if m.Reached() {
		return
	}
	t := now
	m.ActorID = actor
	m.At = &t
}

// Milestones groups the trazability fields of a Request.
type Milestones struct {
	Submission            Milestone `json:"submission"`
	PaymentValidation     Milestone `json:"payment_validation"`
	ProcessStart          Milestone `json:"process_start"`
	CertificateGeneration Milestone `json:"certificate_generation"`
	Signature             Milestone `json:"signature"`
	Delivery              Milestone `json:"delivery"`
}

// Applicant is the citizen asking for the certificate.
type Applicant struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email,omitempty"`
}

// Request is the aggregate root for a certificate application.
//
// Invariants:
//   - State is always a value with a transition table entry
//   - State only changes through ApplyTransition, after the orchestrator validated it
//   - A milestone, once set, is never cleared or overwritten
//   - Version increases by one on every persisted change
type Request struct {
	ID            id.RequestID      `json:"id"`
	TrackingCode  string            `json:"tracking_code"`
	State         State             `json:"state"`
	Priority      Priority          `json:"priority"`
	Applicant     Applicant         `json:"applicant"`
	StudentID     *id.StudentID     `json:"student_id,omitempty"`
	PaymentID     *id.PaymentID     `json:"payment_id,omitempty"`
	CertificateID *id.CertificateID `json:"certificate_id,omitempty"`
	RecordID      *id.RecordID      `json:"record_id,omitempty"`
	EditorID      id.ActorID        `json:"editor_id,omitempty"`
	Milestones    Milestones        `json:"milestones"`
	RejectedAt    *time.Time        `json:"rejected_at,omitempty"`
	RejectionNote string            `json:"rejection_reason,omitempty"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewRequest builds a request in the initial state with its submission milestone set.
func NewRequest(requestID id.RequestID, trackingCode string, applicant Applicant, priority Priority, submitter id.ActorID, now time.Time) (*Request, error) {
	applicant.FullName = strings.TrimSpace(applicant.FullName)
	applicant.NationalID = strings.TrimSpace(applicant.NationalID)
	if applicant.FullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "applicant name cannot be empty")
	}
	if trackingCode == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tracking code cannot be empty")
	}
	if submitter == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submitter cannot be empty")
	}
	r := &Request{
		ID:           requestID,
		TrackingCode: trackingCode,
		State:        StateRegistered,
		Priority:     priority,
		Applicant:    applicant,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.Milestones.Submission.setOnce(submitter, now)
	return r, nil
}

// NewTrackingCode returns a code of the form SIG-2024-1A2B3C4D.
func NewTrackingCode(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tracking code: %w", err)
	}
	return fmt.Sprintf("SIG-%d-%s", now.Year(), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// Has reports whether the linked data for req is present.
func (r *Request) Has(req Requirement) bool {
	switch req {
	case RequirePayment:
		return r.PaymentID != nil
	case RequireCertificate:
		return r.CertificateID != nil
	default:
		return false
	}
}

// Metadata keys understood by ApplyTransition.
const (
	MetaEditorID = "editor_id"
	MetaSignerID = "signer_id"
	MetaReason   = "reason"
)

// EditorQueueStates are the states in which an assigned editor still owes
// work on a request.
var EditorQueueStates = []State{StateDerivedToEditor, StateSearching}

// ApplyTransition moves the request to target and records the milestone that
// state represents. Callers validate the transition first.
func (r *Request) ApplyTransition(target State, actor id.ActorID, note string, metadata map[string]string, now time.Time) {
	r.State = target
	r.UpdatedAt = now

	switch target {
	case StateDerivedToEditor:
		r.Milestones.ProcessStart.setOnce(actor, now)
		if editor := strings.TrimSpace(metadata[MetaEditorID]); editor != "" {
			r.EditorID = id.ActorID(editor)
		}
	case StateReadyForOCR, StatePaymentValidated:
		r.Milestones.PaymentValidation.setOnce(actor, now)
	case StateOCRProcessing:
		r.Milestones.ProcessStart.setOnce(actor, now)
	case StateCertificateIssued:
		r.Milestones.CertificateGeneration.setOnce(actor, now)
		if signer := strings.TrimSpace(metadata[MetaSignerID]); signer != "" {
			r.Milestones.Signature.setOnce(id.ActorID(signer), now)
		}
	case StateDelivered:
		r.Milestones.Delivery.setOnce(actor, now)
	case StateRecordNotFound:
		if r.RejectedAt == nil {
			t := now
			r.RejectedAt = &t
			reason := strings.TrimSpace(metadata[MetaReason])
			if reason == "" {
				reason = note
			}
			r.RejectionNote = reason
		}
	}
}

// CanLinkPayment rejects replacing the payment once payment validation relied
// on it. Linking the same payment again is allowed.
func (r *Request) CanLinkPayment(p id.PaymentID) error {
	if r.PaymentID == nil || *r.PaymentID == p || !r.Milestones.PaymentValidation.Reached() {
		return nil
	}
	return dErrors.Newf(dErrors.CodeConflict, "payment %s was already validated and cannot be replaced", *r.PaymentID)
}

// CanLinkCertificate rejects replacing the certificate once it was issued.
func (r *Request) CanLinkCertificate(c id.CertificateID) error {
	if r.CertificateID == nil || *r.CertificateID == c || !r.Milestones.CertificateGeneration.Reached() {
		return nil
	}
	return dErrors.Newf(dErrors.CodeConflict, "certificate %s was already issued and cannot be replaced", *r.CertificateID)
}

// LinkPayment attaches a validated payment id.
func (r *Request) LinkPayment(p id.PaymentID, now time.Time) {
	r.PaymentID = &p
	r.UpdatedAt = now
}

// LinkCertificate attaches the issued certificate id.
func (r *Request) LinkCertificate(c id.CertificateID, now time.Time) {
	r.CertificateID = &c
	r.UpdatedAt = now
}

// LinkRecord attaches the physical record being searched.
func (r *Request) LinkRecord(rec id.RecordID, now time.Time) {
	r.RecordID = &rec
	r.UpdatedAt = now
}

// LinkStudent attaches the canonical student the certificate is for.
func (r *Request) LinkStudent(s id.StudentID, now time.Time) {
	r.StudentID = &s
	r.UpdatedAt = now
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (r *Request) Clone() *Request {
	c := *r
	c.StudentID = clonePtr(r.StudentID)
	c.PaymentID = clonePtr(r.PaymentID)
	c.CertificateID = clonePtr(r.CertificateID)
	c.RecordID = clonePtr(r.RecordID)
	c.RejectedAt = clonePtr(r.RejectedAt)
	c.Milestones = Milestones{
		Submission:            r.Milestones.Submission.clone(),
		PaymentValidation:     r.Milestones.PaymentValidation.clone(),
		ProcessStart:          r.Milestones.ProcessStart.clone(),
		CertificateGeneration: r.Milestones.CertificateGeneration.clone(),
		Signature:             r.Milestones.Signature.clone(),
		Delivery:              r.Milestones.Delivery.clone(),
	}
	return &c
}

func (m Milestone) clone() Milestone {
	return Milestone{ActorID: m.ActorID, At: clonePtr(m.At)}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
