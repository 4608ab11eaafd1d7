package handler

import (
	"time"

	"sigcerh/internal/audit"
	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
)

type RequestResponse struct {
	ID            id.RequestID      `json:"id"`
	TrackingCode  string            `json:"tracking_code"`
	State         models.State      `json:"state"`
	Priority      models.Priority   `json:"priority"`
	Applicant     models.Applicant  `json:"applicant"`
	StudentID     *id.StudentID     `json:"student_id,omitempty"`
	PaymentID     *id.PaymentID     `json:"payment_id,omitempty"`
	CertificateID *id.CertificateID `json:"certificate_id,omitempty"`
	RecordID      *id.RecordID      `json:"record_id,omitempty"`
	EditorID      id.ActorID        `json:"editor_id,omitempty"`
	Milestones    models.Milestones `json:"milestones"`
	RejectedAt    *time.Time        `json:"rejected_at,omitempty"`
	RejectionNote string            `json:"rejection_reason,omitempty"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func toResponse(r *models.Request) RequestResponse {
	return RequestResponse{
		ID:            r.ID,
		TrackingCode:  r.TrackingCode,
		State:         r.State,
		Priority:      r.Priority,
		Applicant:     r.Applicant,
		StudentID:     r.StudentID,
		PaymentID:     r.PaymentID,
		CertificateID: r.CertificateID,
		RecordID:      r.RecordID,
		EditorID:      r.EditorID,
		Milestones:    r.Milestones,
		RejectedAt:    r.RejectedAt,
		RejectionNote: r.RejectionNote,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// TrackingResponse is what an anonymous caller sees for a tracking code.
type TrackingResponse struct {
	TrackingCode string       `json:"tracking_code"`
	State        models.State `json:"state"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	DeliveredAt  *time.Time   `json:"delivered_at,omitempty"`
}

func toTrackingResponse(r *models.Request) TrackingResponse {
	return TrackingResponse{
		TrackingCode: r.TrackingCode,
		State:        r.State,
		SubmittedAt:  r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		DeliveredAt:  r.Milestones.Delivery.At,
	}
}

type ListResponse struct {
	Requests []RequestResponse `json:"requests"`
}

type HistoryResponse struct {
	RequestID id.RequestID  `json:"request_id"`
	Entries   []audit.Entry `json:"entries"`
}

type AllowedResponse struct {
	RequestID id.RequestID   `json:"request_id"`
	Role      models.Role    `json:"role"`
	Allowed   []models.State `json:"allowed"`
}

type CheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
