package service

import (
	"context"

	"sigcerh/internal/audit"
	"sigcerh/internal/notify"
	recordmodels "sigcerh/internal/record/models"
	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	FindByTrackingCode(ctx context.Context, code string) (*models.Request, error)
	Update(ctx context.Context, r *models.Request, expectedVersion int) error
	ListByState(ctx context.Context, state models.State, limit int) ([]*models.Request, error)
	ListByEditor(ctx context.Context, editorID id.ActorID, states []models.State, limit int) ([]*models.Request, error)
}

type AuditStore interface {
	Append(ctx context.Context, e *audit.Entry) error
	ListByRequest(ctx context.Context, requestID id.RequestID) ([]audit.Entry, error)
}

// PaymentDirectory confirms that a payment id belongs to a validated payment.
type PaymentDirectory interface {
	PaymentExists(ctx context.Context, paymentID id.PaymentID) (bool, error)
}

// CertificateDirectory confirms that a certificate id was issued.
type CertificateDirectory interface {
	CertificateExists(ctx context.Context, certificateID id.CertificateID) (bool, error)
}

// EffectSink accepts side effects after commit. Enqueue must not block.
type EffectSink interface {
	Enqueue(e Effect) error
}

// RecordUpdater moves the physical record linked to a request.
type RecordUpdater interface {
	MarkState(ctx context.Context, recordID id.RecordID, target recordmodels.State, actor id.ActorID) (*recordmodels.Record, error)
}

// Dispatcher is the notification port.
type Dispatcher = notify.Dispatcher
