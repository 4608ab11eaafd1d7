// Package notify hands lifecycle notifications to the delivery collaborator.
//
// The core only decides that a notification is due and what it carries.
// Rendering and delivery to citizens happen downstream of the Dispatcher.
package notify

import (
	"context"
	"log/slog"
	"time"

	id "sigcerh/pkg/domain"
)

// Template keys understood by the delivery collaborator.
const (
	TemplateRecordFound       = "record_found"
	TemplateRecordNotFound    = "record_not_found"
	TemplatePaymentReceived   = "payment_received"
	TemplateCertificateIssued = "certificate_issued"
	TemplateDelivered         = "certificate_delivered"
)

// Notification is one message for the delivery collaborator.
type Notification struct {
	TemplateKey  string         `json:"template_key"`
	RequestID    id.RequestID   `json:"request_id"`
	TrackingCode string         `json:"tracking_code"`
	Data         map[string]any `json:"data,omitempty"`
	At           time.Time      `json:"at"`
}

// Dispatcher sends a notification downstream.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// LogDispatcher writes notifications to the log. Used when no broker is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, n Notification) error {
	d.logger.InfoContext(ctx, "notification dispatched",
		"template_key", n.TemplateKey,
		"request_id", n.RequestID,
		"tracking_code", n.TrackingCode,
	)
	return nil
}
