package service

import (
	"context"
	"errors"

	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/requestcontext"
)

// LinkPayment attaches a validated payment. The payment must be known to the
// payment directory when one is configured.
func (s *Service) LinkPayment(ctx context.Context, requestID id.RequestID, paymentID id.PaymentID) (*models.Request, error) {
	if s.payments != nil {
		ok, err := s.payments.PaymentExists(ctx, paymentID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check payment")
		}
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "payment %s not found", paymentID)
		}
	}
	return s.link(ctx, requestID, "payment_id", paymentID.String(), func(r *models.Request) error {
		if err := r.CanLinkPayment(paymentID); err != nil {
			return err
		}
		r.LinkPayment(paymentID, requestcontext.Now(ctx))
		return nil
	})
}

// LinkCertificate attaches an issued certificate.
func (s *Service) LinkCertificate(ctx context.Context, requestID id.RequestID, certificateID id.CertificateID) (*models.Request, error) {
	if s.certificates != nil {
		ok, err := s.certificates.CertificateExists(ctx, certificateID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate")
		}
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "certificate %s not found", certificateID)
		}
	}
	return s.link(ctx, requestID, "certificate_id", certificateID.String(), func(r *models.Request) error {
		if err := r.CanLinkCertificate(certificateID); err != nil {
			return err
		}
		r.LinkCertificate(certificateID, requestcontext.Now(ctx))
		return nil
	})
}

// LinkRecord attaches the physical record an editor is searching.
func (s *Service) LinkRecord(ctx context.Context, requestID id.RequestID, recordID id.RecordID) (*models.Request, error) {
	return s.link(ctx, requestID, "record_id", recordID.String(), func(r *models.Request) error {
		r.LinkRecord(recordID, requestcontext.Now(ctx))
		return nil
	})
}

// LinkStudent attaches the canonical student once reconciliation identified them.
func (s *Service) LinkStudent(ctx context.Context, requestID id.RequestID, studentID id.StudentID) (*models.Request, error) {
	return s.link(ctx, requestID, "student_id", studentID.String(), func(r *models.Request) error {
		r.LinkStudent(studentID, requestcontext.Now(ctx))
		return nil
	})
}

func (s *Service) link(ctx context.Context, requestID id.RequestID, field, value string, apply func(*models.Request) error) (*models.Request, error) {
	var updated *models.Request
	for attempt := 0; ; attempt++ {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			req, err := s.store.FindByID(ctx, requestID)
			if err != nil {
				return err
			}
			if models.IsTerminal(req.State) {
				return dErrors.Newf(dErrors.CodePreconditionFailed, "request in terminal state %s cannot be modified", req.State)
			}
			expected := req.Version
			if err := apply(req); err != nil {
				return err
			}
			if err := s.store.Update(ctx, req, expected); err != nil {
				return err
			}
			updated = req
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrConflict) && attempt < s.maxRetries {
			s.metrics.IncrementRetry()
			continue
		}
		return nil, translate(err, "failed to link "+field)
	}
	s.logger.InfoContext(ctx, "request linked",
		"request_id", requestID,
		field, value,
	)
	return updated, nil
}
