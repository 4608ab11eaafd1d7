package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"

	id "sigcerh/pkg/domain"
)

// PostgresDirectory answers whether payment and certificate ids written by
// their owning collaborators exist.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) PaymentExists(ctx context.Context, paymentID id.PaymentID) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, uuid.UUID(paymentID))
}

func (d *PostgresDirectory) CertificateExists(ctx context.Context, certificateID id.CertificateID) (bool, error) {
	return d.exists(ctx, `SELECT EXISTS (SELECT 1 FROM certificates WHERE id = $1)`, uuid.UUID(certificateID))
}

func (d *PostgresDirectory) exists(ctx context.Context, query string, arg uuid.UUID) (bool, error) {
	var ok bool
	if err := d.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return ok, nil
}

// MemoryDirectory is the in-process directory used in dev and tests.
type MemoryDirectory struct {
	mu           sync.RWMutex
	payments     map[id.PaymentID]struct{}
	certificates map[id.CertificateID]struct{}
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		payments:     make(map[id.PaymentID]struct{}),
		certificates: make(map[id.CertificateID]struct{}),
	}
}

func (d *MemoryDirectory) AddPayment(p id.PaymentID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payments[p] = struct{}{}
}

func (d *MemoryDirectory) AddCertificate(c id.CertificateID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.certificates[c] = struct{}{}
}

func (d *MemoryDirectory) PaymentExists(_ context.Context, paymentID id.PaymentID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.payments[paymentID]
	return ok, nil
}

func (d *MemoryDirectory) CertificateExists(_ context.Context, certificateID id.CertificateID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.certificates[certificateID]
	return ok, nil
}
