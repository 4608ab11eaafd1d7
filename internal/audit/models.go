// Package audit is the append-only ledger of request state changes.
//
// Entries are written by the lifecycle orchestrator inside the same unit of
// work as the state change they describe, and are never updated or deleted.
// Seq is assigned by the store at append time, so ordering by Seq is ordering
// by commit for one request.
package audit

import (
	"context"
	"time"

	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
)

// Entry records one state change of a Request. FromState is nil for the
// creation entry.
type Entry struct {
	Seq       int64             `json:"seq"`
	ID        id.AuditEntryID   `json:"id"`
	RequestID id.RequestID      `json:"request_id"`
	FromState *models.State     `json:"from_state"`
	ToState   models.State      `json:"to_state"`
	ActorID   id.ActorID        `json:"actor_id"`
	ActorRole models.Role       `json:"actor_role"`
	Note      string            `json:"note,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	At        time.Time         `json:"at"`
}

// NewEntry builds an entry for a transition from -> to. Pass an empty from for creation.
func NewEntry(requestID id.RequestID, from, to models.State, actor id.ActorID, role models.Role, note string, metadata map[string]string, now time.Time) *Entry {
	e := &Entry{
		ID:        id.NewAuditEntryID(),
		RequestID: requestID,
		ToState:   to,
		ActorID:   actor,
		ActorRole: role,
		Note:      note,
		Metadata:  metadata,
		At:        now,
	}
	if from != "" {
		f := from
		e.FromState = &f
	}
	return e
}

// Store is implemented by the memory and Postgres ledgers.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	ListByRequest(ctx context.Context, requestID id.RequestID) ([]Entry, error)
}
