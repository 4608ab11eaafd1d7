package models

import (
	"strings"

	dErrors "sigcerh/pkg/domain-errors"
)

// State is a lifecycle state of a Request. Every value has an entry in the
// transition table.
type State string

const (
	StateRegistered                State = "REGISTERED"
	StateDerivedToEditor           State = "DERIVED_TO_EDITOR"
	StateSearching                 State = "SEARCHING"
	StateRecordFoundPendingPayment State = "RECORD_FOUND_PENDING_PAYMENT"
	StateRecordNotFound            State = "RECORD_NOT_FOUND"
	StateReadyForOCR               State = "READY_FOR_OCR"
	// StatePaymentValidated is no longer entered by new requests; it stays
	// so rows written before READY_FOR_OCR existed keep a valid exit.
	StatePaymentValidated  State = "PAYMENT_VALIDATED"
	StateOCRProcessing     State = "OCR_PROCESSING"
	StateCertificateIssued State = "CERTIFICATE_ISSUED"
	StateDelivered         State = "DELIVERED"
)

// ParseState validates a state taken from external input.
func ParseState(s string) (State, error) {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	if st == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "state cannot be empty")
	}
	if _, ok := table[st]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown state %q", s)
	}
	return st, nil
}

func (s State) IsValid() bool {
	_, ok := table[s]
	return ok
}

func (s State) String() string {
	return string(s)
}

// Role is the acting role of a transition request.
type Role string

const (
	RoleSystem       Role = "SYSTEM"
	RolePublic       Role = "PUBLIC"
	RoleMesaDePartes Role = "MESA_DE_PARTES"
	RoleEditor       Role = "EDITOR"
	RoleAdmin        Role = "ADMIN"
)

var validRoles = map[Role]bool{
	RoleSystem:       true,
	RolePublic:       true,
	RoleMesaDePartes: true,
	RoleEditor:       true,
	RoleAdmin:        true,
}

// ParseRole validates a role taken from external input.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !validRoles[r] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// Priority orders the work queue of editors.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority validates a priority; empty input means NORMAL.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case "":
		return PriorityNormal, nil
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown priority %q", s)
	}
}
