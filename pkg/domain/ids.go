// Package domain holds the typed identifiers and small value types shared
// across modules. Typed IDs stop a RecordID from being passed where a
// RequestID is expected.
package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "sigcerh/pkg/domain-errors"
)

type (
	RequestID     uuid.UUID
	RecordID      uuid.UUID
	StudentID     uuid.UUID
	AreaID        uuid.UUID
	LinkID        uuid.UUID
	NoteID        uuid.UUID
	PaymentID     uuid.UUID
	CertificateID uuid.UUID
	AuditEntryID  uuid.UUID
)

func (id RequestID) String() string     { return uuid.UUID(id).String() }
func (id RecordID) String() string      { return uuid.UUID(id).String() }
func (id StudentID) String() string     { return uuid.UUID(id).String() }
func (id AreaID) String() string        { return uuid.UUID(id).String() }
func (id LinkID) String() string        { return uuid.UUID(id).String() }
func (id NoteID) String() string        { return uuid.UUID(id).String() }
func (id PaymentID) String() string     { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string  { return uuid.UUID(id).String() }

// MarshalText keeps the canonical uuid form in JSON and logs.
func (id RequestID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id RecordID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id StudentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id AreaID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id LinkID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id NoteID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id PaymentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id CertificateID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id AuditEntryID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *RequestID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RecordID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *StudentID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AreaID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *LinkID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NoteID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PaymentID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CertificateID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AuditEntryID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id StudentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AreaID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func NewRequestID() RequestID       { return RequestID(uuid.New()) }
func NewRecordID() RecordID         { return RecordID(uuid.New()) }
func NewStudentID() StudentID       { return StudentID(uuid.New()) }
func NewAreaID() AreaID             { return AreaID(uuid.New()) }
func NewLinkID() LinkID             { return LinkID(uuid.New()) }
func NewNoteID() NoteID             { return NoteID(uuid.New()) }
func NewAuditEntryID() AuditEntryID { return AuditEntryID(uuid.New()) }

func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	return RequestID(u), err
}

func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record id")
	return RecordID(u), err
}

func ParseStudentID(s string) (StudentID, error) {
	u, err := parseUUID(s, "student id")
	return StudentID(u), err
}

func ParseAreaID(s string) (AreaID, error) {
	u, err := parseUUID(s, "area id")
	return AreaID(u), err
}

func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID(s, "payment id")
	return PaymentID(u), err
}

func ParseCertificateID(s string) (CertificateID, error) {
	u, err := parseUUID(s, "certificate id")
	return CertificateID(u), err
}

// parseUUID rejects empty, malformed and nil UUIDs.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}

// ActorID identifies the human or system actor behind an operation. Actors are
// issued by the authentication collaborator, so the value is opaque here.
type ActorID string

const maxActorIDLength = 64

// SystemActor is used for transitions and writes issued by the service itself.
const SystemActor ActorID = "system"

// ParseActorID validates an actor identifier taken from a trust boundary.
func ParseActorID(s string) (ActorID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "actor id cannot be empty")
	}
	if len(s) > maxActorIDLength || !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid actor id")
	}
	return ActorID(s), nil
}

func (a ActorID) String() string { return string(a) }
