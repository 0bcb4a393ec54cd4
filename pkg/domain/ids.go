// Package domain holds the shared value types used across hostguard's bounded contexts.
//
// Typed IDs wrap uuid.UUID so a ClientID can never be passed where a UserID is expected.
// All Parse functions reject empty, malformed and nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "hostguard/pkg/domain-errors"
)

type (
	UserID         uuid.UUID
	ClientID       uuid.UUID
	AliasID        uuid.UUID
	ContactID      uuid.UUID
	IncidentID     uuid.UUID
	VerificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ClientID) String() string       { return uuid.UUID(id).String() }
func (id AliasID) String() string        { return uuid.UUID(id).String() }
func (id ContactID) String() string      { return uuid.UUID(id).String() }
func (id IncidentID) String() string     { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id IncidentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text encoding lets typed IDs serialize as canonical UUID strings in JSON.

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id ClientID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id AliasID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id ContactID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id IncidentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id VerificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ClientID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AliasID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ContactID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *IncidentID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *VerificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseUserID parses an authenticated platform user identifier.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseClientID parses a canonical client identifier.
func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s, "client ID")
	return ClientID(u), err
}

func ParseIncidentID(s string) (IncidentID, error) {
	u, err := parseUUID(s, "incident ID")
	return IncidentID(u), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s, "verification ID")
	return VerificationID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
