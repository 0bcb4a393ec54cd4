package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "hostguard/pkg/domain"
)

// Action names an audited domain action.
type Action string

const (
	ActionVerificationCompleted Action = "verification_completed"
	ActionVerificationDenied    Action = "verification_quota_exceeded"
	ActionClientCreated         Action = "client_created"
	ActionIncidentLinked        Action = "incident_linked"
	ActionSubscriptionExtended  Action = "subscription_extended"
)

// Event is emitted from domain logic to record who verified what and with
// which outcome. Raw identifiers never leave the process; SubjectHash carries a
// SHA-256 of the identifier for correlation.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	Action         Action    `json:"action"`
	UserID         id.UserID `json:"user_id"`
	RequestID      string    `json:"request_id,omitempty"`
	Channel        string    `json:"channel,omitempty"`
	VerificationID string    `json:"verification_id,omitempty"`
	ClientID       string    `json:"client_id,omitempty"`
	SubjectHash    string    `json:"subject_hash,omitempty"`
	Decision       string    `json:"decision,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

// Store is an audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is what domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// HashSubject returns the hex SHA-256 of an identifier, or "" for empty input.
func HashSubject(subject string) string {
	if subject == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(sum[:])
}
