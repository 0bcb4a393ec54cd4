package models

import (
	"time"

	id "hostguard/pkg/domain"
)

// TrialState is a user's free-trial allowance. Expiry is nil for rows that
// predate expiry tracking; such trials never expire.
type TrialState struct {
	UserID    id.UserID  `json:"user_id"`
	Count     int        `json:"count"`
	Expiry    *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expired reports whether the trial window has closed at now.
func (t *TrialState) Expired(now time.Time) bool {
	return t.Expiry != nil && now.After(*t.Expiry)
}

// Exhausted reports whether no trial verifications remain.
func (t *TrialState) Exhausted() bool {
	return t.Count <= 0
}

// Denies reports whether the trial blocks a verification at now. A trial is
// closed only when it is both expired and exhausted.
func (t *TrialState) Denies(now time.Time) bool {
	return t.Expired(now) && t.Exhausted()
}

// NewTrial returns a fresh trial for userID.
func NewTrial(userID id.UserID, count int, period time.Duration, now time.Time) *TrialState {
	expiry := now.Add(period)
	return &TrialState{
		UserID:    userID,
		Count:     count,
		Expiry:    &expiry,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type DecisionKind string

const (
	DecisionUnlimited DecisionKind = "unlimited"
	DecisionAllowed   DecisionKind = "allowed"
	DecisionDenied    DecisionKind = "denied"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Kind DecisionKind `json:"decision"`
	// Remaining is the trial count at check time; meaningful for Allowed only.
	Remaining          int        `json:"remaining"`
	Reason             string     `json:"reason,omitempty"`
	SubscriptionExpiry *time.Time `json:"subscription_expires_at,omitempty"`
}

func (d Decision) Permits() bool {
	return d.Kind == DecisionUnlimited || d.Kind == DecisionAllowed
}

// Status is the quota view for one user.
type Status struct {
	Unlimited          bool        `json:"unlimited"`
	SubscriptionExpiry *time.Time  `json:"subscription_expires_at,omitempty"`
	Trial              *TrialState `json:"trial,omitempty"`
}
