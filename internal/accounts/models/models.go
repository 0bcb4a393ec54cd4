package models

import (
	"time"

	id "hostguard/pkg/domain"
)

// User is an authenticated host. Phone is stored in normalized form.
type User struct {
	ID        id.UserID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription grants unlimited verifications while ExpiresAt is in the future.
type Subscription struct {
	UserID    id.UserID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveAt reports whether the subscription covers t.
func (s *Subscription) ActiveAt(t time.Time) bool {
	return s != nil && s.ExpiresAt.After(t)
}

// ExtendedExpiry returns the expiry after adding period: the extension starts at
// the current expiry when it is still in the future, otherwise at now.
func ExtendedExpiry(current *time.Time, now time.Time, period time.Duration) time.Time {
	start := now
	if current != nil && current.After(now) {
		start = *current
	}
	return start.Add(period)
}
