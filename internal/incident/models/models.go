package models

import (
	"time"

	id "hostguard/pkg/domain"
)

// RecentLimit is how many prior incidents a verification reports.
const RecentLimit = 5

type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

// Incident is a security report filed by a host. ClientID is nil until the
// reporter links the incident to a client.
type Incident struct {
	ID         id.IncidentID `json:"id"`
	Title      string        `json:"title"`
	Status     Status        `json:"status"`
	ClientID   *id.ClientID  `json:"client_id,omitempty"`
	ReportedAt time.Time     `json:"reported_at"`
}
