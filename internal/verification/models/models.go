package models

import (
	"time"

	incidentModels "hostguard/internal/incident/models"
	id "hostguard/pkg/domain"
)

// Channel is the surface a verification request arrived on.
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelAPI      Channel = "api"
	ChannelCLI      Channel = "cli"
)

// RecordsUnrecognized reports whether the channel audits messages that carry
// no identifier. Only the chat channel does; the others reject them inline.
func (c Channel) RecordsUnrecognized() bool {
	return c == ChannelWhatsApp
}

// Requester identifies who asked. UserID is set for authenticated callers;
// Phone is the fallback used by the chat channel.
type Requester struct {
	UserID id.UserID
	Phone  string
}

// Request is one verification attempt from any channel.
type Request struct {
	Requester Requester
	Text      string
	Channel   Channel
	Metadata  map[string]string
}

type Status string

const (
	StatusVerified             Status = "verified"
	StatusRejected             Status = "rejected"
	StatusUnavailable          Status = "unavailable"
	StatusInvalidIdentifier    Status = "invalid_identifier"
	StatusRegistrationRequired Status = "registration_required"
	StatusQuotaExceeded        Status = "quota_exceeded"
	StatusInternalError        Status = "internal_error"
)

// Result is what every channel renders.
type Result struct {
	Status         Status                     `json:"status"`
	Success        bool                       `json:"success"`
	Identifier     string                     `json:"identifier,omitempty"`
	IdentifierKind string                     `json:"identifier_kind,omitempty"`
	MatchedName    string                     `json:"matched_name,omitempty"`
	FailureReason  string                     `json:"failure_reason,omitempty"`
	ErrorCode      string                     `json:"error_code,omitempty"`
	PriorIncidents []*incidentModels.Incident `json:"prior_incidents"`
	ClientID       *id.ClientID               `json:"client_id,omitempty"`
	Aliases        []string                   `json:"aliases,omitempty"`
	RemainingTrial *int                       `json:"remaining_trial,omitempty"`
	Unlimited      bool                       `json:"unlimited"`
	RequestID      *id.VerificationID         `json:"verification_id,omitempty"`
}

// VerificationRequest is the audit row for one verification attempt. It is
// created before the authority is called and updated in place afterwards.
type VerificationRequest struct {
	ID               id.VerificationID `json:"id"`
	RequestedBy      *id.UserID        `json:"requested_by,omitempty"`
	RequesterPhone   string            `json:"requester_phone,omitempty"`
	IDNumber         string            `json:"id_number"`
	IsSuccessful     bool              `json:"is_successful"`
	ResponseData     map[string]any    `json:"response_data"`
	ClientID         *id.ClientID      `json:"client_id,omitempty"`
	RelatedIncidents []id.IncidentID   `json:"related_incidents"`
	Source           Channel           `json:"source"`
	CreatedAt        time.Time         `json:"created_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// MarkOutcome records the authority verdict. CompletedAt is set the first time
// the request succeeds and never moves afterwards.
func (v *VerificationRequest) MarkOutcome(success bool, now time.Time) {
	v.IsSuccessful = success
	if success && v.CompletedAt == nil {
		t := now
		v.CompletedAt = &t
	}
}

// Merge copies data into ResponseData, overwriting existing keys.
func (v *VerificationRequest) Merge(data map[string]any) {
	if v.ResponseData == nil {
		v.ResponseData = make(map[string]any, len(data))
	}
	for k, val := range data {
		v.ResponseData[k] = val
	}
}

// LinkClient attaches the resolved client and the incidents reported to the caller.
func (v *VerificationRequest) LinkClient(clientID id.ClientID, incidents []id.IncidentID) {
	c := clientID
	v.ClientID = &c
	v.RelatedIncidents = append([]id.IncidentID(nil), incidents...)
}
