// Package models holds rate-limit classes, limits and check results.
package models

import "time"

// Class groups endpoints that share one limit.
type Class string

const (
	// ClassVerify covers the web form and JSON API verification endpoints.
	ClassVerify Class = "verify"
	// ClassWebhook covers inbound chat platform deliveries.
	ClassWebhook Class = "webhook"
)

// Limit is a sliding-window allowance.
type Limit struct {
	Requests int
	Window   time.Duration
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"error_description"`
	RetryAfter int    `json:"retry_after"`
}
