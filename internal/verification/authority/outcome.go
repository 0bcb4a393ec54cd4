package authority

import "encoding/json"

// FailureKind separates the three failure families callers word differently.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureNoRecord      FailureKind = "no_record"
	FailureNotConfigured FailureKind = "not_configured"
	FailureUnavailable   FailureKind = "unavailable"
)

// Outcome is the normalized result of one verification call. It is produced
// once and never mutated.
type Outcome struct {
	Success       bool            `json:"success"`
	MatchedName   string          `json:"matched_name,omitempty"`
	MatchedPIN    string          `json:"matched_pin,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Failure       FailureKind     `json:"failure,omitempty"`
	Category      Category        `json:"category,omitempty"`
	ErrorCode     string          `json:"error_code,omitempty"`
	RawPayload    json.RawMessage `json:"raw_payload,omitempty"`
}

const (
	ReasonNotConfigured = "credentials not configured"
	ReasonNoTaxpayer    = "No taxpayer information found for this ID"
	ReasonUnavailable   = "verification service unavailable, please try again"
	ReasonCircuitOpen   = "verification service temporarily unavailable, please try again shortly"
	ReasonNoRecord      = "The authority reported no record for this identifier"
)

// Code 30002 is the authority's "taxpayer not found" answer.
const (
	codeNotRegistered   = "30002"
	reasonNotRegistered = "The provided ID number could not be verified. It may not be registered with the tax authority, " +
		"or it may be invalid or in an incorrect format."
)

func success(name, pin string, raw json.RawMessage) Outcome {
	return Outcome{Success: true, MatchedName: name, MatchedPIN: pin, RawPayload: raw}
}

func rejected(code, message string, raw json.RawMessage) Outcome {
	reason := message
	switch {
	case code == codeNotRegistered:
		reason = reasonNotRegistered
	case reason == "":
		reason = ReasonNoRecord
	}
	return Outcome{
		Failure:       FailureNoRecord,
		Category:      CategoryNotFound,
		FailureReason: reason,
		ErrorCode:     code,
		RawPayload:    raw,
	}
}

func failed(err error) Outcome {
	cat := GetCategory(err)
	switch cat {
	case CategoryNotConfigured:
		return Outcome{Failure: FailureNotConfigured, Category: cat, FailureReason: ReasonNotConfigured}
	default:
		return Outcome{Failure: FailureUnavailable, Category: cat, FailureReason: ReasonUnavailable}
	}
}
