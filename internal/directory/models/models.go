package models

import (
	"strings"
	"time"

	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
)

// Client is the canonical identity record. Name fields and IDNumber are optional;
// an empty IDNumber is stored as NULL.
type Client struct {
	ID        id.ClientID `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Surname   string      `json:"surname"`
	IDNumber  string      `json:"id_number,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FullName joins the populated name parts.
func (c *Client) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.FirstName, c.LastName, c.Surname} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Backfill copies names from in into blank fields only and reports whether
// anything changed. Populated fields are never overwritten.
func (c *Client) Backfill(in ClientInput) bool {
	changed := false
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	fill(&c.FirstName, in.FirstName)
	fill(&c.LastName, in.LastName)
	fill(&c.Surname, in.Surname)
	return changed
}

// ClientInput carries the data a caller asserts for create-or-get.
type ClientInput struct {
	IDNumber  string
	FirstName string
	LastName  string
	Surname   string
}

// Normalize trims all fields.
func (in ClientInput) Normalize() ClientInput {
	return ClientInput{
		IDNumber:  strings.TrimSpace(in.IDNumber),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Surname:   strings.TrimSpace(in.Surname),
	}
}

// NameAlias is a user-asserted alternate name for a client. Append-only.
type NameAlias struct {
	ID        id.AliasID  `json:"id"`
	ClientID  id.ClientID `json:"client_id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (a *NameAlias) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type ContactType string

const (
	ContactPhone     ContactType = "phone"
	ContactEmail     ContactType = "email"
	ContactAddress   ContactType = "address"
	ContactEmergency ContactType = "emergency"
)

func ParseContactType(s string) (ContactType, error) {
	switch t := ContactType(strings.ToLower(strings.TrimSpace(s))); t {
	case ContactPhone, ContactEmail, ContactAddress, ContactEmergency:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "contact type must be one of phone, email, address, emergency")
}

// ClientContact is the single current value of one contact type for a client.
type ClientContact struct {
	ID        id.ContactID `json:"id"`
	ClientID  id.ClientID  `json:"client_id"`
	Type      ContactType  `json:"contact_type"`
	Value     string       `json:"value"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NormalizeContactValue applies the stored form for a contact type: phone numbers
// via domain.NormalizePhone, emails lower-cased, everything else trimmed.
func NormalizeContactValue(t ContactType, value string) string {
	value = strings.TrimSpace(value)
	switch t {
	case ContactPhone:
		return id.NormalizePhone(value)
	case ContactEmail:
		return strings.ToLower(value)
	default:
		return value
	}
}

// NameQuery drives the name-and-contact fallback lookup.
type NameQuery struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// Profile is a client with its aliases and contacts.
type Profile struct {
	Client   *Client          `json:"client"`
	Aliases  []*NameAlias     `json:"aliases"`
	Contacts []*ClientContact `json:"contacts"`
}
