package handler

import (
	"strings"

	"hostguard/internal/directory/models"
	dErrors "hostguard/pkg/domain-errors"
)

// SaveClientRequest is the body for POST /api/clients.
type SaveClientRequest struct {
	IDNumber  string `json:"id_number" validate:"required,numeric,min=6,max=10"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Surname   string `json:"surname" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Address   string `json:"address" validate:"max=500"`
	Emergency string `json:"emergency_contact" validate:"max=200"`
}

func (r *SaveClientRequest) Normalize() {
	r.IDNumber = strings.TrimSpace(r.IDNumber)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Surname = strings.TrimSpace(r.Surname)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.Emergency = strings.TrimSpace(r.Emergency)
}

// Validate implements httputil.Validatable.
func (r *SaveClientRequest) Validate() error {
	for _, ch := range r.IDNumber {
		if ch < '0' || ch > '9' {
			return dErrors.New(dErrors.CodeValidation, "id_number must contain only digits")
		}
	}
	return nil
}

func (r *SaveClientRequest) Input() models.ClientInput {
	return models.ClientInput{
		IDNumber:  r.IDNumber,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Surname:   r.Surname,
	}
}

// Contacts lists the non-empty contact fields in a stable order.
func (r *SaveClientRequest) Contacts() []ContactRequest {
	var out []ContactRequest
	for _, c := range []ContactRequest{
		{Type: string(models.ContactPhone), Value: r.Phone},
		{Type: string(models.ContactEmail), Value: r.Email},
		{Type: string(models.ContactAddress), Value: r.Address},
		{Type: string(models.ContactEmergency), Value: r.Emergency},
	} {
		if c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

// SearchRequest is the body for POST /api/clients/search.
type SearchRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
	Email     string `json:"email" validate:"max=254"`
}

func (r *SearchRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *SearchRequest) Query() models.NameQuery {
	return models.NameQuery{FirstName: r.FirstName, LastName: r.LastName, Phone: r.Phone, Email: r.Email}
}

// AliasRequest is the body for POST /api/clients/{id}/aliases.
type AliasRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

func (r *AliasRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// ContactRequest is the body for PUT /api/clients/{id}/contacts.
type ContactRequest struct {
	Type  string `json:"contact_type" validate:"required"`
	Value string `json:"value" validate:"required,max=500"`

	parsedType models.ContactType
}

func (r *ContactRequest) Normalize() {
	r.Type = strings.TrimSpace(r.Type)
	r.Value = strings.TrimSpace(r.Value)
}

// Validate implements httputil.Validatable.
func (r *ContactRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	t, err := models.ParseContactType(r.Type)
	if err != nil {
		return err
	}
	r.parsedType = t
	return nil
}

func (r *ContactRequest) ParsedType() models.ContactType {
	return r.parsedType
}
