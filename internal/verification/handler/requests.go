package handler

import (
	"strings"

	dErrors "hostguard/pkg/domain-errors"
)

// VerifyRequest is the body for POST /api/verify. IDNumber takes precedence
// over free text.
type VerifyRequest struct {
	IDNumber string `json:"id_number" validate:"max=64"`
	Text     string `json:"text" validate:"max=2000"`
}

func (r *VerifyRequest) Normalize() {
	r.IDNumber = strings.TrimSpace(r.IDNumber)
	r.Text = strings.TrimSpace(r.Text)
}

func (r *VerifyRequest) Validate() error {
	if r.IDNumber == "" && r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "id_number or text is required")
	}
	return nil
}

func (r *VerifyRequest) Subject() string {
	if r.IDNumber != "" {
		return r.IDNumber
	}
	return r.Text
}

// FormRequest is the web form submission for POST /verify.
type FormRequest struct {
	IDNumber string `form:"id_number" validate:"required,max=64"`
}

func (r *FormRequest) Normalize() {
	r.IDNumber = strings.TrimSpace(r.IDNumber)
}
