package authority

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for authority calls.
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryBadData        Category = "bad_data"
	CategoryAuthentication Category = "authentication"
	CategoryOutage         Category = "provider_outage"
	CategoryNotFound       Category = "not_found"
	CategoryNotConfigured  Category = "not_configured"
	CategoryCanceled       Category = "canceled"
	CategoryInternal       Category = "internal"
)

// Error wraps an authority failure with its category.
type Error struct {
	Category   Category
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("authority [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("authority [%s]: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

func newError(category Category, message string, underlying error) *Error {
	return &Error{Category: category, Message: message, Underlying: underlying}
}

// GetCategory extracts the category from err, defaulting to CategoryInternal.
func GetCategory(err error) Category {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Category
	}
	return CategoryInternal
}

// countsAgainstBreaker reports whether a failure says something about the
// authority's health rather than about the identifier.
func countsAgainstBreaker(c Category) bool {
	switch c {
	case CategoryTimeout, CategoryOutage, CategoryBadData, CategoryAuthentication:
		return true
	}
	return false
}
