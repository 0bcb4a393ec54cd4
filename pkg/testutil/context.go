package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	id "hostguard/pkg/domain"
	"hostguard/pkg/requestcontext"
)

// WithUserID marks the request as authenticated, as RequireAuth would after
// validating a bearer token. Invalid IDs leave the request anonymous.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}

// BearerToken sets the Authorization header for routes behind RequireAuth.
func BearerToken(t *testing.T, req *http.Request, token string) *http.Request {
	t.Helper()
	require.NotEmpty(t, token, "bearer token")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
