package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"hostguard/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.New()

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := requestcontext.UserID(r.Context())
		if !u.IsNil() {
			seen = u.String()
		}
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(mw func(http.Handler) http.Handler, header string) int {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, req)
		return rr.Code
	}

	valid := stubValidator{claims: &JWTClaims{UserID: userID.String(), JTI: "jti-1"}}
	invalid := stubValidator{err: errors.New("bad signature")}

	t.Run("require: valid token sets user", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, serve(RequireAuth(valid, logger), "Bearer token"))
		assert.Equal(t, userID.String(), seen)
	})

	t.Run("require: missing header is 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(RequireAuth(valid, logger), ""))
	})

	t.Run("require: invalid token is 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(RequireAuth(invalid, logger), "Bearer token"))
	})

	t.Run("require: non-uuid subject is 401", func(t *testing.T) {
		bad := stubValidator{claims: &JWTClaims{UserID: "admin"}}
		assert.Equal(t, http.StatusUnauthorized, serve(RequireAuth(bad, logger), "Bearer token"))
	})
}
