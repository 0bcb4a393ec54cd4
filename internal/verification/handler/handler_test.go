package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"hostguard/internal/verification/handler/mocks"
	"hostguard/internal/verification/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/testutil"
)

// =============================================================================
// Verification Handler Test Suite
// =============================================================================
// Justification for unit tests: the handler owns request parsing, the requester
// identity passed to the orchestrator and the status-to-HTTP mapping. The
// orchestrator itself is mocked.

type VerificationHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
	userID  string
}

func TestVerificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerificationHandlerSuite))
}

func (s *VerificationHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.userID = uuid.NewString()

	h := New(s.service, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	r := chi.NewRouter()
	h.RegisterAuthenticated(r)
	h.RegisterAPI(r)
	s.router = r
}

func (s *VerificationHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *VerificationHandlerSuite) form(idNumber string) *http.Request {
	return testutil.NewFormRequest(s.T(), "/verify", url.Values{"id_number": {idNumber}})
}

func (s *VerificationHandlerSuite) TestVerifyForm() {
	s.Run("requires authentication", func() {
		rr := testutil.DoRequest(s.router, s.form("12345678"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("requires an id number", func() {
		rr := testutil.DoRequest(s.router, testutil.WithUserID(s.form("  "), s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("verifies as the signed-in user on the web channel", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.Request) *models.Result {
				s.Equal(models.ChannelWeb, req.Channel)
				s.Equal("12345678", req.Text)
				s.Equal(s.userID, req.Requester.UserID.String())
				return &models.Result{Status: models.StatusVerified, Success: true, MatchedName: "JOHN DOE"}
			})

		rr := testutil.DoRequest(s.router, testutil.WithUserID(s.form("12345678"), s.userID))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "matched_name", "JOHN DOE")
	})
}

func (s *VerificationHandlerSuite) TestVerifyAPI() {
	s.Run("anonymous callers are rejected even with a phone", func() {
		body := map[string]string{"id_number": "12345678", "phone": "0712345678"}
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/verify", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("body needs an id number or text", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/verify", map[string]string{"text": " "})
		rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed body", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/verify", "{")
		rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("free text is verified as the signed-in user", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.Request) *models.Result {
				s.Equal(models.ChannelAPI, req.Channel)
				s.Equal(s.userID, req.Requester.UserID.String())
				s.Empty(req.Requester.Phone)
				s.Equal("check A123456789X", req.Text)
				return &models.Result{Status: models.StatusRejected, FailureReason: "not registered"}
			})

		body := map[string]string{"text": "check A123456789X", "phone": "0712345678"}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/verify", body)
		rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.userID))
		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
		testutil.AssertJSONContains(s.T(), rr, "status", "rejected")
	})
}

func (s *VerificationHandlerSuite) TestHistory() {
	s.Run("requires authentication", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/verifications"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("rejects a bad limit", func() {
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/api/verifications?limit=abc"), s.userID)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("lists the caller's requests", func() {
		s.service.EXPECT().History(gomock.Any(), gomock.Any(), 5).
			Return([]*models.VerificationRequest{{ID: id.VerificationID(uuid.New()), IDNumber: "12345678"}}, nil)

		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/api/verifications?limit=5"), s.userID)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[HistoryResponse](s.T(), rr)
		s.Equal(1, resp.Count)
		s.Equal("12345678", resp.Verifications[0].IDNumber)
	})

	s.Run("store failure", func() {
		s.service.EXPECT().History(gomock.Any(), gomock.Any(), 0).Return(nil, errors.New("boom"))
		req := testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/api/verifications"), s.userID)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	})
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		status models.Status
		want   int
	}{
		{models.StatusVerified, http.StatusOK},
		{models.StatusRejected, http.StatusUnprocessableEntity},
		{models.StatusUnavailable, http.StatusServiceUnavailable},
		{models.StatusInvalidIdentifier, http.StatusBadRequest},
		{models.StatusRegistrationRequired, http.StatusUnauthorized},
		{models.StatusQuotaExceeded, http.StatusPaymentRequired},
		{models.StatusInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.status))
		})
	}
}
