package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostguard/internal/directory/service"
	"hostguard/internal/directory/store"
	"hostguard/pkg/testutil"
)

var testUser = uuid.NewString()

func newDirectoryRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := service.New(store.NewInMemoryStore())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func TestSaveClient(t *testing.T) {
	router := newDirectoryRouter(t)

	testutil.Given(t, "a new id number", func(t *testing.T) {
		body := map[string]string{"id_number": "12345678", "first_name": "John", "phone": "0712345678"}
		req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/api/clients", body), testUser)
		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "the client is created", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			resp := testutil.UnmarshalResponse[SaveClientResponse](t, rr)
			assert.True(t, resp.Success)
			assert.True(t, resp.Created)
			assert.NotEmpty(t, resp.ClientID)
		})
	})

	testutil.Given(t, "the same id number again", func(t *testing.T) {
		body := map[string]string{"id_number": "12345678", "first_name": "Johnny"}
		req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/api/clients", body), testUser)
		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "the existing client is returned", func(t *testing.T) {
			testutil.AssertStatusOK(t, rr)
			resp := testutil.UnmarshalResponse[SaveClientResponse](t, rr)
			assert.False(t, resp.Created)
		})
	})
}

func TestSaveClientValidation(t *testing.T) {
	router := newDirectoryRouter(t)

	tests := []struct {
		name     string
		idNumber string
	}{
		{"too short", "12345"},
		{"too long", "12345678901"},
		{"not numeric", "A12345678"},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]string{"id_number": tt.idNumber}
			req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/api/clients", body), testUser)
			rr := testutil.DoRequest(router, req)
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
		})
	}
}

func TestDirectoryRequiresUser(t *testing.T) {
	router := newDirectoryRouter(t)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/clients/search", map[string]string{"first_name": "John"})
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestSearchAndProfile(t *testing.T) {
	router := newDirectoryRouter(t)

	save := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/api/clients",
		map[string]string{"id_number": "7654321", "first_name": "Akinyi", "email": "akinyi@example.com"}), testUser)
	created := testutil.UnmarshalResponse[SaveClientResponse](t, testutil.DoRequest(router, save))

	t.Run("search by name and email", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/api/clients/search",
			map[string]string{"first_name": "akinyi", "email": "AKINYI@example.com"}), testUser)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[SearchResponse](t, rr)
		require.True(t, resp.Found)
		assert.Equal(t, created.ClientID, resp.Client.ID.String())
	})

	t.Run("search miss", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/api/clients/search",
			map[string]string{"first_name": "Nobody"}), testUser)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "found", false)
	})

	t.Run("alias and contact then profile", func(t *testing.T) {
		alias := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPost, "/api/clients/"+created.ClientID+"/aliases",
			map[string]string{"first_name": "Aki"}), testUser)
		testutil.AssertStatus(t, testutil.DoRequest(router, alias), http.StatusCreated)

		contact := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPut, "/api/clients/"+created.ClientID+"/contacts",
			map[string]string{"contact_type": "phone", "value": "712 345 678"}), testUser)
		rr := testutil.DoRequest(router, contact)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "value", "254712345678")

		profile := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/api/clients/"+created.ClientID), testUser)
		rr = testutil.DoRequest(router, profile)
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), `"first_name":"Aki"`)
		assert.Contains(t, rr.Body.String(), `"254712345678"`)
	})

	t.Run("unknown contact type", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewJSONRequest(t, http.MethodPut, "/api/clients/"+created.ClientID+"/contacts",
			map[string]string{"contact_type": "fax", "value": "1"}), testUser)
		testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusBadRequest, "validation_error")
	})

	t.Run("unknown client profile", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/api/clients/"+uuid.NewString()), testUser)
		testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusNotFound, "not_found")
	})

	t.Run("malformed client id", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/api/clients/not-a-uuid"), testUser)
		testutil.AssertStatusAndError(t, testutil.DoRequest(router, req), http.StatusBadRequest, "invalid_input")
	})
}
