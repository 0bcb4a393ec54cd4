package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "hostguard/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

type createClientRequest struct {
	IDNumber  string `json:"id_number" validate:"required,numeric,min=6,max=10"`
	FirstName string `json:"first_name"`
}

func (r *createClientRequest) Normalize() {
	r.IDNumber = strings.TrimSpace(r.IDNumber)
}

func (r *createClientRequest) Validate() error {
	if r.FirstName == "reject" {
		return dErrors.New(dErrors.CodeInvariantViolation, "first name rejected")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	decode := func(body string) (*createClientRequest, *httptest.ResponseRecorder, bool) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/clients", strings.NewReader(body))
		req, ok := DecodeAndPrepare[createClientRequest](w, r, logger, r.Context(), "req-1")
		return req, w, ok
	}

	t.Run("normalizes then validates", func(t *testing.T) {
		req, _, ok := decode(`{"id_number":"  12345678 ","first_name":"Jane"}`)
		if !ok {
			t.Fatal("expected request to be accepted")
		}
		if req.IDNumber != "12345678" {
			t.Fatalf("expected trimmed id_number, got %q", req.IDNumber)
		}
	})

	t.Run("struct tag failure names the json field", func(t *testing.T) {
		_, w, ok := decode(`{"id_number":"12ab"}`)
		if ok {
			t.Fatal("expected validation failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		var body map[string]string
		_ = json.NewDecoder(w.Body).Decode(&body)
		if body["error"] != "validation_error" || !strings.Contains(body["error_description"], "id_number") {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("custom validation keeps its code", func(t *testing.T) {
		_, w, ok := decode(`{"id_number":"12345678","first_name":"reject"}`)
		if ok {
			t.Fatal("expected validation failure")
		}
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		_, w, ok := decode(`{`)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for malformed body, got %d", w.Code)
		}
	})
}
