// Package authoritytest runs an in-process fake of the tax authority's token
// and PIN checker endpoints.
package authoritytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	APIKey    = "test-key"
	APISecret = "test-secret"
	token     = "fake-access-token"
)

// Rejection is an error answer for one identifier.
type Rejection struct {
	Code    string
	Message string
	Status  int
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	names       map[string]string
	rejections  map[string]Rejection
	lookupFail  int
	tokenStatus int
	delay       time.Duration

	TokenCalls  atomic.Int32
	LookupCalls atomic.Int32
	LastBody    atomic.Value
}

// NewServer starts a fake authority closed at test cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		names:       map[string]string{},
		rejections:  map[string]Rejection{},
		tokenStatus: http.StatusOK,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/token/generate", s.handleToken)
	mux.HandleFunc("POST /checker/v1/pin", s.handleLookup)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// WithTaxpayer registers a successful answer.
func (s *Server) WithTaxpayer(id, name string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = name
	return s
}

// WithRejection registers an error-code answer.
func (s *Server) WithRejection(id string, r Rejection) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Status == 0 {
		r.Status = http.StatusOK
	}
	s.rejections[id] = r
	return s
}

// FailLookups makes the lookup endpoint answer with status and no error body.
func (s *Server) FailLookups(status int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupFail = status
	return s
}

func (s *Server) TokenStatus(status int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenStatus = status
	return s
}

func (s *Server) Delay(d time.Duration) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return s
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.TokenCalls.Add(1)
	s.mu.Lock()
	status := s.tokenStatus
	s.mu.Unlock()

	user, pass, ok := r.BasicAuth()
	if !ok || user != APIKey || pass != APISecret || r.URL.Query().Get("grant_type") != "client_credentials" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "expires_in": "3599"})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	s.LookupCalls.Add(1)
	s.mu.Lock()
	delay, fail := s.delay, s.lookupFail
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if r.Header.Get("Authorization") != "Bearer "+token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if fail != 0 {
		w.WriteHeader(fail)
		return
	}

	var body struct {
		TaxpayerType string `json:"TaxpayerType"`
		TaxpayerID   string `json:"TaxpayerID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"ErrorCode": "10001", "ErrorMessage": "malformed request"})
		return
	}
	s.LastBody.Store(body.TaxpayerType + ":" + body.TaxpayerID)

	s.mu.Lock()
	name, found := s.names[body.TaxpayerID]
	rej, rejected := s.rejections[body.TaxpayerID]
	s.mu.Unlock()

	switch {
	case rejected:
		writeJSON(w, rej.Status, map[string]string{"ErrorCode": rej.Code, "ErrorMessage": rej.Message})
	case found:
		writeJSON(w, http.StatusOK, map[string]string{"TaxpayerPIN": body.TaxpayerID, "TaxpayerName": name})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"TaxpayerPIN": body.TaxpayerID})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
