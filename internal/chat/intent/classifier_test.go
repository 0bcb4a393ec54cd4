package intent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostguard/internal/chat/models"
	"hostguard/internal/platform/config"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		text string
		want models.Intent
	}{
		{"Please verify A123456789X", models.IntentVerify},
		{"can you CHECK this guest", models.IntentVerify},
		{"I want to report a theft", models.IntentReport},
		{"show my incidents", models.IntentView},
		{"how does this work", models.IntentHelp},
		{"12345678", models.IntentUnknown},
		{"verify and report", models.IntentVerify},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.text))
		})
	}
}

func newModelServer(t *testing.T, answer string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req["model"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassifier(t *testing.T) {
	ctx := context.Background()

	t.Run("without a key uses keywords", func(t *testing.T) {
		c := New(config.Intent{Model: "gpt-test"})
		assert.Equal(t, models.IntentReport, c.Classify(ctx, "report an incident"))
	})

	t.Run("uses the model answer", func(t *testing.T) {
		srv := newModelServer(t, "View", http.StatusOK)
		c := New(config.Intent{OpenAIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test", Timeout: time.Second})
		assert.Equal(t, models.IntentView, c.Classify(ctx, "verify this please"))
	})

	t.Run("unexpected answer is unknown", func(t *testing.T) {
		srv := newModelServer(t, "I think verify", http.StatusOK)
		c := New(config.Intent{OpenAIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test"})
		assert.Equal(t, models.IntentUnknown, c.Classify(ctx, "hello"))
	})

	t.Run("model failure falls back to keywords", func(t *testing.T) {
		srv := newModelServer(t, "", http.StatusInternalServerError)
		c := New(config.Intent{OpenAIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test"})
		assert.Equal(t, models.IntentHelp, c.Classify(ctx, "help me"))
	})
}
