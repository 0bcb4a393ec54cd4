package messenger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostguard/internal/chat/models"
	"hostguard/internal/platform/config"
)

func testConfig(baseURL string) config.Chat {
	cfg := config.Default().Chat
	cfg.GraphBaseURL = baseURL
	cfg.AccessToken = "token"
	cfg.PhoneNumberID = "1040"
	cfg.SendTimeout = time.Second
	return cfg
}

func TestSend(t *testing.T) {
	var got models.OutboundText
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1040/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.x"}]}`))
	}))
	defer srv.Close()

	err := New(testConfig(srv.URL)).Send(context.Background(), "254712345678", "hello")
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "254712345678", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "hello", got.Text.Body)
	assert.False(t, got.Text.PreviewURL)
}

func TestSendFailures(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.AccessToken = ""
		err := New(cfg).Send(context.Background(), "254712345678", "hello")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("graph api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid token"}}`))
		}))
		defer srv.Close()

		err := New(testConfig(srv.URL)).Send(context.Background(), "254712345678", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
		assert.Contains(t, err.Error(), "invalid token")
	})
}

func TestSendIsThrottled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.SendRatePerSec = 0.001
	cfg.SendBurst = 1
	cfg.SendTimeout = 50 * time.Millisecond
	client := New(cfg)

	require.NoError(t, client.Send(context.Background(), "254712345678", "first"))
	err := client.Send(context.Background(), "254712345678", "second")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "********5678", maskPhone("254712345678"))
	assert.Equal(t, "****", maskPhone("12"))
}
