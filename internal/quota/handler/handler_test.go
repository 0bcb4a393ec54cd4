package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostguard/internal/platform/config"
	"hostguard/internal/quota/models"
	"hostguard/internal/quota/service"
	"hostguard/internal/quota/store"
	id "hostguard/pkg/domain"
	"hostguard/pkg/testutil"
)

type noSubscriptions struct{}

func (noSubscriptions) SubscriptionExpiry(context.Context, id.UserID) (*time.Time, error) {
	return nil, nil
}

func TestHandleStatus(t *testing.T) {
	svc, err := service.New(store.NewInMemoryStore(), noSubscriptions{}, config.Default().Quota)
	require.NoError(t, err)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)

	t.Run("requires user", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/quota"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("reports fresh trial", func(t *testing.T) {
		req := testutil.WithUserID(testutil.NewRequest(t, http.MethodGet, "/api/quota"), uuid.NewString())
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusOK(t, rr)
		status := testutil.UnmarshalResponse[models.Status](t, rr)
		assert.False(t, status.Unlimited)
		require.NotNil(t, status.Trial)
		assert.Equal(t, 3, status.Trial.Count)
	})
}
