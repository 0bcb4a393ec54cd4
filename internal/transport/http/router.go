// Package httptransport mounts every HTTP front door on one chi router.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hostguard/internal/app"
	chatHandler "hostguard/internal/chat/handler"
	directoryHandler "hostguard/internal/directory/handler"
	incidentHandler "hostguard/internal/incident/handler"
	jwttoken "hostguard/internal/jwt_token"
	"hostguard/internal/platform/middleware"
	quotaHandler "hostguard/internal/quota/handler"
	rateLimitMiddleware "hostguard/internal/ratelimit/middleware"
	rateLimitModels "hostguard/internal/ratelimit/models"
	verificationHandler "hostguard/internal/verification/handler"
	"hostguard/pkg/platform/httputil"
	"hostguard/pkg/platform/middleware/auth"
	"hostguard/pkg/platform/middleware/metadata"
	"hostguard/pkg/platform/middleware/requesttime"
	"hostguard/pkg/requestcontext"
)

const healthTimeout = 2 * time.Second

// NewRouter builds the router over an assembled App.
func NewRouter(a *app.App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(a.Logger))
	r.Use(middleware.Logger(a.Logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata(a.TrustedProxies))
	r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))
	r.Use(middleware.LatencyMiddleware(a.Metrics))

	r.Get("/healthz", healthHandler(a))
	r.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	tokens := jwttoken.NewJWTServiceAdapter(a.Tokens)
	verification := verificationHandler.New(a.Verification, a.Logger)
	limits := rateLimitMiddleware.New(a.RateLimits, a.Logger,
		rateLimitMiddleware.WithDisabled(!a.Config.RateLimit.Enabled))

	r.Group(func(r chi.Router) {
		r.Use(limits.RateLimit(rateLimitModels.ClassWebhook))
		chatHandler.New(chatHandler.Dependencies{
			Verifier:   a.Verification,
			Classifier: a.Chat.Classifier,
			Sender:     a.Chat.Sender,
			Deduper:    a.Chat.Deduper,
			Renderer:   a.Chat.Renderer,
		}, a.Config.Chat, a.Logger, chatHandler.WithMetrics(a.Metrics)).Register(r)
	})

	// Limits run before authentication.
	r.Group(func(r chi.Router) {
		r.Use(limits.RateLimit(rateLimitModels.ClassVerify))
		r.Use(auth.RequireAuth(tokens, a.Logger))
		verification.RegisterAuthenticated(r)
		r.With(middleware.ContentTypeJSON).Group(verification.RegisterAPI)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, a.Logger))
		r.Use(middleware.ContentTypeJSON)
		quotaHandler.New(a.Quota, a.Logger).Register(r)
		directoryHandler.New(a.Directory, a.Logger).Register(r)
		incidentHandler.New(a.Incidents, a.Logger).Register(r)
	})

	return r
}

func healthHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := a.Health(ctx); err != nil {
			a.Logger.WarnContext(ctx, "health check failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
