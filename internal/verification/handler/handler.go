// Package handler exposes the verification orchestrator to the web form and
// the JSON API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hostguard/internal/verification/models"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/httputil"
	"hostguard/pkg/requestcontext"
)

const maxFormBytes = 64 << 10

// Service is the orchestrator surface used over HTTP.
type Service interface {
	Verify(ctx context.Context, req models.Request) *models.Result
	History(ctx context.Context, userID id.UserID, limit int) ([]*models.VerificationRequest, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterAuthenticated mounts the form and history endpoints.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/verify", h.HandleVerifyForm)
	r.Get("/api/verifications", h.HandleHistory)
}

// RegisterAPI mounts the JSON verification endpoint. Callers are always
// signed-in users; phone resolution is reserved for the chat webhook.
func (h *Handler) RegisterAPI(r chi.Router) {
	r.Post("/api/verify", h.HandleVerifyAPI)
}

// HandleVerifyForm verifies the id_number field of a form submission.
func (h *Handler) HandleVerifyForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "failed to parse verification form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	form := &FormRequest{IDNumber: r.PostFormValue("id_number")}
	if err := httputil.Prepare(form); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result := h.service.Verify(ctx, models.Request{
		Requester: models.Requester{UserID: userID},
		Text:      form.IDNumber,
		Channel:   models.ChannelWeb,
		Metadata:  clientMetadata(ctx),
	})
	h.writeResult(ctx, w, result)
}

func (h *Handler) HandleVerifyAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.service.Verify(ctx, models.Request{
		Requester: models.Requester{UserID: userID},
		Text:      req.Subject(),
		Channel:   models.ChannelAPI,
		Metadata:  clientMetadata(ctx),
	})
	h.writeResult(ctx, w, result)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	history, err := h.service.History(ctx, userID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list verifications",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Verifications: history, Count: len(history)})
}

func (h *Handler) writeResult(ctx context.Context, w http.ResponseWriter, result *models.Result) {
	status := StatusCode(result.Status)
	if status >= http.StatusInternalServerError {
		h.logger.WarnContext(ctx, "verification did not complete",
			"request_id", requestcontext.RequestID(ctx),
			"status", result.Status,
		)
	}
	httputil.WriteJSON(w, status, result)
}

// StatusCode maps a verification status to its HTTP status.
func StatusCode(s models.Status) int {
	switch s {
	case models.StatusVerified:
		return http.StatusOK
	case models.StatusRejected:
		return http.StatusUnprocessableEntity
	case models.StatusUnavailable:
		return http.StatusServiceUnavailable
	case models.StatusInvalidIdentifier:
		return http.StatusBadRequest
	case models.StatusRegistrationRequired:
		return http.StatusUnauthorized
	case models.StatusQuotaExceeded:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func clientMetadata(ctx context.Context) map[string]string {
	meta := map[string]string{}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		meta["client_ip"] = ip
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		meta["user_agent"] = ua
	}
	device := requestcontext.DeviceInfo(ctx)
	if device.Browser != "" {
		meta["browser"] = device.Browser
	}
	if device.OS != "" {
		meta["os"] = device.OS
	}
	return meta
}
