package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hostguard/internal/incident/models"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/httputil"
	"hostguard/pkg/requestcontext"
)

type Service interface {
	AttachClient(ctx context.Context, incidentID id.IncidentID, clientID id.ClientID) (*models.Incident, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/incidents/{id}/client", h.HandleAttachClient)
}

// AttachClientRequest is the body for POST /api/incidents/{id}/client.
type AttachClientRequest struct {
	ClientID string `json:"client_id" validate:"required"`

	parsedClientID id.ClientID
}

func (r *AttachClientRequest) Normalize() {
	r.ClientID = strings.TrimSpace(r.ClientID)
}

func (r *AttachClientRequest) Validate() error {
	clientID, err := id.ParseClientID(r.ClientID)
	if err != nil {
		return err
	}
	r.parsedClientID = clientID
	return nil
}

// HandleAttachClient links an incident to a client.
func (h *Handler) HandleAttachClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if requestcontext.UserID(ctx).IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	incidentID, err := id.ParseIncidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AttachClientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inc, err := h.service.AttachClient(ctx, incidentID, req.parsedClientID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to link incident",
			"request_id", requestID,
			"incident_id", incidentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inc)
}
