package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hostguard/internal/directory/models"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/httputil"
	"hostguard/pkg/requestcontext"
)

// Service defines the directory operations exposed over HTTP.
type Service interface {
	CreateOrGet(ctx context.Context, in models.ClientInput) (*models.Client, bool, error)
	FindByNameAndContact(ctx context.Context, q models.NameQuery) (*models.Client, error)
	UpsertContact(ctx context.Context, clientID id.ClientID, contactType models.ContactType, value string) (*models.ClientContact, error)
	AddAlias(ctx context.Context, clientID id.ClientID, firstName, lastName string) (*models.NameAlias, error)
	Profile(ctx context.Context, clientID id.ClientID) (*models.Profile, error)
}

// Handler wires client directory endpoints to the directory service.
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

// Register mounts directory endpoints. Callers apply authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/clients", h.HandleSave)
	r.Post("/api/clients/search", h.HandleSearch)
	r.Get("/api/clients/{id}", h.HandleProfile)
	r.Post("/api/clients/{id}/aliases", h.HandleAddAlias)
	r.Put("/api/clients/{id}/contacts", h.HandleUpsertContact)
}

// HandleSave stores a client after a successful verification.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireUser(w, ctx) {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveClientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	client, created, err := h.service.CreateOrGet(ctx, req.Input())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save client",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	for _, c := range req.Contacts() {
		contactType, _ := models.ParseContactType(c.Type)
		if _, err := h.service.UpsertContact(ctx, client.ID, contactType, c.Value); err != nil {
			h.logger.ErrorContext(ctx, "failed to save client contact",
				"request_id", requestID,
				"client_id", client.ID,
				"contact_type", c.Type,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, SaveClientResponse{
		Success:  true,
		ClientID: client.ID.String(),
		Created:  created,
	})
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireUser(w, ctx) {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	client, err := h.service.FindByNameAndContact(ctx, req.Query())
	if err != nil {
		h.logger.ErrorContext(ctx, "client search failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SearchResponse{Found: client != nil, Client: client})
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireUser(w, ctx) {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Profile(ctx, clientID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load client profile",
			"request_id", requestcontext.RequestID(ctx),
			"client_id", clientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if profile == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "client not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) HandleAddAlias(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireUser(w, ctx) {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AliasRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	alias, err := h.service.AddAlias(ctx, clientID, req.FirstName, req.LastName)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to add client alias",
			"request_id", requestID,
			"client_id", clientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, alias)
}

func (h *Handler) HandleUpsertContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireUser(w, ctx) {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ContactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contact, err := h.service.UpsertContact(ctx, clientID, req.ParsedType(), req.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to save client contact",
			"request_id", requestID,
			"client_id", clientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, contact)
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context) bool {
	if requestcontext.UserID(ctx).IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	return true
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (id.ClientID, bool) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ClientID{}, false
	}
	return clientID, true
}
