// Package handler is the WhatsApp webhook: the Graph API subscription
// handshake and inbound message processing.
package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hostguard/internal/chat/messages"
	"hostguard/internal/chat/models"
	"hostguard/internal/chat/ports"
	"hostguard/internal/platform/config"
	"hostguard/internal/platform/metrics"
	"hostguard/internal/verification/identifier"
	verificationModels "hostguard/internal/verification/models"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/httputil"
	"hostguard/pkg/requestcontext"
)

const (
	WebhookPath     = "/webhooks/whatsapp"
	signatureHeader = "X-Hub-Signature-256"
	maxPayloadBytes = 1 << 20
)

// Dependencies are the collaborators the webhook calls.
type Dependencies struct {
	Verifier   ports.Verifier
	Classifier ports.Classifier
	Sender     ports.Sender
	Deduper    ports.Deduper
	Renderer   *messages.Renderer
}

type Handler struct {
	deps        Dependencies
	verifyToken string
	appSecret   string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func New(deps Dependencies, cfg config.Chat, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		deps:        deps,
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get(WebhookPath, h.HandleHandshake)
	r.Post(WebhookPath, h.HandleMessages)
}

// HandleHandshake answers the Graph API subscription check by echoing hub.challenge.
func (h *Handler) HandleHandshake(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	if mode != "subscribe" || h.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		h.logger.WarnContext(r.Context(), "webhook verification failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"mode", mode,
		)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Verification failed"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// HandleMessages processes every text message in a change notification and
// replies to each sender. Per-message failures are logged, never returned,
// so the platform does not redeliver.
func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if h.appSecret != "" && !validSignature(h.appSecret, body, r.Header.Get(signatureHeader)) {
		h.logger.WarnContext(ctx, "webhook signature mismatch", "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid signature"))
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.WarnContext(ctx, "failed to decode webhook payload",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	for _, msg := range payload.Messages() {
		h.process(r, msg)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) process(r *http.Request, msg models.InboundMessage) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if strings.TrimSpace(msg.Text) == "" || msg.From == "" {
		return
	}

	first, err := h.deps.Deduper.FirstSeen(ctx, msg.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "message dedupe unavailable",
			"request_id", requestID,
			"message_id", msg.ID,
			"error", err,
		)
	} else if !first {
		h.logger.InfoContext(ctx, "duplicate chat message ignored",
			"request_id", requestID,
			"message_id", msg.ID,
		)
		return
	}

	intent := h.deps.Classifier.Classify(ctx, msg.Text)
	h.metrics.IncrementChatMessage(string(intent))

	reply := h.reply(r, msg, intent)
	if err := h.deps.Sender.Send(ctx, msg.From, reply); err != nil {
		h.logger.ErrorContext(ctx, "failed to send chat reply",
			"request_id", requestID,
			"message_id", msg.ID,
			"intent", intent,
			"error", err,
		)
	}
}

func (h *Handler) reply(r *http.Request, msg models.InboundMessage, intent models.Intent) string {
	switch intent {
	case models.IntentReport:
		return h.deps.Renderer.Report()
	case models.IntentView:
		return h.deps.Renderer.View()
	case models.IntentHelp:
		return h.deps.Renderer.Help()
	case models.IntentUnknown:
		// A bare identifier is a verification request.
		if !identifier.Extract(msg.Text).Recognized() {
			return h.deps.Renderer.Help()
		}
	}

	result := h.deps.Verifier.Verify(r.Context(), verificationModels.Request{
		Requester: verificationModels.Requester{Phone: msg.From},
		Text:      msg.Text,
		Channel:   verificationModels.ChannelWhatsApp,
		Metadata: map[string]string{
			"message_id": msg.ID,
			"intent":     string(intent),
		},
	})
	return h.deps.Renderer.Result(result)
}

func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
