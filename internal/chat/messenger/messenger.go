// Package messenger sends chat replies through the WhatsApp Cloud (Graph) API.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hostguard/internal/chat/models"
	"hostguard/internal/platform/config"
	"hostguard/internal/platform/metrics"
)

// ErrNotConfigured is returned when no access token or phone number ID is set.
var ErrNotConfigured = errors.New("chat sender not configured")

const maxErrorBody = 4 << 10

// Client posts text messages to {base}/{phone_number_id}/messages. Sends are
// throttled by a token bucket shared across requests.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	timeout       time.Duration
	limiter       *rate.Limiter
	httpClient    *http.Client
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(cfg config.Chat, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.SendRatePerSec > 0 {
		limit = rate.Limit(cfg.SendRatePerSec)
	}
	burst := cfg.SendBurst
	if burst < 1 {
		burst = 1
	}
	c := &Client{
		baseURL:       strings.TrimRight(cfg.GraphBaseURL, "/"),
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		timeout:       cfg.SendTimeout,
		limiter:       rate.NewLimiter(limit, burst),
		httpClient:    &http.Client{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers body to the phone number to.
func (c *Client) Send(ctx context.Context, to, body string) error {
	err := c.send(ctx, to, body)
	if err != nil {
		c.metrics.IncrementChatSendFailures()
		c.logger.WarnContext(ctx, "failed to send chat message", "to", maskPhone(to), "error", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, to, body string) error {
	if c.accessToken == "" || c.phoneNumberID == "" {
		return ErrNotConfigured
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	payload, err := json.Marshal(models.OutboundText{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             models.OutboundTextBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+c.phoneNumberID+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("send message: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func maskPhone(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
