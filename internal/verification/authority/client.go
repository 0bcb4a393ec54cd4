// Package authority verifies identifiers against the tax authority's PIN checker.
//
// Each verification performs a fresh client-credentials token exchange followed by
// one lookup. Failures never escape as errors; they are folded into the Outcome.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hostguard/internal/platform/config"
	"hostguard/internal/platform/metrics"
	"hostguard/pkg/platform/circuit"
)

const (
	tokenPath    = "/v1/token/generate"
	lookupPath   = "/checker/v1/pin"
	maxBodyBytes = 1 << 20
)

// Credentials is the key/secret pair for the token exchange.
type Credentials struct {
	APIKey    string
	APISecret string
}

func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// CredentialProvider supplies the authority credentials.
type CredentialProvider interface {
	Credentials(ctx context.Context) (Credentials, bool)
}

// StaticCredentials serves credentials fixed at startup.
type StaticCredentials Credentials

func (s StaticCredentials) Credentials(context.Context) (Credentials, bool) {
	c := Credentials(s)
	return c, c.Configured()
}

// Client calls the authority over HTTP.
type Client struct {
	baseURL      string
	taxpayerType string
	timeout      time.Duration
	creds        CredentialProvider
	httpClient   *http.Client
	breaker      *circuit.Breaker
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
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

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func New(cfg config.Authority, creds CredentialProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		taxpayerType: cfg.TaxpayerType,
		timeout:      cfg.Timeout,
		creds:        creds,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		breaker: circuit.New("identity-authority",
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(cfg.BreakerCooldown),
		),
		logger: slog.Default(),
		tracer: otel.Tracer("hostguard/authority"),
	}
	if c.taxpayerType == "" {
		c.taxpayerType = "KE"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify looks up identifier and returns a normalized Outcome. It never mutates
// local state and never returns an error.
func (c *Client) Verify(ctx context.Context, identifier string) Outcome {
	ctx, span := c.tracer.Start(ctx, "authority.Verify")
	defer span.End()

	out := c.verify(ctx, identifier)
	span.SetAttributes(
		attribute.Bool("authority.success", out.Success),
		attribute.String("authority.failure", string(out.Failure)),
	)
	if !out.Success {
		span.SetStatus(codes.Error, string(out.Failure))
	}
	return out
}

func (c *Client) verify(ctx context.Context, identifier string) Outcome {
	creds, ok := c.creds.Credentials(ctx)
	if !ok {
		c.logger.ErrorContext(ctx, "authority credentials not configured")
		c.metrics.ObserveAuthorityCall("not_configured", 0)
		return failed(newError(CategoryNotConfigured, ReasonNotConfigured, nil))
	}
	if !c.breaker.Allow() {
		c.metrics.ObserveAuthorityCall("short_circuit", 0)
		return Outcome{Failure: FailureUnavailable, Category: CategoryOutage, FailureReason: ReasonCircuitOpen}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.exchangeAndLookup(ctx, creds, identifier)
	elapsed := time.Since(start)
	if err != nil {
		cat := GetCategory(err)
		if countsAgainstBreaker(cat) {
			if _, change := c.breaker.RecordFailure(); change.Opened {
				c.logger.WarnContext(ctx, "authority circuit opened", "breaker", c.breaker.Name())
			}
		}
		c.logger.WarnContext(ctx, "authority lookup failed",
			"category", cat,
			"error", err,
			"latency_ms", elapsed.Milliseconds(),
		)
		c.metrics.ObserveAuthorityCall(string(cat), elapsed)
		return failed(err)
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "authority circuit closed", "breaker", c.breaker.Name())
	}
	result := "success"
	if !out.Success {
		result = "rejected"
	}
	c.metrics.ObserveAuthorityCall(result, elapsed)
	return out
}

func (c *Client) exchangeAndLookup(ctx context.Context, creds Credentials, identifier string) (Outcome, error) {
	token, err := c.fetchToken(ctx, creds)
	if err != nil {
		return Outcome{}, err
	}
	return c.lookup(ctx, token, identifier)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) fetchToken(ctx context.Context, creds Credentials) (string, error) {
	u := c.baseURL + tokenPath + "?" + url.Values{"grant_type": {"client_credentials"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", newError(CategoryInternal, "build token request", err)
	}
	req.SetBasicAuth(creds.APIKey, creds.APISecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError("token exchange", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", transportError("read token response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", newError(CategoryAuthentication, fmt.Sprintf("token exchange rejected: %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return "", newError(CategoryOutage, fmt.Sprintf("token exchange failed: %d", resp.StatusCode), nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", newError(CategoryBadData, "decode token response", err)
	}
	if tr.AccessToken == "" {
		return "", newError(CategoryBadData, "token response missing access_token", nil)
	}
	return tr.AccessToken, nil
}

type lookupRequest struct {
	TaxpayerType string `json:"TaxpayerType"`
	TaxpayerID   string `json:"TaxpayerID"`
}

type lookupResponse struct {
	ErrorCode    flexString `json:"ErrorCode"`
	ErrorMessage string     `json:"ErrorMessage"`
	TaxpayerPIN  string     `json:"TaxpayerPIN"`
	TaxpayerName string     `json:"TaxpayerName"`
}

func (c *Client) lookup(ctx context.Context, token, identifier string) (Outcome, error) {
	payload, err := json.Marshal(lookupRequest{TaxpayerType: c.taxpayerType, TaxpayerID: identifier})
	if err != nil {
		return Outcome{}, newError(CategoryInternal, "encode lookup request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+lookupPath, bytes.NewReader(payload))
	if err != nil {
		return Outcome{}, newError(CategoryInternal, "build lookup request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{}, transportError("pin lookup", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Outcome{}, transportError("read lookup response", err)
	}

	var lr lookupResponse
	decodeErr := json.Unmarshal(body, &lr)
	raw := json.RawMessage(body)
	if decodeErr != nil {
		raw = nil
	}

	if resp.StatusCode != http.StatusOK {
		// An error body with a code is still an answer about the identifier.
		if decodeErr == nil && lr.ErrorCode != "" {
			return rejected(string(lr.ErrorCode), lr.ErrorMessage, raw), nil
		}
		return Outcome{}, newError(CategoryOutage, fmt.Sprintf("pin lookup failed: %d", resp.StatusCode), nil)
	}
	if decodeErr != nil {
		return Outcome{}, newError(CategoryBadData, "decode lookup response", decodeErr)
	}
	if lr.ErrorCode != "" {
		return rejected(string(lr.ErrorCode), lr.ErrorMessage, raw), nil
	}
	if strings.TrimSpace(lr.TaxpayerName) == "" {
		return rejected("", ReasonNoTaxpayer, raw), nil
	}
	return success(strings.TrimSpace(lr.TaxpayerName), lr.TaxpayerPIN, raw), nil
}

func transportError(op string, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return newError(CategoryCanceled, op+" cancelled", err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return newError(CategoryTimeout, op+" timed out", err)
	default:
		return newError(CategoryOutage, op, err)
	}
}

// flexString accepts either a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
