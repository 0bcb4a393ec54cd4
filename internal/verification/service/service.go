// Package service orchestrates one identity verification: extract the
// identifier, gate on quota, call the authority, resolve the client and its
// prior incidents, then record the outcome.
//
// The audit row is written before the authority is called and updated in place
// afterwards, so every outbound call leaves a trace even when the request is
// cancelled mid-flight.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	accountModels "hostguard/internal/accounts/models"
	incidentModels "hostguard/internal/incident/models"
	"hostguard/internal/platform/metrics"
	quotaModels "hostguard/internal/quota/models"
	"hostguard/internal/verification/authority"
	"hostguard/internal/verification/identifier"
	"hostguard/internal/verification/models"
	"hostguard/internal/verification/ports"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/audit"
	"hostguard/pkg/requestcontext"
)

// Store persists verification requests.
type Store interface {
	Create(ctx context.Context, v *models.VerificationRequest) error
	Update(ctx context.Context, v *models.VerificationRequest) error
	ListByRequester(ctx context.Context, userID id.UserID, limit int) ([]*models.VerificationRequest, error)
}

// Dependencies are the collaborators every verification needs.
type Dependencies struct {
	Store     Store
	Authority ports.Authority
	Accounts  ports.Accounts
	Quota     ports.Quota
	Directory ports.Directory
	Incidents ports.Incidents
}

type step string

const (
	stepExtracting    step = "extracting"
	stepQuotaChecking step = "quota_checking"
	stepCalling       step = "calling"
	stepResolving     step = "resolving"
	stepAuditing      step = "auditing"
)

const (
	defaultAuditTimeout = 5 * time.Second
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

const (
	ReasonNoIdentifier         = "No valid ID number found"
	ReasonRegistrationRequired = "requester is not registered"
	ReasonInternal             = "verification could not be completed, please try again"
)

type Service struct {
	store        Store
	authority    ports.Authority
	accounts     ports.Accounts
	quota        ports.Quota
	directory    ports.Directory
	incidents    ports.Incidents
	auditor      audit.Emitter
	auditTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditor emits an audit event for every terminal verification.
func WithAuditor(e audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = e
	}
}

// WithAuditTimeout bounds the writes that outlive the request context.
func WithAuditTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.auditTimeout = d
		}
	}
}

func New(deps Dependencies, opts ...Option) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "verification store is required")
	case deps.Authority == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "authority client is required")
	case deps.Accounts == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "accounts service is required")
	case deps.Quota == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "quota service is required")
	case deps.Directory == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "client directory is required")
	case deps.Incidents == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "incident service is required")
	}
	svc := &Service{
		store:        deps.Store,
		authority:    deps.Authority,
		accounts:     deps.Accounts,
		quota:        deps.Quota,
		directory:    deps.Directory,
		incidents:    deps.Incidents,
		auditTimeout: defaultAuditTimeout,
		logger:       slog.Default(),
		tracer:       otel.Tracer("hostguard/verification"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Verify runs one verification end to end. It never returns an error: every
// terminal state is expressed as a Result status.
func (s *Service) Verify(ctx context.Context, req models.Request) *models.Result {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("verification.channel", string(req.Channel))))
	defer span.End()

	result := s.verify(ctx, span, req)
	if result.PriorIncidents == nil {
		result.PriorIncidents = []*incidentModels.Incident{}
	}

	span.SetAttributes(attribute.String("verification.status", string(result.Status)))
	if result.Status == models.StatusInternalError {
		span.SetStatus(codes.Error, string(result.Status))
	}
	s.metrics.ObserveVerification(string(req.Channel), string(result.Status), time.Since(start))
	return result
}

func (s *Service) verify(ctx context.Context, span trace.Span, req models.Request) *models.Result {
	span.AddEvent(string(stepExtracting))
	ident := identifier.Extract(req.Text)
	if !ident.Recognized() {
		if req.Channel.RecordsUnrecognized() {
			s.recordUnrecognized(ctx, req)
		}
		return &models.Result{Status: models.StatusInvalidIdentifier, FailureReason: ReasonNoIdentifier}
	}
	result := &models.Result{
		Identifier:     ident.Value(),
		IdentifierKind: string(ident.Kind),
	}

	span.AddEvent(string(stepQuotaChecking))
	user, err := s.accounts.Resolve(ctx, req.Requester.UserID, req.Requester.Phone)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve requester",
			"request_id", requestcontext.RequestID(ctx),
			"channel", req.Channel,
			"error", err,
		)
		return internalError(result)
	}
	if user == nil {
		result.Status = models.StatusRegistrationRequired
		result.FailureReason = ReasonRegistrationRequired
		return result
	}

	decision, err := s.quota.CheckAndReserve(ctx, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check verification quota",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
			"error", err,
		)
		return internalError(result)
	}
	applyDecision(result, decision)
	if !decision.Permits() {
		result.Status = models.StatusQuotaExceeded
		result.FailureReason = decision.Reason
		s.emit(ctx, audit.Event{
			Action:      audit.ActionVerificationDenied,
			UserID:      user.ID,
			Channel:     string(req.Channel),
			SubjectHash: audit.HashSubject(ident.Value()),
			Decision:    string(decision.Kind),
			Reason:      decision.Reason,
		})
		return result
	}

	span.AddEvent(string(stepCalling))
	record := s.newRecord(ctx, req, user, ident)
	record.Merge(map[string]any{"quota_decision": string(decision.Kind)})
	if err := s.store.Create(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to record verification request",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
			"error", err,
		)
		return internalError(result)
	}
	result.RequestID = &record.ID

	outcome := s.authority.Verify(ctx, ident.Value())
	applyOutcome(result, outcome)
	record.MarkOutcome(outcome.Success, requestcontext.Now(ctx))
	record.Merge(outcomeData(outcome))

	if outcome.Success {
		span.AddEvent(string(stepResolving))
		s.resolve(ctx, result, record)
	}

	span.AddEvent(string(stepAuditing))
	s.finish(ctx, req, user, decision, record, result)
	return result
}

// resolve links the verified identifier to a known client and loads its
// recent incidents and aliases. Failures here never change the verdict.
func (s *Service) resolve(ctx context.Context, result *models.Result, record *models.VerificationRequest) {
	client, err := s.directory.FindByIdentifier(ctx, result.Identifier)
	if err != nil {
		s.resolutionFailed(ctx, record, "failed to look up client", err)
		return
	}
	if client == nil {
		return
	}
	clientID := client.ID
	result.ClientID = &clientID

	var (
		incidents []*incidentModels.Incident
		aliases   []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.incidents.RecentByClient(gctx, clientID)
		if err != nil {
			return err
		}
		incidents = found
		return nil
	})
	g.Go(func() error {
		found, err := s.directory.Aliases(gctx, clientID)
		if err != nil {
			return err
		}
		for _, a := range found {
			aliases = append(aliases, a.FullName())
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		record.LinkClient(clientID, nil)
		s.resolutionFailed(ctx, record, "failed to load client history", err)
		return
	}

	incidentIDs := make([]id.IncidentID, 0, len(incidents))
	for _, inc := range incidents {
		incidentIDs = append(incidentIDs, inc.ID)
	}
	record.LinkClient(clientID, incidentIDs)
	result.PriorIncidents = incidents
	result.Aliases = aliases
}

func (s *Service) resolutionFailed(ctx context.Context, record *models.VerificationRequest, msg string, err error) {
	s.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", record.ID,
		"error", err,
	)
	record.Merge(map[string]any{"resolution_error": err.Error()})
}

// finish persists the outcome, consumes a trial on success and emits the
// audit event. It runs detached from request cancellation.
func (s *Service) finish(ctx context.Context, req models.Request, user *accountModels.User, decision quotaModels.Decision,
	record *models.VerificationRequest, result *models.Result) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()

	if err := s.store.Update(dctx, record); err != nil {
		s.logger.ErrorContext(dctx, "failed to update verification request",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", record.ID,
			"error", err,
		)
	}

	if result.Success && decision.Kind == quotaModels.DecisionAllowed {
		trial, err := s.quota.Consume(dctx, user.ID)
		if err != nil {
			s.logger.ErrorContext(dctx, "failed to consume free trial",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", user.ID,
				"error", err,
			)
			result.RemainingTrial = nil
		} else {
			remaining := trial.Count
			result.RemainingTrial = &remaining
		}
	}

	event := audit.Event{
		Action:         audit.ActionVerificationCompleted,
		UserID:         user.ID,
		Channel:        string(req.Channel),
		VerificationID: record.ID.String(),
		SubjectHash:    audit.HashSubject(record.IDNumber),
		Decision:       string(result.Status),
		Reason:         result.FailureReason,
	}
	if result.ClientID != nil {
		event.ClientID = result.ClientID.String()
	}
	s.emit(dctx, event)

	s.logger.InfoContext(ctx, "verification completed",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", record.ID,
		"user_id", user.ID,
		"channel", req.Channel,
		"status", result.Status,
	)
}

// recordUnrecognized audits a chat message that carried no identifier.
func (s *Service) recordUnrecognized(ctx context.Context, req models.Request) {
	record := s.newRecord(ctx, req, nil, identifier.Identifier{})
	record.Merge(map[string]any{
		"error":            ReasonNoIdentifier,
		"original_message": req.Text,
	})
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()
	if err := s.store.Create(dctx, record); err != nil {
		s.logger.ErrorContext(dctx, "failed to record unrecognized message",
			"request_id", requestcontext.RequestID(ctx),
			"channel", req.Channel,
			"error", err,
		)
	}
}

func (s *Service) newRecord(ctx context.Context, req models.Request, user *accountModels.User,
	ident identifier.Identifier) *models.VerificationRequest {
	record := &models.VerificationRequest{
		ID:             id.VerificationID(uuid.New()),
		RequesterPhone: id.NormalizePhone(req.Requester.Phone),
		IDNumber:       ident.Value(),
		Source:         req.Channel,
		CreatedAt:      requestcontext.Now(ctx),
		ResponseData:   map[string]any{"source": string(req.Channel)},
	}
	switch {
	case user != nil:
		userID := user.ID
		record.RequestedBy = &userID
	case !req.Requester.UserID.IsNil():
		userID := req.Requester.UserID
		record.RequestedBy = &userID
	}
	if ident.Recognized() {
		record.Merge(map[string]any{"identifier_kind": string(ident.Kind)})
	}
	if len(req.Metadata) > 0 {
		meta := make(map[string]any, len(req.Metadata))
		for k, v := range req.Metadata {
			meta[k] = v
		}
		record.Merge(map[string]any{"metadata": meta})
	}
	return record
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", event.Action,
			"error", err,
		)
	}
}

// History returns the caller's most recent verification requests.
func (s *Service) History(ctx context.Context, userID id.UserID, limit int) ([]*models.VerificationRequest, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	out, err := s.store.ListByRequester(ctx, userID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification requests")
	}
	return out, nil
}

func internalError(result *models.Result) *models.Result {
	result.Status = models.StatusInternalError
	result.Success = false
	result.FailureReason = ReasonInternal
	return result
}

func applyDecision(result *models.Result, decision quotaModels.Decision) {
	switch decision.Kind {
	case quotaModels.DecisionUnlimited:
		result.Unlimited = true
	case quotaModels.DecisionAllowed, quotaModels.DecisionDenied:
		remaining := decision.Remaining
		result.RemainingTrial = &remaining
	}
}

func applyOutcome(result *models.Result, outcome authority.Outcome) {
	result.Success = outcome.Success
	result.MatchedName = outcome.MatchedName
	result.FailureReason = outcome.FailureReason
	result.ErrorCode = outcome.ErrorCode
	switch {
	case outcome.Success:
		result.Status = models.StatusVerified
	case outcome.Failure == authority.FailureNoRecord:
		result.Status = models.StatusRejected
	default:
		result.Status = models.StatusUnavailable
	}
}

func outcomeData(outcome authority.Outcome) map[string]any {
	data := map[string]any{}
	if outcome.Success {
		data["verification_result"] = "success"
		data["verified_name"] = outcome.MatchedName
		if outcome.MatchedPIN != "" {
			data["verified_pin"] = outcome.MatchedPIN
		}
	} else {
		data["verification_result"] = "failed"
		data["error"] = outcome.FailureReason
		data["failure"] = string(outcome.Failure)
		if outcome.ErrorCode != "" {
			data["error_code"] = outcome.ErrorCode
		}
	}
	if len(outcome.RawPayload) > 0 {
		var payload any
		if err := json.Unmarshal(outcome.RawPayload, &payload); err == nil {
			data["verification_data"] = payload
		}
	}
	return data
}
