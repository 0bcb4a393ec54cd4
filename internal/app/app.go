// Package app builds the service graph shared by the HTTP server and the
// operator CLI. Backends are chosen from configuration: Postgres when a
// database URL is set, Redis for chat dedupe when a Redis URL is set, Kafka
// for audit events when brokers are set, and in-memory stores otherwise.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	accountService "hostguard/internal/accounts/service"
	accountStore "hostguard/internal/accounts/store"
	"hostguard/internal/chat/dedupe"
	"hostguard/internal/chat/intent"
	"hostguard/internal/chat/messages"
	"hostguard/internal/chat/messenger"
	chatPorts "hostguard/internal/chat/ports"
	directoryService "hostguard/internal/directory/service"
	directoryStore "hostguard/internal/directory/store"
	incidentService "hostguard/internal/incident/service"
	incidentStore "hostguard/internal/incident/store"
	jwttoken "hostguard/internal/jwt_token"
	"hostguard/internal/platform/config"
	"hostguard/internal/platform/metrics"
	"hostguard/internal/platform/postgres"
	redisclient "hostguard/internal/platform/redis"
	quotaService "hostguard/internal/quota/service"
	quotaStore "hostguard/internal/quota/store"
	rateLimitModels "hostguard/internal/ratelimit/models"
	rateLimitService "hostguard/internal/ratelimit/service"
	"hostguard/internal/ratelimit/store/bucket"
	"hostguard/internal/verification/authority"
	verificationService "hostguard/internal/verification/service"
	verificationStore "hostguard/internal/verification/store"
	"hostguard/pkg/platform/audit"
	auditKafka "hostguard/pkg/platform/audit/kafka"
	auditMemory "hostguard/pkg/platform/audit/store/memory"
	"hostguard/pkg/platform/circuit"
	"hostguard/pkg/platform/middleware/metadata"
)

// App holds the constructed services. Close releases every backend it opened.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	DB    *sql.DB
	Redis *redisclient.Client

	Tokens       *jwttoken.JWTService
	Accounts     *accountService.Service
	Quota        *quotaService.Service
	Directory    *directoryService.Service
	Incidents    *incidentService.Service
	Verification *verificationService.Service
	Audit        *audit.Publisher
	RateLimits   *rateLimitService.Service

	// Peers whose forwarding headers are believed when resolving client IPs.
	TrustedProxies []netip.Prefix

	Chat ChatDeps

	closers []func() error
}

// ChatDeps are the chat channel collaborators built from config.
type ChatDeps struct {
	Classifier chatPorts.Classifier
	Sender     chatPorts.Sender
	Deduper    chatPorts.Deduper
	Renderer   *messages.Renderer
}

type stores struct {
	accounts     accountService.Store
	quota        quotaService.Store
	directory    directoryService.Store
	incidents    incidentService.Store
	verification verificationService.Store
}

// New opens the configured backends and wires the services on top of them.
// On error every backend already opened is closed.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  metrics.New(reg),
		Tokens:   jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.TrustedProxies, err = metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server.trusted_proxies: %w", err)
	}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.openAudit(ctx); err != nil {
		return nil, err
	}
	if err := a.buildServices(st); err != nil {
		return nil, err
	}
	if err := a.buildChat(ctx); err != nil {
		return nil, err
	}
	if err := a.buildRateLimits(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.Config.Database.URL == "" {
		a.Logger.InfoContext(ctx, "no database configured, using in-memory stores")
		return stores{
			accounts:     accountStore.NewInMemoryStore(),
			quota:        quotaStore.NewInMemoryStore(),
			directory:    directoryStore.NewInMemoryStore(),
			incidents:    incidentStore.NewInMemoryStore(),
			verification: verificationStore.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, a.Config.Database)
	if err != nil {
		return stores{}, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	return stores{
		accounts:     accountStore.NewPostgres(db),
		quota:        quotaStore.NewPostgres(db),
		directory:    directoryStore.NewPostgres(db),
		incidents:    incidentStore.NewPostgres(db),
		verification: verificationStore.NewPostgres(db),
	}, nil
}

func (a *App) openAudit(ctx context.Context) error {
	var sink audit.Store = auditMemory.NewInMemoryStore()
	if a.Config.Kafka.Enabled() {
		k, err := auditKafka.New(ctx, a.Config.Kafka.Brokers, a.Config.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect audit broker: %w", err)
		}
		a.closers = append(a.closers, func() error {
			k.Close()
			return nil
		})
		sink = k
	}
	a.Audit = audit.NewPublisher(sink,
		audit.WithLogger(a.Logger),
		audit.WithDropCounter(a.Metrics),
		audit.WithAsyncBuffer(256),
	)
	// Registered after the sink so pending events drain before it closes.
	a.closers = append(a.closers, a.Audit.Close)
	return nil
}

func (a *App) buildServices(st stores) error {
	var err error
	cfg := a.Config

	a.Accounts, err = accountService.New(st.accounts,
		accountService.WithLogger(a.Logger),
		accountService.WithSubscriptionPeriod(cfg.Quota.SubscriptionPeriod),
		accountService.WithAuditor(a.Audit),
	)
	if err != nil {
		return err
	}
	a.Quota, err = quotaService.New(st.quota, a.Accounts, cfg.Quota,
		quotaService.WithLogger(a.Logger),
		quotaService.WithMetrics(a.Metrics),
	)
	if err != nil {
		return err
	}
	a.Directory, err = directoryService.New(st.directory,
		directoryService.WithLogger(a.Logger),
		directoryService.WithMetrics(a.Metrics),
		directoryService.WithAuditor(a.Audit),
	)
	if err != nil {
		return err
	}
	a.Incidents, err = incidentService.New(st.incidents, a.Directory,
		incidentService.WithLogger(a.Logger),
		incidentService.WithAuditor(a.Audit),
	)
	if err != nil {
		return err
	}

	breaker := circuit.New("authority",
		circuit.WithFailureThreshold(cfg.Authority.BreakerThreshold),
		circuit.WithCooldown(cfg.Authority.BreakerCooldown),
	)
	authorityClient := authority.New(cfg.Authority,
		authority.StaticCredentials{APIKey: cfg.Authority.APIKey, APISecret: cfg.Authority.APISecret},
		authority.WithLogger(a.Logger),
		authority.WithMetrics(a.Metrics),
		authority.WithBreaker(breaker),
	)

	a.Verification, err = verificationService.New(verificationService.Dependencies{
		Store:     st.verification,
		Authority: authorityClient,
		Accounts:  a.Accounts,
		Quota:     a.Quota,
		Directory: a.Directory,
		Incidents: a.Incidents,
	},
		verificationService.WithLogger(a.Logger),
		verificationService.WithMetrics(a.Metrics),
		verificationService.WithAuditor(a.Audit),
	)
	return err
}

func (a *App) buildChat(ctx context.Context) error {
	cfg := a.Config

	var deduper chatPorts.Deduper = dedupe.NewMemory(cfg.Chat.DedupeTTL)
	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		a.Redis = rc
		a.closers = append(a.closers, rc.Close)
		deduper = dedupe.NewRedis(rc.Client, cfg.Chat.DedupeTTL)
	}

	a.Chat = ChatDeps{
		Classifier: intent.New(cfg.Intent, intent.WithLogger(a.Logger)),
		Sender: messenger.New(cfg.Chat,
			messenger.WithLogger(a.Logger),
			messenger.WithMetrics(a.Metrics),
		),
		Deduper:  deduper,
		Renderer: messages.New(cfg.Chat, messages.WithLogger(a.Logger)),
	}
	return nil
}

// buildRateLimits shares counters through Redis when it is configured.
func (a *App) buildRateLimits() error {
	var store rateLimitService.BucketStore = bucket.NewInMemoryBucketStore()
	if a.Redis != nil {
		store = bucket.NewRedis(a.Redis.Client)
	}
	cfg := a.Config.RateLimit
	var err error
	a.RateLimits, err = rateLimitService.New(store,
		rateLimitService.WithLogger(a.Logger),
		rateLimitService.WithLimit(rateLimitModels.ClassVerify, rateLimitModels.Limit{Requests: cfg.VerifyRequests, Window: cfg.Window}),
		rateLimitService.WithLimit(rateLimitModels.ClassWebhook, rateLimitModels.Limit{Requests: cfg.WebhookRequests, Window: cfg.Window}),
	)
	return err
}

// Migrate applies the embedded schema. It is a no-op without a database.
func (a *App) Migrate(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return postgres.Migrate(ctx, a.DB)
}

// Health pings the database and Redis when configured.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.DB != nil {
		if err := a.DB.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
