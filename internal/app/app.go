// Package app assembles the server from configuration: stores, caches, services,
// the audit pipeline and the HTTP router.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"

	"smpserver/internal/audit"
	authservice "smpserver/internal/auth/service"
	userstore "smpserver/internal/auth/store/user"
	"smpserver/internal/businesscard/cache"
	bcmetrics "smpserver/internal/businesscard/metrics"
	bcservice "smpserver/internal/businesscard/service"
	bcstore "smpserver/internal/businesscard/store"
	"smpserver/internal/directory"
	"smpserver/internal/identifier"
	"smpserver/internal/platform/config"
	httpmetrics "smpserver/internal/platform/metrics"
	"smpserver/internal/platform/postgres"
	platformredis "smpserver/internal/platform/redis"
	sgservice "smpserver/internal/servicegroup/service"
	sgstore "smpserver/internal/servicegroup/store"
	"smpserver/pkg/platform/circuit"
	"smpserver/pkg/platform/middleware/ratelimit"
)

// App holds the assembled server. Build it with New and release it with Close.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Router   http.Handler

	Users         *authservice.Service
	ServiceGroups *sgservice.Service
	BusinessCards *bcservice.Service
	CardMetrics   *bcmetrics.Metrics
	Audit         *audit.Publisher
	Worker        *audit.Worker
	Limiter       *ratelimit.Limiter

	factory *identifier.Factory
	health  map[string]func(context.Context) error
	closers []func() error
}

type stores struct {
	users  authservice.UserStore
	groups interface {
		sgservice.Store
		authservice.ServiceGroupFinder
	}
	cards  bcstore.Backing
	events audit.Store
}

// New builds the application. Without a database URL every store lives in
// memory; without a Redis URL the card cache is in-process; without Kafka
// brokers directory notifications are only logged.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		health:   make(map[string]func(context.Context) error),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config
	factory := identifier.NewFactory(identifier.WithDefaultScheme(cfg.Identifier.DefaultScheme))
	a.factory = factory

	st, err := a.openStores(ctx, factory)
	if err != nil {
		return err
	}
	if cfg.Cache.Enabled {
		byteCache, err := a.openCache(ctx)
		if err != nil {
			return err
		}
		st.cards = bcstore.NewCached(st.cards, byteCache, factory, cfg.Cache.TTL, a.Logger)
	}

	a.Users, err = authservice.New(st.users, st.groups, authservice.WithLogger(a.Logger))
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	notifier, err := a.openNotifier(ctx)
	if err != nil {
		return err
	}
	a.Audit = audit.NewPublisher(st.events,
		audit.WithPublisherLogger(a.Logger),
		audit.WithQueue(cfg.Kafka.QueueSize),
	)
	a.closers = append(a.closers, func() error { a.Audit.Close(); return nil })
	var workerOpts []audit.WorkerOption
	if cfg.Kafka.DeliveryTimeout > 0 {
		// One attempt may wait out the delivery timeout before the worker gives up on it.
		workerOpts = append(workerOpts, audit.WithNotifyTimeout(cfg.Kafka.DeliveryTimeout+time.Second))
	}
	a.Worker = audit.NewWorker(a.Audit.Events(), notifier, a.Logger, workerOpts...)

	a.CardMetrics = bcmetrics.New(a.Registry)
	deps := bcservice.Deps{
		Factory:       factory,
		ServiceGroups: st.groups,
		Credentials:   a.Users,
		Ownership:     a.Users,
	}
	sgOpts := []sgservice.Option{sgservice.WithLogger(a.Logger)}
	if cfg.BusinessCard.Enabled {
		deps.Cards = st.cards
		sgOpts = append(sgOpts, sgservice.WithCardCleaner(st.cards))
	}
	a.BusinessCards, err = bcservice.New(deps,
		bcservice.WithLogger(a.Logger),
		bcservice.WithMetrics(a.CardMetrics),
		bcservice.WithAuditPublisher(a.Audit),
	)
	if err != nil {
		return fmt.Errorf("business card service: %w", err)
	}

	a.ServiceGroups, err = sgservice.New(factory, st.groups, st.users, sgOpts...)
	if err != nil {
		return fmt.Errorf("service group service: %w", err)
	}

	httpMetrics := httpmetrics.New(a.Registry)
	a.Limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst,
		ratelimit.WithLogger(a.Logger),
		ratelimit.WithMetrics(httpMetrics),
	)
	a.Router = a.router(httpMetrics)

	a.Logger.InfoContext(ctx, "application assembled",
		"database", cfg.Database.URL != "",
		"cache", cfg.Cache.Enabled,
		"redis", cfg.Redis.URL != "",
		"kafka", len(cfg.Kafka.Brokers) > 0,
		"business_card", cfg.BusinessCard.Enabled,
	)
	return nil
}

func (a *App) openStores(ctx context.Context, factory *identifier.Factory) (stores, error) {
	if a.Config.Database.URL == "" {
		return stores{
			users:  userstore.NewInMemory(),
			groups: sgstore.NewInMemory(),
			cards:  bcstore.NewInMemory(),
			events: audit.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, a.Config.Database)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, db.Close)
	a.health["postgres"] = db.PingContext

	if err := postgres.Migrate(ctx, db); err != nil {
		return stores{}, err
	}
	return postgresStores(db, factory), nil
}

func postgresStores(db *sql.DB, factory *identifier.Factory) stores {
	return stores{
		users:  userstore.NewPostgres(db),
		groups: sgstore.NewPostgres(db, factory),
		cards:  bcstore.NewPostgres(db, factory),
		events: audit.NewPostgresStore(db),
	}
}

func (a *App) openCache(ctx context.Context) (bcstore.ByteCache, error) {
	client, err := platformredis.New(ctx, a.Config.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return cache.NewMemoryCache(a.Config.Cache.TTL), nil
	}
	a.closers = append(a.closers, client.Close)
	a.health["redis"] = client.Health
	return cache.NewRedisCache(client.Client), nil
}

func (a *App) openNotifier(ctx context.Context) (audit.Notifier, error) {
	kc := a.Config.Kafka
	if len(kc.Brokers) == 0 {
		return directory.NewNopNotifier(a.Logger), nil
	}

	kafka, err := directory.NewKafkaNotifier(kc.Brokers, kc.Topic, kgo.RecordDeliveryTimeout(kc.DeliveryTimeout))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { kafka.Close(); return nil })
	a.health["kafka"] = kafka.Ping

	if err := kafka.EnsureTopic(ctx, kc.Partitions, kc.Replicas); err != nil {
		// The broker may come up later; the breaker absorbs failures until then.
		a.Logger.WarnContext(ctx, "could not ensure directory topic", "topic", kc.Topic, "error", err)
	}
	return directory.NewBreakerNotifier(kafka, circuit.New("kafka"), a.Logger), nil
}

// Close releases resources in reverse acquisition order.
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
