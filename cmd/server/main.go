package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"familyshare/internal/audit"
	auditkafka "familyshare/internal/audit/kafka"
	auditmemory "familyshare/internal/audit/store/memory"
	auditpostgres "familyshare/internal/audit/store/postgres"
	"familyshare/internal/group/handler"
	groupmetrics "familyshare/internal/group/metrics"
	"familyshare/internal/group/service"
	"familyshare/internal/group/store/memory"
	"familyshare/internal/group/store/postgres"
	"familyshare/internal/notify"
	"familyshare/internal/platform/config"
	"familyshare/internal/platform/httpserver"
	"familyshare/internal/platform/logger"
	"familyshare/internal/platform/metrics"
	"familyshare/internal/platform/redis"
	"familyshare/internal/ratelimit"
	"familyshare/pkg/platform/circuit"
	"familyshare/pkg/platform/httputil"
	"familyshare/pkg/platform/middleware/auth"
	"familyshare/pkg/platform/middleware/metadata"
	"familyshare/pkg/platform/middleware/requesttime"
	"familyshare/pkg/platform/tx"
)

// main wires storage, delivery and the HTTP router. Business logic lives in
// internal/group/service.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// infra holds process-scoped resources that need closing on shutdown and the health
// checks they contribute.
type infra struct {
	closers []func()
	checks  map[string]func(context.Context) error
}

func (i *infra) onClose(fn func()) { i.closers = append(i.closers, fn) }

func (i *infra) check(name string, fn func(context.Context) error) {
	if i.checks == nil {
		i.checks = map[string]func(context.Context) error{}
	}
	i.checks[name] = fn
}

// health reports every registered dependency; any failure turns the response into a 503.
func (i *infra) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	report := map[string]string{}
	for name, fn := range i.checks {
		if err := fn(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": report})
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	res := &infra{}
	defer res.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	stores, auditStore, storeTx, err := buildStorage(ctx, cfg, log, res)
	if err != nil {
		return err
	}

	auditOpts := []audit.Option{audit.WithLogger(log), audit.WithMetrics(audit.NewMetrics(reg))}
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := auditkafka.NewClient(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		res.onClose(client.Close)
		auditOpts = append(auditOpts, audit.WithMirror(auditkafka.NewMirror(client, cfg.Kafka.AuditTopic)))
		log.Info("audit mirror enabled", "topic", cfg.Kafka.AuditTopic)
	}
	auditLogger := audit.NewLogger(auditStore, auditOpts...)

	limiter, err := buildLimiter(ctx, cfg, log, res)
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc := service.New(stores,
		service.WithLogger(log),
		service.WithAuditLogger(auditLogger),
		service.WithNotifier(notifier),
		service.WithMetrics(groupmetrics.New(reg)),
		service.WithTx(storeTx),
		service.WithRedemptionLimiter(limiter),
	)

	httpMetrics := metrics.New(reg)
	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)
	router.Use(httpMetrics.LatencyMiddleware)

	router.Get("/health", res.health)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Route("/v1", func(r chi.Router) {
		handler.New(svc, auth.NewHS256(cfg.JWTSigningKey, cfg.JWTIssuer), log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router, log)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting familyshare", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStorage returns postgres-backed stores when DATABASE_URL is set and in-memory
// stores otherwise.
func buildStorage(ctx context.Context, cfg config.Server, log *slog.Logger, res *infra) (service.Stores, audit.Store, service.StoreTx, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return service.Stores{
			Groups:      memory.NewGroupStore(),
			Members:     memory.NewMemberStore(),
			Invitations: memory.NewInvitationStore(),
			Feed:        memory.NewFeedStore(),
		}, auditmemory.New(), service.NewInMemoryTx(), nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return service.Stores{}, nil, nil, err
	}
	res.onClose(func() { _ = db.Close() })
	res.check("postgres", db.PingContext)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return service.Stores{}, nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return service.Stores{}, nil, nil, err
	}
	log.Info("using postgres stores")
	return service.Stores{
		Groups:      postgres.NewGroupStore(db),
		Members:     postgres.NewMemberStore(db),
		Invitations: postgres.NewInvitationStore(db),
		Feed:        postgres.NewFeedStore(db),
	}, auditpostgres.New(db), tx.NewPostgres(db), nil
}

func buildLimiter(ctx context.Context, cfg config.Server, log *slog.Logger, res *infra) (*ratelimit.Limiter, error) {
	var store ratelimit.BucketStore = ratelimit.NewInMemoryBucketStore()
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client != nil {
		res.onClose(func() { _ = client.Close() })
		res.check("redis", client.Health)
		store = ratelimit.NewRedisBucketStore(client.Client)
		log.Info("redemption limiter backed by redis")
	}
	return ratelimit.NewLimiter(store, "invite_redeem", cfg.Redemption.Limit, cfg.Redemption.Window, log), nil
}

// buildNotifier picks the configured email provider and guards it with a breaker that
// falls back to logging while the provider is failing.
func buildNotifier(ctx context.Context, cfg config.Server, log *slog.Logger) (service.Notifier, error) {
	fallback := notify.NewLogNotifier(log, cfg.Notifier.AppBaseURL)

	var primary notify.Sender
	switch cfg.Notifier.Kind {
	case "ses":
		client, err := notify.NewSESClient(ctx, cfg.Notifier.SESRegion)
		if err != nil {
			return nil, err
		}
		primary = notify.NewSESNotifier(client, cfg.Notifier.From, cfg.Notifier.AppBaseURL, log)
	case "resend":
		primary = notify.NewResendNotifier(notify.NewResendClient(cfg.Notifier.ResendAPIKey), cfg.Notifier.From, cfg.Notifier.AppBaseURL, log)
	default:
		return fallback, nil
	}

	breaker := circuit.New("notifier",
		circuit.WithFailureThreshold(5),
		circuit.WithSuccessThreshold(2),
		circuit.WithCooldown(30*time.Second),
	)
	log.Info("invitation notifier configured", "provider", primary.Name())
	return notify.NewGuarded(primary, fallback, breaker, log), nil
}
