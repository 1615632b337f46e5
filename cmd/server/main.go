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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"idverify/internal/blob"
	"idverify/internal/jwttoken"
	"idverify/internal/platform/config"
	"idverify/internal/platform/httpserver"
	"idverify/internal/platform/kafka"
	"idverify/internal/platform/logger"
	"idverify/internal/platform/metrics"
	"idverify/internal/platform/postgres"
	"idverify/internal/platform/redis"
	settingshandler "idverify/internal/settings/handler"
	settingsmodels "idverify/internal/settings/models"
	settingsservice "idverify/internal/settings/service"
	settingsstore "idverify/internal/settings/store"
	verificationhandler "idverify/internal/verification/handler"
	verificationmetrics "idverify/internal/verification/metrics"
	verificationservice "idverify/internal/verification/service"
	documentstore "idverify/internal/verification/store/document"
	profilestore "idverify/internal/verification/store/profile"
	recordstore "idverify/internal/verification/store/record"
	audit "idverify/pkg/platform/audit"
	auditkafka "idverify/pkg/platform/audit/kafka"
	auditpublisher "idverify/pkg/platform/audit/publisher"
	auditmemory "idverify/pkg/platform/audit/store/memory"
	auditpostgres "idverify/pkg/platform/audit/store/postgres"
	"idverify/pkg/platform/httputil"
	authmw "idverify/pkg/platform/middleware/auth"
	"idverify/pkg/platform/middleware/metadata"
	request "idverify/pkg/platform/middleware/request"
	"idverify/pkg/platform/middleware/requesttime"
)

const auditBufferSize = 1024

// infra holds the optional backends. A nil field means the in-memory
// fallback is in use.
type infra struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := connect(ctx, cfg, log)
	if err != nil {
		log.Error("connect backends", "error", err)
		os.Exit(1)
	}
	defer backends.close()

	auditPub := newAuditPublisher(backends, cfg, log)
	defer auditPub.Close()

	settings := settingsservice.New(newSettingsStore(backends, cfg),
		settingsservice.WithLogger(log),
		settingsservice.WithAuditPublisher(auditPub),
	)

	blobs, err := blob.NewLocalWriter(cfg.Uploads.Dir, cfg.Uploads.PublicBaseURL)
	if err != nil {
		log.Error("init upload storage", "error", err)
		os.Exit(1)
	}

	verification := newVerificationService(backends, settings, blobs, auditPub, log)

	router := newRouter(cfg, log, backends, settings, verification)
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting idverify",
		"addr", cfg.Server.Addr,
		"env", cfg.Environment,
		"postgres", backends.db != nil,
		"redis", backends.redis != nil,
		"kafka", backends.kafka != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infra, error) {
	out := &infra{}
	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cfg.Database.URL != "" {
		db, err := postgres.Open(startCtx, cfg.Database)
		if err != nil {
			return nil, err
		}
		out.db = db
		if err := postgres.Migrate(startCtx, db); err != nil {
			out.close()
			return nil, err
		}
	} else {
		log.Warn("DATABASE_URL not set; verification data is kept in memory")
	}

	rc, err := redis.New(startCtx, cfg.Redis)
	if err != nil {
		out.close()
		return nil, err
	}
	out.redis = rc

	kc, err := kafka.New(cfg.Kafka)
	if err != nil {
		out.close()
		return nil, err
	}
	if kc != nil {
		out.kafka = kc
		err := kafka.EnsureTopic(startCtx, kc, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor)
		if err != nil {
			out.close()
			return nil, err
		}
	}
	return out, nil
}

func newAuditPublisher(b *infra, cfg *config.Config, log *slog.Logger) *auditpublisher.Publisher {
	var store audit.Store = auditmemory.NewInMemoryStore()
	if b.db != nil {
		store = auditpostgres.New(b.db)
	}
	opts := []auditpublisher.Option{
		auditpublisher.WithLogger(log),
		auditpublisher.WithAsyncBuffer(auditBufferSize),
	}
	if b.kafka != nil {
		opts = append(opts, auditpublisher.WithSink(auditkafka.NewSink(b.kafka, cfg.Kafka.AuditTopic)))
	}
	return auditpublisher.NewPublisher(store, opts...)
}

// seedPolicy is the policy used until an admin changes it.
func seedPolicy(cfg config.PolicyConfig) settingsmodels.Snapshot {
	snap := settingsmodels.Defaults(cfg.AllowedDocumentTypes)
	if cfg.MaxFileSizeBytes > 0 {
		snap.MaxFileSizeBytes = cfg.MaxFileSizeBytes
	}
	if cfg.Cooldown > 0 {
		snap.Cooldown = cfg.Cooldown
	}
	if cfg.MaxResubmissions >= 0 {
		snap.MaxResubmissions = cfg.MaxResubmissions
	}
	return snap
}

func newSettingsStore(b *infra, cfg *config.Config) settingsservice.Store {
	seed := seedPolicy(cfg.Policy)
	if b.redis != nil {
		return settingsstore.NewRedisStore(b.redis.Client, cfg.Redis.KeyPrefix, seed)
	}
	return settingsstore.NewInMemoryStore(seed)
}

func newVerificationService(
	b *infra,
	settings *settingsservice.Service,
	blobs *blob.LocalWriter,
	auditPub *auditpublisher.Publisher,
	log *slog.Logger,
) *verificationservice.Service {
	opts := []verificationservice.Option{
		verificationservice.WithLogger(log),
		verificationservice.WithAuditPublisher(auditPub),
		verificationservice.WithMetrics(verificationmetrics.New(prometheus.DefaultRegisterer)),
		verificationservice.WithBlobWriter(blobs),
	}
	if b.db == nil {
		return verificationservice.New(
			recordstore.NewInMemoryStore(),
			profilestore.NewInMemoryStore(),
			documentstore.NewInMemoryStore(),
			settings,
			opts...,
		)
	}
	opts = append(opts, verificationservice.WithTxRunner(newVerificationPostgresTx(b.db)))
	return verificationservice.New(
		recordstore.NewPostgresStore(b.db),
		profilestore.NewPostgresStore(b.db),
		documentstore.NewPostgresStore(b.db),
		settings,
		opts...,
	)
}

func newRouter(
	cfg *config.Config,
	log *slog.Logger,
	b *infra,
	settings *settingsservice.Service,
	verification *verificationservice.Service,
) chi.Router {
	httpMetrics := metrics.NewHTTP(prometheus.DefaultRegisterer)
	jwt := jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer))

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(request.Latency(httpMetrics, routePattern))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", healthHandler(b))

	r.Group(func(api chi.Router) {
		api.Use(request.Timeout(cfg.Server.RequestTimeout))
		api.Use(authmw.RequireAuth(jwt, log))
		api.Use(settings.SnapshotMiddleware)

		settingshandler.New(settings, log).Register(api)
		verificationhandler.New(verification, log, verificationhandler.DefaultMaxUploadBytes).Register(api)
	})
	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func healthHandler(b *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		check := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		if b.db != nil {
			check("postgres", b.db.PingContext(ctx))
		}
		if b.redis != nil {
			check("redis", b.redis.Health(ctx))
		}
		if b.kafka != nil {
			check("kafka", kafka.Health(ctx, b.kafka))
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
	}
}
