package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"talenttrack/internal/audit"
	"talenttrack/internal/candidate"
	"talenttrack/internal/form"
	"talenttrack/internal/incident"
	jwttoken "talenttrack/internal/jwt_token"
	"talenttrack/internal/platform/config"
	"talenttrack/internal/platform/httpserver"
	"talenttrack/internal/platform/logger"
	"talenttrack/internal/platform/postgres"
	"talenttrack/internal/platform/redis"
	"talenttrack/internal/ratelimit"
	"talenttrack/internal/reconcile"
	recmetrics "talenttrack/internal/reconcile/metrics"
	"talenttrack/internal/response"
	httptransport "talenttrack/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Error("apply schema", "error", err)
			os.Exit(1)
		}
	}

	var (
		formStore      form.Store
		responseStore  response.Store
		candidateStore candidate.Store
		incidentStore  incident.Store
		auditStore     audit.Store
	)
	if db != nil {
		formStore = form.NewPostgres(db)
		responseStore = response.NewPostgres(db)
		candidateStore = candidate.NewPostgres(db)
		incidentStore = incident.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		formStore = form.NewInMemoryStore()
		responseStore = response.NewInMemoryStore()
		candidateStore = candidate.NewInMemoryStore()
		incidentStore = incident.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	auditOpts := []audit.Option{audit.WithAsyncBuffer(256)}
	var kafkaSink *audit.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = audit.NewKafkaSink(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditOpts = append(auditOpts, audit.WithSink(kafkaSink))
	}
	auditor := audit.NewPublisher(auditStore, log, auditOpts...)
	defer auditor.Close()

	incidentSvc := incident.NewService(incidentStore, cache, cfg.Pipeline.IncidentCountCacheTTL, log)
	resolver := candidate.NewResolver(candidateStore, cfg.Pipeline.ScopeResolverToCycle)
	engine := reconcile.NewEngine(
		formStore, responseStore, candidateStore, resolver,
		incidentStore, incidentSvc, auditor,
		recmetrics.New(), log, cfg.Pipeline.ReprocessAfter,
	)

	var webhookLimiter *ratelimit.Middleware
	if cfg.Pipeline.WebhookRateLimit > 0 {
		limiter := ratelimit.NewLimiter(cfg.Pipeline.WebhookRateLimit, cfg.Pipeline.WebhookRateWindow)
		webhookLimiter = ratelimit.NewMiddleware(limiter, log)
		go func() {
			ticker := time.NewTicker(cfg.Pipeline.WebhookRateWindow)
			defer ticker.Stop()
			for range ticker.C {
				limiter.Sweep()
			}
		}()
	}

	validator := jwttoken.NewMiddlewareAdapter(jwttoken.NewValidator(cfg.Server.JWTSigningKey))
	router := httptransport.NewRouter(httptransport.Deps{
		Webhook:        httptransport.NewWebhookHandler(engine, cache, cfg.Pipeline.WebhookDedupeTTL, log),
		Responses:      httptransport.NewResponseHandler(engine, log),
		Incidents:      httptransport.NewIncidentHandler(incidentSvc, log),
		Forms:          httptransport.NewFormHandler(formStore, log),
		Validator:      validator,
		WebhookLimiter: webhookLimiter,
		Logger:         log,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	go func() {
		log.Info("starting talenttrack", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
