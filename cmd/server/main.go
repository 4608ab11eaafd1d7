package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"sigcerh/internal/academic/cache"
	achandler "sigcerh/internal/academic/handler"
	acservice "sigcerh/internal/academic/service"
	acstore "sigcerh/internal/academic/store"
	"sigcerh/internal/audit"
	inghandler "sigcerh/internal/ingestion/handler"
	ingmetrics "sigcerh/internal/ingestion/metrics"
	ingmodels "sigcerh/internal/ingestion/models"
	ingservice "sigcerh/internal/ingestion/service"
	ingstore "sigcerh/internal/ingestion/store"
	"sigcerh/internal/notify"
	"sigcerh/internal/platform/config"
	"sigcerh/internal/platform/httpserver"
	"sigcerh/internal/platform/logger"
	"sigcerh/internal/platform/metrics"
	"sigcerh/internal/platform/middleware"
	"sigcerh/internal/platform/postgres"
	platformredis "sigcerh/internal/platform/redis"
	rechandler "sigcerh/internal/record/handler"
	recservice "sigcerh/internal/record/service"
	recstore "sigcerh/internal/record/store"
	reqhandler "sigcerh/internal/request/handler"
	reqmetrics "sigcerh/internal/request/metrics"
	reqservice "sigcerh/internal/request/service"
	reqstore "sigcerh/internal/request/store"
	"sigcerh/pkg/platform/circuit"
	"sigcerh/pkg/platform/httputil"
	"sigcerh/pkg/platform/queue"
	"sigcerh/pkg/platform/tx"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// storage is the set of stores behind one shared unit of work.
type storage struct {
	db           *sql.DB
	runner       tx.Runner
	requests     reqservice.Store
	audit        reqservice.AuditStore
	payments     reqservice.PaymentDirectory
	certificates reqservice.CertificateDirectory
	records      recservice.Store
	academic     acservice.Store
	ingestion    ingservice.Store
}

func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (*storage, error) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		requests := reqstore.NewInMemory()
		auditLog := audit.NewInMemory()
		records := recstore.NewInMemory()
		academic := acstore.NewInMemory()
		ingestion := ingstore.NewInMemory()
		dir := reqstore.NewMemoryDirectory()
		return &storage{
			runner:       tx.NewMemoryRunner(requests, auditLog, records, academic, ingestion),
			requests:     requests,
			audit:        auditLog,
			payments:     dir,
			certificates: dir,
			records:      records,
			academic:     academic,
			ingestion:    ingestion,
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	dir := reqstore.NewPostgresDirectory(db)
	return &storage{
		db:           db,
		runner:       tx.NewSQLRunner(db, cfg.Database.TxTimeout),
		requests:     reqstore.NewPostgres(db),
		audit:        audit.NewPostgres(db),
		payments:     dir,
		certificates: dir,
		records:      recstore.NewPostgres(db),
		academic:     acstore.NewPostgres(db),
		ingestion:    ingstore.NewPostgres(db),
	}, nil
}

func openDispatcher(ctx context.Context, cfg config.Kafka, log *slog.Logger) (reqservice.Dispatcher, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, notifications are only logged")
		return notify.NewLogDispatcher(log), func() {}, nil
	}
	d, err := notify.NewKafkaDispatcher(cfg.Brokers, cfg.NotifyTopic, notify.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	if err := d.EnsureTopic(ctx, 3, 1); err != nil {
		log.Warn("could not ensure notification topic", "topic", cfg.NotifyTopic, "error", err)
	}
	return notify.NewFallbackDispatcher(d, notify.NewLogDispatcher(log), circuit.New("kafka-notify"), log), d.Close, nil
}

func ingestionConfig(cfg config.Ingestion) (ingservice.Config, error) {
	policy, err := ingmodels.ParseDuplicatePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return ingservice.Config{}, err
	}
	mode, err := ingmodels.ParseMode(cfg.Mode)
	if err != nil {
		return ingservice.Config{}, err
	}
	return ingservice.Config{
		DuplicatePolicy:     policy,
		Mode:                mode,
		AllowTemporaryIDs:   cfg.AllowTemporaryIDs,
		StrictAreas:         cfg.StrictAreas,
		SimilarityThreshold: cfg.SimilarityThreshold,
		BatchTimeout:        cfg.BatchTimeout,
		Concurrency:         cfg.Concurrency,
		LockWait:            cfg.LockWait,
	}, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if st.db != nil {
		defer st.db.Close()
	}
	if n, err := acstore.SeedHistoricalAreas(ctx, st.academic, cfg.Institution); err != nil {
		return fmt.Errorf("seed areas: %w", err)
	} else if n > 0 {
		log.Info("historical areas seeded", "institution", cfg.Institution, "created", n)
	}

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	dispatcher, closeDispatcher, err := openDispatcher(ctx, cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("open dispatcher: %w", err)
	}
	defer closeDispatcher()

	records, err := recservice.New(st.records, st.runner,
		recservice.WithLogger(log),
		recservice.WithInstitution(cfg.Institution),
	)
	if err != nil {
		return err
	}

	acOpts := []acservice.Option{acservice.WithLogger(log), acservice.WithInstitution(cfg.Institution)}
	ingOpts := []ingservice.Option{ingservice.WithLogger(log), ingservice.WithMetrics(ingmetrics.New())}
	if rdb != nil {
		acOpts = append(acOpts, acservice.WithCurriculumCache(cache.NewRedis(rdb.Client, cfg.Curriculum.CacheTTL)))
		ingOpts = append(ingOpts, ingservice.WithLocker(platformredis.NewLocker(rdb.Client, cfg.Ingestion.LockTTL, cfg.Ingestion.LockWait)))
	}
	academic, err := acservice.New(st.academic, st.runner, acOpts...)
	if err != nil {
		return err
	}

	ingCfg, err := ingestionConfig(cfg.Ingestion)
	if err != nil {
		return err
	}
	ingestion, err := ingservice.New(st.ingestion, st.academic, records, academic, st.runner, ingCfg, ingOpts...)
	if err != nil {
		return err
	}

	reqMetrics := reqmetrics.New()
	effects := queue.New[reqservice.Effect](cfg.Lifecycle.EffectQueueSize, queue.WithDepthGauge(reqMetrics.QueueDepth()))
	requests, err := reqservice.New(st.requests, st.audit, st.runner,
		reqservice.WithLogger(log),
		reqservice.WithMetrics(reqMetrics),
		reqservice.WithPaymentDirectory(st.payments),
		reqservice.WithCertificateDirectory(st.certificates),
		reqservice.WithEffects(effects),
		reqservice.WithMaxRetries(cfg.Lifecycle.MaxRetries),
	)
	if err != nil {
		return err
	}
	worker, err := reqservice.NewEffectWorker(effects,
		reqservice.WithDispatcher(dispatcher),
		reqservice.WithRecordUpdater(records),
		reqservice.WithWorkerLogger(log),
		reqservice.WithWorkerMetrics(reqMetrics),
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log, metrics.New()))
	r.Use(middleware.Actor)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", health(st.db, rdb))
	reqhandler.New(requests, log).Register(r)
	rechandler.New(records, log).Register(r)
	achandler.New(academic, log).Register(r)
	inghandler.New(ingestion, log).Register(r)

	log.Info("starting sigcerh",
		"addr", cfg.Server.Addr,
		"env", cfg.Environment,
		"institution", cfg.Institution,
		"postgres", st.db != nil,
		"redis", rdb != nil,
		"ingest_mode", ingCfg.Mode,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		return httpserver.Serve(gctx, httpserver.New(cfg.Server.Addr, r), cfg.Server.ShutdownTimeout, log)
	})
	return g.Wait()
}

func health(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status["postgres"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				status["redis"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
