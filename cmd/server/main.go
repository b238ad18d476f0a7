package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/db"
	"github.com/Clark-Hu/learnhub/internal/auth"
	"github.com/Clark-Hu/learnhub/internal/catalog"
	"github.com/Clark-Hu/learnhub/internal/config"
	httpserver "github.com/Clark-Hu/learnhub/internal/http"
	"github.com/Clark-Hu/learnhub/internal/learning"
	"github.com/Clark-Hu/learnhub/internal/logging"
	"github.com/Clark-Hu/learnhub/internal/metrics"
	"github.com/Clark-Hu/learnhub/internal/repository"
	"github.com/Clark-Hu/learnhub/internal/repository/memory"
	"github.com/Clark-Hu/learnhub/internal/repository/mongodb"
	"github.com/Clark-Hu/learnhub/internal/store"
)

// backend bundles the stores the service runs on plus their lifecycle hooks.
type backend struct {
	content     learning.ContentStore
	enrollments learning.EnrollmentStore
	health      httpserver.HealthChecker
	collectors  []prometheus.Collector
	close       func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", "learnhub"))

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	be, err := openBackend(dbCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer be.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(be.collectors...)
	m := metrics.New(reg)

	var catalogClient catalog.Client = catalog.NopClient{}
	if cfg.CatalogURL != "" {
		catalogTimeout := time.Duration(cfg.CatalogTimeoutSecs) * time.Second
		client, err := catalog.NewHTTPClient(cfg.CatalogURL, cfg.CatalogAPIKey, catalogTimeout, logger)
		if err != nil {
			logger.Fatal("init catalog client", zap.Error(err))
		}
		catalogClient = client
	}

	verifier, err := auth.NewVerifier(cfg.AuthJWTSecret)
	if err != nil {
		logger.Fatal("init token verifier", zap.Error(err))
	}

	svc := learning.New(be.content, be.enrollments, learning.Options{
		Catalog:        catalogClient,
		CatalogTimeout: time.Duration(cfg.CatalogTimeoutSecs) * time.Second,
		Logger:         logger,
		Metrics:        m,
		MaxRetries:     cfg.UpdateMaxRetries,
	})
	server := httpserver.New(cfg, be.health, svc, verifier, m, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		st, err := store.New(ctx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger,
		})
		if err != nil {
			return backend{}, fmt.Errorf("connect database: %w", err)
		}
		if cfg.DBAutoMigrate {
			if err := st.Migrate(ctx, db.Migrations); err != nil {
				st.Close()
				return backend{}, err
			}
		}
		repo := repository.New(st)
		return backend{
			content:     repo.Content,
			enrollments: repo.Enrollments,
			health:      st,
			collectors:  st.Collectors(),
			close:       st.Close,
		}, nil

	case config.BackendMongo:
		st, err := mongodb.Connect(ctx, mongodb.Options{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  time.Duration(cfg.MongoTimeoutSecs) * time.Second,
			Logger:   logger,
		})
		if err != nil {
			return backend{}, fmt.Errorf("connect mongo: %w", err)
		}
		return backend{
			content:     st.Content,
			enrollments: st.Enrollments,
			health:      st,
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := st.Close(closeCtx); err != nil {
					logger.Warn("close mongo", zap.Error(err))
				}
			},
		}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		st := memory.New()
		return backend{
			content:     st.Content,
			enrollments: st.Enrollments,
			health:      st,
			close:       func() {},
		}, nil
	}
	return backend{}, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}
