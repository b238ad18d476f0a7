package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Options controls connection-pool behaviour.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 *zap.Logger
}

// Store hides direct access to the underlying connection pool so higher layers
// can focus on business logic.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	opts   Options
}

// New initializes a connection pool and validates connectivity with Ping.
func New(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("store: initializing connection pool",
		zap.Int32("max", opts.MaxConns),
		zap.Int32("min", opts.MinConns),
		zap.Duration("idle", opts.MaxConnIdleTime),
		zap.Duration("life", opts.MaxConnLifetime),
		zap.Int("stmt_cache", opts.StatementCacheCapacity))

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.StatementCacheCapacity >= 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	}

	connCtx := ctx
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("store: database connection established")

	return &Store{pool: pool, logger: logger, opts: opts}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.logger.Info("store: closing connection pool")
	s.pool.Close()
}

// HealthCheck verifies the database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("store not initialized")
	}
	checkCtx := ctx
	if s.opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.opts.ConnTimeout)
		defer cancel()
	}
	return s.pool.Ping(checkCtx)
}

// Migrate applies the schema files bundled in fsys.
func (s *Store) Migrate(ctx context.Context, fsys fs.FS) error {
	applied, err := ApplyMigrations(ctx, s.pool, fsys)
	if err != nil {
		return err
	}
	s.logger.Info("store: migrations applied", zap.Strings("files", applied))
	return nil
}

// ApplyMigrations executes every migrations/*.up.sql file in lexical order.
// The files are written to be idempotent, so re-running them is safe.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) ([]string, error) {
	files, err := fs.Glob(fsys, "migrations/*_*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found")
	}
	sort.Strings(files)
	for _, path := range files {
		payload, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", path, err)
		}
		if _, err := pool.Exec(ctx, string(payload)); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", path, err)
		}
	}
	return files, nil
}

// Pool exposes the underlying pgx pool for repositories.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Stats exposes pgxpool statistics for observability.
func (s *Store) Stats() *pgxpool.Stat {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Stat()
}

// Collectors reports pool usage as gauges sampled from Stats on every scrape.
func (s *Store) Collectors() []prometheus.Collector {
	gauge := func(name, help string, value func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: name,
			Help: help,
		}, func() float64 {
			stat := s.Stats()
			if stat == nil {
				return 0
			}
			return value(stat)
		})
	}
	return []prometheus.Collector{
		gauge("db_pool_total_conns", "Connections currently held by the pool.",
			func(st *pgxpool.Stat) float64 { return float64(st.TotalConns()) }),
		gauge("db_pool_acquired_conns", "Connections currently checked out.",
			func(st *pgxpool.Stat) float64 { return float64(st.AcquiredConns()) }),
		gauge("db_pool_idle_conns", "Idle connections in the pool.",
			func(st *pgxpool.Stat) float64 { return float64(st.IdleConns()) }),
		gauge("db_pool_max_conns", "Configured pool size.",
			func(st *pgxpool.Stat) float64 { return float64(st.MaxConns()) }),
	}
}
