package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/geo-authority/internal/application"
	appassistant "github.com/bryanwahyu/geo-authority/internal/application/assistant"
	appeval "github.com/bryanwahyu/geo-authority/internal/application/evaluation"
	appexport "github.com/bryanwahyu/geo-authority/internal/application/export"
	appmetrics "github.com/bryanwahyu/geo-authority/internal/application/metrics"
	appnav "github.com/bryanwahyu/geo-authority/internal/application/navigation"
	"github.com/bryanwahyu/geo-authority/internal/config"
	"github.com/bryanwahyu/geo-authority/internal/domain/exports"
	"github.com/bryanwahyu/geo-authority/internal/domain/failures"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
	"github.com/bryanwahyu/geo-authority/internal/infra/ai/openai"
	"github.com/bryanwahyu/geo-authority/internal/infra/backendapi"
	"github.com/bryanwahyu/geo-authority/internal/infra/cache"
	mysqlp "github.com/bryanwahyu/geo-authority/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/geo-authority/internal/infra/db/postgres"
	"github.com/bryanwahyu/geo-authority/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/geo-authority/internal/infra/storage"
	"github.com/bryanwahyu/geo-authority/internal/infra/xlsx"
	"github.com/bryanwahyu/geo-authority/internal/middleware"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// App is the wired service graph shared by the API server and the CLI.
type App struct {
	Config     *config.Config
	Backend    *backendapi.HTTPClient
	Assistants *appassistant.Registry
	Evaluation *appeval.Service
	Metrics    *appmetrics.Service
	Export     *appexport.Service
	Navigation *appnav.Service

	// Health checks for /health, one per configured dependency
	Checkers map[string]middleware.HealthChecker

	closers []func() error
}

// Build connects the optional infrastructure (ledger DB, redis, MinIO)
// and wires the services. Close releases what Build opened.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := observability.GetLogger()
	clock := application.SystemClock{}
	app := &App{Config: cfg, Checkers: map[string]middleware.HealthChecker{}}

	backend := backendapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	app.Backend = backend
	app.Checkers["backend"] = middleware.CheckerFunc(func(ctx context.Context) error {
		_, err := backend.ListCategories(ctx)
		return err
	})

	// assistants: backend-hosted providers, plus OpenAI direct when keyed
	reg := appassistant.NewRegistry(cfg.Evaluation.DefaultProvider)
	for _, p := range backendapi.Providers() {
		reg.Register(p, backend.Assistant(p))
	}
	if cfg.OpenAIEnabled() {
		reg.Register("openai", openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))
	}
	if !reg.Has(cfg.Evaluation.DefaultProvider) {
		return nil, fmt.Errorf("default provider %q is not registered", cfg.Evaluation.DefaultProvider)
	}
	app.Assistants = reg

	// metrics cache
	var metricsCache metrics.Cache = cache.NewMemory(cfg.Redis.MaxHistory)
	if cfg.RedisEnabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		app.onClose(rdb.Close)
		app.Checkers["redis"] = middleware.Optional(middleware.PingRedis(rdb))
		metricsCache = cache.NewRedisMetrics(rdb, cfg.Redis.TTL, cfg.Redis.MaxHistory)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("metrics cache: redis")
	}
	app.Metrics = &appmetrics.Service{Source: backend, Cache: metricsCache, Clock: clock}

	// ledger
	var (
		ledger   exports.Repository
		failRepo failures.Repository
	)
	if cfg.DatabaseEnabled() {
		db, err := openLedger(ctx, cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.onClose(db.Close)
		app.Checkers["database"] = middleware.Optional(middleware.PingDB(db))
		switch cfg.Database.Driver {
		case "postgres":
			ledger = postgresp.NewExportRepository(db)
			failRepo = postgresp.NewQuestionFailureRepository(db)
		default:
			ledger = mysqlp.NewExportRepository(db)
			failRepo = mysqlp.NewQuestionFailureRepository(db)
		}
	}

	// report artifacts
	var artifacts exports.ArtifactStore
	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		store.PresignTTL = cfg.Minio.PresignTTL
		artifacts = store
	}

	app.Evaluation = &appeval.Service{
		Projects:   backend,
		Pipeline:   backend,
		Assistants: reg,
		Metrics:    app.Metrics,
		Failures:   failRepo,
		Clock:      clock,
		Provider:   cfg.Evaluation.DefaultProvider,
	}

	app.Export = &appexport.Service{
		Sessions:         app.Evaluation,
		Encoder:          xlsx.NewEncoder(),
		Artifacts:        artifacts,
		Ledger:           ledger,
		Clock:            clock,
		ContentType:      xlsx.ContentType,
		KnownCompetitors: cfg.Report.Competitors,
	}

	app.Navigation = &appnav.Service{Directory: backend, OnProjectDeleted: app.Evaluation.Forget}
	return app, nil
}

func openLedger(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	var (
		db      *sql.DB
		err     error
		migrate func(context.Context, *sql.DB) error
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		migrate = mysqlp.Migrate
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		migrate = postgresp.Migrate
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	if cfg.Database.Migrate {
		if err := migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// Router builds the HTTP surface over the wired services.
func (a *App) Router(base context.Context) *httpserver.Router {
	return httpserver.NewRouter(base, httpserver.Services{
		Evaluation: a.Evaluation,
		Metrics:    a.Metrics,
		Export:     a.Export,
		Navigation: a.Navigation,
	}, httpserver.Options{
		CORSOrigins:    a.Config.Server.CORSOrigins,
		APIKeys:        a.Config.Auth.APIKeys,
		RateCapacity:   a.Config.Server.RateLimit.Capacity,
		RateRefill:     a.Config.Server.RateLimit.RefillRate,
		HealthCheckers: a.Checkers,
		RunBurst:       a.Config.Evaluation.RunBurst,
		RunsPerMinute:  a.Config.Evaluation.RunsPerMinute,
	})
}

func (a *App) onClose(fn func() error) { a.closers = append(a.closers, fn) }

// Close releases connections in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			observability.GetLogger().Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}
