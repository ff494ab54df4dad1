package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/sandevgo/motherbrain/internal/config"
	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/internal/metrics"
	"github.com/sandevgo/motherbrain/internal/providers/embedding"
	"github.com/sandevgo/motherbrain/internal/providers/llm"
	"github.com/sandevgo/motherbrain/internal/service/brain"
	"github.com/sandevgo/motherbrain/internal/service/memory"
	"github.com/sandevgo/motherbrain/internal/service/personality"
	"github.com/sandevgo/motherbrain/internal/storage/inmem"
	redisstore "github.com/sandevgo/motherbrain/internal/storage/redis"
	"github.com/sandevgo/motherbrain/internal/storage/sqlite"
	"github.com/sandevgo/motherbrain/pkg/log"
	"github.com/sandevgo/motherbrain/pkg/srv"
)

// engine is the composed brain plus the services backing it, in start
// order.
type engine struct {
	app      *config.AppConfig
	brain    *brain.Brain
	metrics  *metrics.Metrics
	services []srv.Service
}

func newEngine(ctx context.Context) *engine {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)
	persCfg := config.NewPersonalityConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	e := &engine{app: appCfg, metrics: metrics.New()}

	// 2. Memory backend
	backend, opts := e.initBackend(ctx, appCfg, memCfg)
	mgr := memory.NewManager(backend, e.metrics)

	// 3. Personality
	pc := personality.NewCore(persCfg, personality.WithMetrics(e.metrics))
	analyzer := personality.NewAnalyzer(llm.NewProvider(ctx, llmCfg), llmCfg.AnalysisTimeout, e.metrics)

	opts = append(opts, brain.WithRetrieveLimit(memCfg.RetrieveLimit))
	if appCfg.EnableRelationships {
		opts = append(opts, brain.WithRelationships(personality.NewRelationshipTracker()))
	}
	e.brain = brain.New(mgr, pc, analyzer, opts...)

	logger.Info().
		Str("backend", mgr.BackendName()).
		Bool("analysis", llmCfg.Enabled()).
		Msg("memory engine ready")
	return e
}

func (e *engine) initBackend(ctx context.Context, appCfg *config.AppConfig, cfg *config.MemoryConfig) (memory.Backend, []brain.Option) {
	logger := log.FromCtx(ctx)

	if cfg.Method == config.MethodSimple {
		return memory.NewSimpleBackend(cfg.HistorySize), nil
	}

	encoder, closeEncoder, err := embedding.NewEncoder(ctx, config.NewEmbeddingConfig(ctx), e.metrics)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedding provider")
	}
	e.services = append(e.services, srv.NewCleanup("embedding", closeEncoder))

	policy := memory.NewRetentionPolicy(cfg, e.metrics)
	semantic := func(name string, store core.Store) memory.Backend {
		return memory.NewSemanticBackend(name, cfg, encoder, store, policy)
	}

	switch cfg.Method {
	case config.MethodSQLite:
		if err := os.MkdirAll(appCfg.GetRuntimePath(), 0o755); err != nil {
			logger.Fatal().Err(err).Msg("failed to create runtime directory")
		}
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize storage")
		}
		e.services = append(e.services, srv.NewCleanup("sqlite", db.Close))
		return semantic(config.MethodSQLite, sqlite.NewStore(db, e.metrics)), nil

	case config.MethodRedis:
		redisCfg := config.NewRedisConfig(ctx)
		conn := redisstore.NewConnectionManager(redisCfg, redisstore.WithMetrics(e.metrics))
		if err := conn.Connect(ctx); err != nil {
			if !errors.Is(err, core.ErrConnection) {
				logger.Fatal().Err(err).Msg("failed to connect to redis")
			}
			logger.Error().Err(err).Str("addr", conn.Addr()).Msg("redis unavailable, falling back to simple memory")
			return memory.NewSimpleBackend(cfg.HistorySize), nil
		}
		e.services = append(e.services, redisstore.NewProbe(conn, redisCfg.HealthInterval))

		var store core.Store = redisstore.NewPrefixStore(conn, e.metrics)
		if cfg.KeyLayout == config.LayoutHash {
			store = redisstore.NewHashStore(conn, e.metrics)
		}
		return semantic(config.MethodRedis, store), []brain.Option{brain.WithComponent("redis", conn)}

	default:
		return semantic(config.MethodMemory, inmem.New()), nil
	}
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := envPath(runtimePath)

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
