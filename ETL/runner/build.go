package runner

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/LilVoxy/obeya_headcount/ETL/config"
	"github.com/LilVoxy/obeya_headcount/ETL/extractors"
	"github.com/LilVoxy/obeya_headcount/ETL/load"
	"github.com/LilVoxy/obeya_headcount/ETL/metrics"
	"github.com/LilVoxy/obeya_headcount/ETL/transform"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
	"github.com/LilVoxy/obeya_headcount/processor"
)

// Deps are the process-wide handles the runner is built from
type Deps struct {
	Config      config.ETLConfig
	Connections *config.DBConnections
	Logger      *utils.ETLLogger
	Notifier    Notifier
	Registerer  prometheus.Registerer
	// Redis is reused when set; otherwise the runner dials OBEYA_REDIS_URL
	Redis *redis.Client
}

// NewETLRunner wires an ETLRunner from the configuration
func NewETLRunner(ctx context.Context, deps Deps) (*ETLRunner, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	logger.Info("Initializing ETL runner (source: %s, cache: %s)", cfg.SourceMode, cfg.CacheBackend)

	source, err := extractors.NewSource(cfg, deps.Connections, logger)
	if err != nil {
		return nil, err
	}

	var extra map[string]string
	if cfg.AliasFile != "" {
		extra, err = transform.LoadAliasFile(cfg.AliasFile)
		if err != nil {
			return nil, err
		}
	}

	cache, err := newCache(ctx, cfg, deps.Redis)
	if err != nil {
		return nil, err
	}

	var loadManager *load.LoadManager
	if deps.Connections != nil && deps.Connections.AnalyticsDB != nil {
		loadManager = load.NewLoadManager(deps.Connections.AnalyticsDB, logger)
		if err := loadManager.Prepare(ctx); err != nil {
			return nil, fmt.Errorf("preparing analytics tables: %w", err)
		}
	}

	return New(Options{
		Extractor:   extractors.NewExtractor(source, logger),
		Transformer: transform.NewTransformer(transform.NewNormalizer(extra), logger),
		Cache:       cache,
		Metrics:     metrics.New(deps.Registerer),
		Notifier:    deps.Notifier,
		LoadManager: loadManager,
		Logger:      logger,
	})
}

func newCache(ctx context.Context, cfg config.ETLConfig, client *redis.Client) (load.ResultCache, error) {
	if cfg.CacheBackend != config.CacheRedis {
		return load.NewMemoryCache(cfg.CacheTTL), nil
	}

	var sealer *processor.Sealer
	if cfg.CacheKey != "" {
		key, err := processor.ParseKey(cfg.CacheKey)
		if err != nil {
			return nil, fmt.Errorf("OBEYA_CACHE_KEY: %w", err)
		}
		if sealer, err = processor.NewSealer(key); err != nil {
			return nil, err
		}
	}

	if client == nil {
		var err error
		if client, err = load.NewRedisClient(ctx, cfg.RedisURL); err != nil {
			return nil, err
		}
	}
	return load.NewRedisCache(client, processor.NewCodec(sealer), cfg.CacheTTL), nil
}
