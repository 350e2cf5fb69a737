package backend

import (
	"context"
	"fmt"

	"finance-tracker/internal/log"
	"finance-tracker/internal/metrics"
	"finance-tracker/internal/storage"
	"finance-tracker/internal/storage/memory"
	"finance-tracker/internal/storage/redis"
	"finance-tracker/internal/storage/resilience"
	"finance-tracker/internal/storage/sqlite"
)

// DefaultFactory wraps every gateway it opens with a timeout and a circuit
// breaker.
type DefaultFactory struct {
	logger  *log.Logger
	metrics metrics.Collector
}

func NewFactory(logger *log.Logger, collector metrics.Collector) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: collector,
	}
}

func (f *DefaultFactory) CreateGateway(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		gw  storage.Gateway
		err error
	)
	switch cfg.Kind {
	case KindMemory:
		gw = memory.New("")
		f.logger.WarnContext(ctx, "using in-memory storage, data is lost on exit")
	case KindSQLite:
		gw, err = sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		f.logger.InfoContext(ctx, "initialized SQLite backend", "db_path", cfg.SQLitePath)
	case KindRedis:
		rc := redis.DefaultConfig()
		rc.Addr = cfg.RedisAddr
		rc.Password = cfg.RedisPassword
		rc.DB = cfg.RedisDB
		if cfg.RedisKeyPrefix != "" {
			rc.KeyPrefix = cfg.RedisKeyPrefix
		}
		gw, err = redis.NewStore(rc)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		f.logger.InfoContext(ctx, "initialized redis backend", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Kind)
	}

	rcfg := resilience.DefaultConfig()
	if cfg.Timeout > 0 {
		rcfg = rcfg.WithTimeout(cfg.Timeout)
	}
	wrapped := resilience.Wrap(gw, rcfg, f.metrics, f.logger)

	return &Result{
		Gateway: wrapped,
		Cleanup: wrapped.Close,
	}, nil
}
