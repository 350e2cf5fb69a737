package backend

import (
	"errors"
	"time"

	"finance-tracker/internal/config"
)

// Config selects a backend and carries the settings it needs.
type Config struct {
	Kind Kind

	SQLitePath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Timeout bounds each gateway call. Zero keeps the resilience default.
	Timeout time.Duration
}

// FromAppConfig picks the storage settings out of the application config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("backend: nil application config")
	}
	kind, err := ParseKind(app.StorageBackend)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Kind:           kind,
		SQLitePath:     app.SQLiteDBPath,
		RedisAddr:      app.RedisAddr,
		RedisPassword:  app.RedisPassword,
		RedisDB:        app.RedisDB,
		RedisKeyPrefix: app.RedisKeyPrefix,
		Timeout:        app.StorageTimeout,
	}, nil
}

// Validate checks that the settings required by Kind are present.
func (c Config) Validate() error {
	switch c.Kind {
	case KindMemory:
		return nil
	case KindSQLite:
		if c.SQLitePath == "" {
			return errors.New("backend: sqlite needs a database path")
		}
		return nil
	case KindRedis:
		if c.RedisAddr == "" {
			return errors.New("backend: redis needs an address")
		}
		return nil
	default:
		_, err := ParseKind(string(c.Kind))
		return err
	}
}
