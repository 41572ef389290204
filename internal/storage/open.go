package storage

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/datastore"
)

// Drivers accepted by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open builds the configured backend, wrapped in a Cached layer when ttl
// is positive.
func Open(driver, path string, ttl time.Duration, logger *zap.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverJSON, "":
		cfg := datastore.DefaultConfig(path)
		cfg.Logger = logger
		s, err = OpenJSON(cfg)
	case DriverSQLite:
		s, err = OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("storage opened", zap.String("driver", driver), zap.String("path", path))
	if ttl > 0 {
		return NewCached(s, ttl), nil
	}
	return s, nil
}
