package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/config"
)

// Drivers accepted in store.driver.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open creates and migrates the configured store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverFile, "":
		s = NewFileStore(cfg.Dir)
	case DriverSQLite:
		s, err = NewSQLite(cfg.SQLitePath)
	case DriverPostgres:
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
