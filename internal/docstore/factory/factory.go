// Package factory selects the document store adapter from configuration.
package factory

import (
	"fmt"

	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/internal/docstore"
	"github.com/inkwell-app/inkwell/internal/docstore/postgres"
	"github.com/inkwell-app/inkwell/internal/docstore/sqlite"
	"github.com/inkwell-app/inkwell/internal/localstate"
)

// NewStore selects the correct adapter based on cfg.DBDriver.
func NewStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewWithDB(db)
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			var err error
			path, err = localstate.DBPath()
			if err != nil {
				return nil, err
			}
		}
		return sqlite.NewSqliteStore(path)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
