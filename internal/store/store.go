package store

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/DemioMAD/demiochatplus/internal/boot"
	"github.com/DemioMAD/demiochatplus/internal/model"
)

// Open connects the shared sqlite database under the configured data
// directory. Callers own the handle and pass it to the stores.
func Open(config *boot.Config) (*sqlx.DB, error) {
	if err := os.MkdirAll(config.DataDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", "file:"+config.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

// OpenEphemeral returns a fresh in-memory database, used by tests. The
// shared cache keeps the pool's connections on one database.
func OpenEphemeral() (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+model.CreateID()+"?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
