// Package storage opens the configured store backend.
package storage

import (
	"fmt"
	"strings"

	"github.com/keshon/scrims-bot/internal/store"
	"github.com/keshon/scrims-bot/internal/store/jsonstore"
	"github.com/keshon/scrims-bot/internal/store/sqlitestore"
)

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open returns the backend named by driver, storing its data at path.
func Open(driver, path string) (store.Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverJSON, "":
		s, err := jsonstore.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open json store: %w", err)
		}
		return s, nil
	case DriverSQLite:
		s, err := sqlitestore.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want %q or %q)", driver, DriverJSON, DriverSQLite)
	}
}
