// Package backend selects and constructs the persistence backend from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/bindassguntupalli/hold-your-pocket/internal/config"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store/memory"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store/sqlite"
)

// Open builds the store named by cfg.DataBackend. The returned cleanup
// func releases backend resources and is safe to defer unconditionally.
func Open(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.DataBackend {
	case "memory":
		slog.Info("Using in-memory store", "backend", cfg.DataBackend)
		return memory.New(), func() error { return nil }, nil

	case "sqlite":
		s, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		slog.Info("Using SQLite store",
			"backend", cfg.DataBackend,
			"db_path", cfg.SQLiteDBPath)
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
