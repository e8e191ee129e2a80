package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ConnectionConfig declares one named source-database connection.
type ConnectionConfig struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	MaxOpenConns int    `json:"max_open_conns" default:"1"`
}

var ErrUnknownConnection = errors.New("unknown connection id")

// Hook hands out database handles by connection id. Handles are opened
// lazily on first use and reused afterwards; credential and transport
// errors from the driver propagate unmodified, with no retry.
type Hook struct {
	configs map[string]ConnectionConfig

	mu   sync.Mutex
	open map[string]*sql.DB
}

func NewHook(configs map[string]ConnectionConfig) *Hook {
	return &Hook{
		configs: configs,
		open:    make(map[string]*sql.DB),
	}
}

// Connection returns the handle for a registered connection id, opening
// and pinging it on first use.
func (h *Hook) Connection(ctx context.Context, connectionID string) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if db, ok := h.open[connectionID]; ok {
		return db, nil
	}

	cfg, ok := h.configs[connectionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, connectionID)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open connection %q: %w", connectionID, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping connection %q: %w", connectionID, err)
	}

	h.open[connectionID] = db

	return db, nil
}

// Close releases every handle the hook has opened.
func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for id, db := range h.open {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection %q: %w", id, err))
		}
		delete(h.open, id)
	}

	return errors.Join(errs...)
}
