package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-homelab/components/dashboard"
	"github.com/goliatone/go-homelab/pkg/storage/gormkv"
	"github.com/goliatone/go-homelab/pkg/storage/mongokv"
)

// openStore returns the configured document store and a func releasing it.
func openStore(ctx context.Context, cfg config) (dashboard.KVStore, func(), error) {
	switch cfg.Store {
	case "", "memory":
		return dashboard.NewMemoryKVStore(), func() {}, nil
	case "sqlite":
		store, err := gormkv.Open(gormkv.Config{
			DriverName:     gormkv.DriverNameSQLite,
			DataSourceName: cfg.SQLitePath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("homelabd: open sqlite store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := mongokv.Connect(connectCtx, mongokv.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("homelabd: open mongo store: %w", err)
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("homelabd: unknown store %q", cfg.Store)
	}
}
