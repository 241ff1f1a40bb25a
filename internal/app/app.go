// Package app holds the core application services: property lifecycle,
// document reconciliation, the expense ledger, tenants, and the upload
// gateway. Every operation takes the acting user explicitly and re-checks
// ownership against the store immediately before writing; nothing is cached
// between requests.
package app

import (
	"fmt"

	"rentfolio/pkg/storage"
	"rentfolio/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	Store          store.Store
	Objects        storage.ObjectStore
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// App wires the relational store and the media host together with the
// domain logic.
type App struct {
	store   store.Store
	objects storage.ObjectStore
}

// New constructs the application. Store and Objects may be injected (tests);
// otherwise they are built from the connection settings.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		dataStore = gs
	}
	objects := cfg.Objects
	if objects == nil {
		ms, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		objects = ms
	}
	return &App{store: dataStore, objects: objects}, nil
}

// Store exposes the underlying store to the identity resolver wiring.
func (a *App) Store() store.Store {
	return a.store
}
