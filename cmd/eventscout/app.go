package main

import (
	"log/slog"
	"time"

	"github.com/haasonsaas/eventscout/internal/api"
	"github.com/haasonsaas/eventscout/internal/auth"
	"github.com/haasonsaas/eventscout/internal/config"
	"github.com/haasonsaas/eventscout/internal/kv"
	"github.com/haasonsaas/eventscout/internal/query"
	"github.com/haasonsaas/eventscout/internal/store"
	"github.com/haasonsaas/eventscout/internal/ticketmaster"
)

// app wires the full dependency graph: config, persisted storage, the state
// container, the request gateway, the catalog client, and the query cache.
// It is built per command invocation and passed explicitly; there is no
// package-level singleton.
type app struct {
	cfg     *config.Config
	kv      *kv.Store
	store   *store.Store
	cache   *query.Cache
	catalog *ticketmaster.Client
	logger  *slog.Logger
}

func newApp(configPath string) (*app, error) {
	logger := slog.Default()

	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, err
	}

	storagePath, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	kvStore, err := kv.Open(storagePath)
	if err != nil {
		return nil, err
	}

	stateStore, err := store.New(store.Options{
		Persister: kvStore,
		Auth:      auth.NewMockService(cfg.Auth.Secret, 24*time.Hour),
		Logger:    logger,
	})
	if err != nil {
		kvStore.Close()
		return nil, err
	}

	gateway := api.NewClient(api.Options{
		Timeout: cfg.API.Timeout.Std(),
		Token:   stateStore.Token,
		Logger:  logger,
	})

	return &app{
		cfg:     cfg,
		kv:      kvStore,
		store:   stateStore,
		cache:   query.NewCache(query.CacheOptions{Logger: logger}),
		catalog: ticketmaster.New(gateway, cfg.API.BaseURL, cfg.API.APIKey),
		logger:  logger,
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

func queryOptions(a *app) query.Options {
	return query.Options{StaleTime: a.cfg.Search.StaleTime.Std()}
}
