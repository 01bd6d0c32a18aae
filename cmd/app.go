package main

import (
	"context"
	"fmt"

	"messmate/cache"
	"messmate/config"
	"messmate/database"
	"messmate/filestore"
	"messmate/notify"
	"messmate/services"
	"messmate/store"
	"messmate/store/memory"

	"github.com/sirupsen/logrus"
)

// app is the set of backends selected by the configuration.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    store.Store
	cache    cache.Cache
	files    filestore.Store
	services *services.Registry
	closers  []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if err := a.openStore(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	if err := a.openCache(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	if err := a.openFiles(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}

	var notifier notify.Notifier = notify.NewLog(log)
	if cfg.PostmarkServerToken != "" {
		notifier = notify.NewPostmark(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.EmailSender)
	}

	a.services = services.NewRegistry(services.Deps{
		Store:    a.store,
		Cache:    a.cache,
		CacheTTL: cfg.CacheTTL,
		Notifier: notifier,
		Tokens:   services.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Log:      log,
	})
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.StoreBackend == "memory" {
		a.log.Warn("using in-memory store, data is lost on exit")
		a.store = memory.New()
		return nil
	}

	client, db, err := database.Connect(ctx, a.cfg.MongoURI, a.cfg.DBName, a.log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, client.Disconnect)

	st := database.NewStore(db)
	if err := st.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	a.store = st
	return nil
}

func (a *app) openCache(ctx context.Context) error {
	if a.cfg.RedisURL == "" {
		a.cache = cache.NewMemory(a.cfg.CacheMaxEntries, a.cfg.CacheTTL)
		return nil
	}
	rc, err := cache.NewRedis(ctx, a.cfg.RedisURL)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
	a.cache = rc
	return nil
}

func (a *app) openFiles(ctx context.Context) error {
	if a.cfg.StorageBackend == "azure" {
		blob, err := filestore.NewAzureBlob(ctx, filestore.AzureConfig{
			ConnectionString: a.cfg.AzureConnString,
			AccountURL:       a.cfg.AzureAccountURL,
			Container:        a.cfg.AzureContainer,
			PublicBaseURL:    a.cfg.AzurePublicBaseURL,
		})
		if err != nil {
			return err
		}
		a.files = blob
		return nil
	}
	local, err := filestore.NewLocal(a.cfg.UploadDir, "/uploads")
	if err != nil {
		return err
	}
	a.files = local
	return nil
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}
