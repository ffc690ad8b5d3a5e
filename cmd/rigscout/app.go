package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/rigscout/internal/assist"
	"github.com/FranksOps/rigscout/internal/config"
	"github.com/FranksOps/rigscout/internal/fingerprint"
	"github.com/FranksOps/rigscout/internal/logger"
	"github.com/FranksOps/rigscout/internal/pipeline"
	"github.com/FranksOps/rigscout/internal/recommend"
	"github.com/FranksOps/rigscout/internal/storage"
	"github.com/FranksOps/rigscout/internal/storage/csvbackend"
	"github.com/FranksOps/rigscout/internal/storage/jsonbackend"
	"github.com/FranksOps/rigscout/internal/storage/postgres"
	"github.com/FranksOps/rigscout/internal/storage/sqlite"
	"github.com/FranksOps/rigscout/internal/store"
	"github.com/FranksOps/rigscout/pkg/proxy"
	"github.com/FranksOps/rigscout/pkg/useragent"
)

// app is the wired process: configuration, store adapters, run log and the
// recommendation service.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	adapters   []store.Adapter
	runs       storage.Backend
	translator assist.Translator
	service    *pipeline.Service
}

func loadConfig(flags *rootFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	l := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(l)
	return cfg, l, nil
}

// newApp builds everything a recommendation needs. only restricts the
// stores to the named ones when non-empty.
func newApp(ctx context.Context, cfg *config.Config, l *slog.Logger, only []string) (*app, error) {
	stores, err := selectStores(cfg.Stores, only)
	if err != nil {
		return nil, err
	}

	opts, err := storeOptions(cfg, l)
	if err != nil {
		return nil, err
	}
	adapters, err := store.NewAll(stores, opts)
	if err != nil {
		return nil, err
	}

	runs, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		closeAdapters(adapters)
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		logger:     l,
		adapters:   adapters,
		runs:       runs,
		translator: assist.Passthrough{},
	}

	svcOpts := pipeline.Options{
		Runs:    runs,
		Logger:  l,
		Timeout: cfg.HTTP.RequestTimeout,
	}
	if cfg.GenAI.Enabled() {
		g, err := assist.NewGenAI(cfg.GenAI.GenAIConfig, l)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.translator = g
		svcOpts.Extractor = g
		svcOpts.Advisor = g
		if cfg.GenAI.Classify {
			svcOpts.Classifier = g
		}
		l.Info("generative assistant enabled", "model", cfg.GenAI.Model, "classify", cfg.GenAI.Classify)
	}

	orch := recommend.New(adapters, cfg.Recommend, l)
	a.service = pipeline.New(orch, svcOpts)
	return a, nil
}

func (a *app) Close() {
	closeAdapters(a.adapters)
	if err := a.runs.Close(); err != nil {
		a.logger.Warn("run log close failed", "err", err)
	}
}

func closeAdapters(adapters []store.Adapter) {
	for _, ad := range adapters {
		_ = ad.Close()
	}
}

func storeOptions(cfg *config.Config, l *slog.Logger) (store.Options, error) {
	profile, err := fingerprint.ParseProfile(cfg.Fetch.Fingerprint)
	if err != nil {
		return store.Options{}, err
	}
	opts := store.Options{
		Timeout:     cfg.Fetch.Timeout,
		Backoff:     cfg.Fetch.Backoff,
		UAPool:      useragent.NewPool(cfg.Fetch.UserAgents),
		Fingerprint: profile,
		ChromePath:  cfg.Browser.ChromePath,
		Headless:    cfg.Browser.Headless,
		Logger:      l,
	}
	if cfg.Fetch.ProxyFile != "" {
		pool := proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(cfg.Fetch.ProxyFile); err != nil {
			return store.Options{}, fmt.Errorf("load proxies: %w", err)
		}
		l.Info("proxy rotation enabled", "proxies", pool.Len())
		opts.ProxyPool = pool
	}
	return opts, nil
}

func selectStores(all []store.Config, only []string) ([]store.Config, error) {
	if len(only) == 0 {
		return all, nil
	}
	out := make([]store.Config, 0, len(only))
	for _, name := range only {
		found := false
		for _, c := range all {
			if strings.EqualFold(c.Name, name) {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown store %q", name)
		}
	}
	return out, nil
}

// openBackend opens the configured run log.
func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return storage.Discard{}, nil
	case config.BackendSQLite:
		return sqlite.New(cfg.DSN)
	case config.BackendPostgres:
		return postgres.New(ctx, cfg.DSN)
	case config.BackendJSON:
		return jsonbackend.New(cfg.DSN)
	case config.BackendCSV:
		return csvbackend.New(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

var errNoRunLog = errors.New("no run log configured: set storage.backend and storage.dsn")
