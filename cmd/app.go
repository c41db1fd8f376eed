package cmd

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/kyleking/asksql/internal/bank"
	"github.com/kyleking/asksql/internal/cache"
	"github.com/kyleking/asksql/internal/config"
	"github.com/kyleking/asksql/internal/engine"
	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/formatter"
	"github.com/kyleking/asksql/internal/generate"
	"github.com/kyleking/asksql/internal/logging"
	"github.com/kyleking/asksql/internal/schema"
	"github.com/kyleking/asksql/internal/storage"
	"github.com/kyleking/asksql/internal/translate"
)

// app bundles the wired pipeline for one CLI invocation.
type app struct {
	cfg       *config.Config
	db        *sql.DB
	provider  *schema.Provider
	snapshots *cache.SnapshotStore
	fileCache *cache.FileCache
	engine    *engine.Engine
	formatter *formatter.Formatter
	logger    *logging.Logger
}

// appOptions control which parts of the pipeline newApp wires up.
type appOptions struct {
	// refreshSchema forces extraction even when a fresh snapshot exists.
	refreshSchema bool
	// skipExecutor leaves the engine without an executor, so asking stops
	// after validation.
	skipExecutor bool
	// seedFixtures loads the sample e-commerce schema and data before
	// extraction.
	seedFixtures bool
}

// newApp opens the database, obtains a schema model (snapshot or live
// extraction), and assembles the engine.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	logger := logging.GetLogger()

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		db:        db,
		formatter: formatter.NewFormatter(),
		logger:    logger,
	}

	if opts.seedFixtures {
		if err := storage.Seed(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
	}

	if err := a.wireSchema(ctx, opts.refreshSchema); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.wireEngine(opts.skipExecutor); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// wireSchema publishes a schema model into the provider, preferring a fresh
// cached snapshot over live extraction.
func (a *app) wireSchema(ctx context.Context, forceRefresh bool) error {
	driver, _, err := storage.DetectDriver(a.cfg.Database.DSN)
	if err != nil {
		return err
	}

	extractor, err := schema.NewExtractor(driver)
	if err != nil {
		return err
	}

	a.provider = schema.NewProvider(a.db, extractor, a.logger)

	ttl := time.Duration(a.cfg.Cache.TTLHours) * time.Hour
	cleanupFreq := parseDurationOr(a.cfg.Cache.CleanupFreq, time.Hour)

	fileCache, err := cache.NewFileCache(a.cfg.Cache.Directory, a.cfg.Cache.MaxSizeMB, ttl, cleanupFreq)
	if err != nil {
		a.logger.WithError(err).Warn("snapshot cache unavailable, extracting schema directly")
	} else {
		a.fileCache = fileCache
		a.snapshots = cache.NewSnapshotStore(fileCache, ttl)
	}

	if a.snapshots != nil && !forceRefresh {
		if model, err := a.snapshots.Load(ctx, a.cfg.Database.DSN); err == nil {
			a.provider.Publish(model)
			a.logger.Debug("schema model loaded from snapshot")

			return nil
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " extracting schema..."
	s.Start()

	model, err := a.provider.Refresh(ctx)

	s.Stop()

	if err != nil {
		return err
	}

	if a.snapshots != nil {
		if err := a.snapshots.Store(ctx, a.cfg.Database.DSN, model); err != nil {
			a.logger.WithError(err).Warn("failed to store schema snapshot")
		}
	}

	return nil
}

// wireEngine builds the matcher, translator, executor, and optional
// generator from the active configuration.
func (a *app) wireEngine(skipExecutor bool) error {
	examples, err := a.loadBank()
	if err != nil {
		return err
	}

	matcher := bank.NewMatcher(a.cfg.Translate.ConfidenceThreshold, a.cfg.Translate.MaxMatches)
	translator := translate.NewTranslator(a.cfg.Translate.MaxRows)

	opts := []engine.Option{
		engine.WithMatcher(matcher),
		engine.WithTranslator(translator),
	}

	if !skipExecutor {
		timeout := parseDurationOr(a.cfg.Database.QueryTimeout, 30*time.Second)
		executor := storage.NewCappedExecutor(a.db, a.cfg.Translate.MaxRows, timeout)
		opts = append(opts, engine.WithExecutor(executor))
	}

	if a.cfg.Generate.Enabled {
		client := generate.NewClient(generate.FromAppConfig(a.cfg.Generate))
		if err := client.Configure(generate.FromAppConfig(a.cfg.Generate)); err != nil {
			return err
		}

		managerCfg := generate.DefaultManagerConfig()
		managerCfg.RetryAttempts = a.cfg.Generate.RetryAttempts

		fallback := generate.NewRuleService(examples, matcher, translator)
		opts = append(opts, engine.WithGenerator(generate.NewManager(client, fallback, managerCfg)))
	}

	a.engine = engine.New(a.provider, examples, opts...)

	return nil
}

// loadBank returns the example bank from the configured path, or the
// built-in examples when no path is set.
func (a *app) loadBank() (*bank.Bank, error) {
	if a.cfg.Translate.BankPath == "" {
		return bank.Default(), nil
	}

	b, err := bank.Load(a.cfg.Translate.BankPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeConfig,
			"failed to load example bank from %s", a.cfg.Translate.BankPath)
	}

	return b, nil
}

// Close releases the database handle and stops the cache cleanup goroutine.
func (a *app) Close() {
	if a.fileCache != nil {
		_ = a.fileCache.Close()
	}

	if a.db != nil {
		_ = a.db.Close()
	}
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}
