package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecomm-sync/core/config"
	"ecomm-sync/core/crm"
	"ecomm-sync/core/database"
	"ecomm-sync/core/events"
	"ecomm-sync/core/lock"
	"ecomm-sync/core/logger"
	"ecomm-sync/core/reconcile"
	"ecomm-sync/core/storage"
	"ecomm-sync/core/telemetry"
	"ecomm-sync/feature/ecommerce"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	store    *ecommerce.Store
	engine   *reconcile.Engine
	locker   lock.Locker
	registry *prometheus.Registry
	closers  []func(context.Context) error
}

// openStore loads configuration, builds the logger and connects to the staging database.
func openStore(ctx context.Context) (*app, error) {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	a := &app{cfg: cfg, logger: logg, locker: lock.Noop{}}

	// 3. Connect to Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	a.store = ecommerce.NewStore(db)
	if cfg.Sync.AutoMigrate {
		err = a.store.AutoMigrate(ctx)
	} else {
		err = a.store.VerifySchema(ctx)
	}
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	return a, nil
}

// newApp wires everything a reconciliation pass needs on top of the store.
func newApp(ctx context.Context) (*app, error) {
	a, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.wireEngine(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) wireEngine(ctx context.Context) error {
	cfg := a.cfg

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry, version, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	if cfg.CRM.BaseURL == "" || cfg.CRM.APIKey == "" {
		return errors.New("crm base url and api key are required")
	}
	if cfg.CRM.ConnectionID == "" {
		return errors.New("crm connection id is required")
	}
	client := crm.NewHTTPClient(cfg.CRM, a.logger.Named("crm"))
	adapter := ecommerce.NewAdapter(a.store, client, cfg.CRM.ConnectionID, cfg.Sync, a.logger)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts := []reconcile.Option{reconcile.WithMetrics(reconcile.NewMetrics(a.registry))}

	if cfg.Storage.Enabled {
		sc, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, sc, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return err
		}
		opts = append(opts, reconcile.WithArchiver(
			reconcile.NewReportArchiver(sc, cfg.Storage.Bucket, cfg.Storage.ReportPrefix)))
		a.logger.Info("Pass reports archived", zap.String("bucket", cfg.Storage.Bucket))
	}

	if cfg.Events.Enabled {
		pub := events.NewPublisher(cfg.Events)
		a.closers = append(a.closers, func(context.Context) error { return pub.Close() })
		opts = append(opts, reconcile.WithListener(pub))
		a.logger.Info("Outcome events enabled", zap.String("topic", cfg.Events.Topic))
	}

	a.engine = reconcile.NewEngine(adapter, a.logger, opts...)
	a.locker = lock.New(cfg.Lock)
	a.closers = append(a.closers, func(context.Context) error { return a.locker.Close() })
	return nil
}

// Close releases everything opened by the app, newest first.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("Shutdown step failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// passOptions selects the housekeeping run before a pass.
type passOptions struct {
	skipGate  bool
	skipPurge bool
}

// runPass purges and gates staged records and then processes every pending one.
// It returns a nil summary when another invocation holds the run lock.
func (a *app) runPass(ctx context.Context, opts passOptions) (*reconcile.PassSummary, error) {
	acquired, err := a.locker.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		a.logger.Warn("Another pass holds the run lock, skipping")
		return nil, nil
	}
	defer func() {
		if err := a.locker.Release(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Failed to release run lock", zap.Error(err))
		}
	}()

	now := time.Now().UTC()

	if !opts.skipPurge {
		if cutoff, ok := a.cfg.Sync.RetentionCutoff(now); ok {
			res, err := a.store.Purge(ctx, cutoff)
			if err != nil {
				a.logger.Error("Purge failed", zap.Error(err))
			} else if res.Records > 0 || res.LineItems > 0 {
				a.logger.Info("Purged old records",
					zap.Time("cutoff", cutoff),
					zap.Int64("records", res.Records),
					zap.Int64("line_items", res.LineItems),
				)
			}
		}
	}

	if a.cfg.Sync.Gate && !opts.skipGate {
		res, err := a.store.Gate(ctx, now)
		if err != nil {
			a.logger.Error("Gate failed, processing already pending records", zap.Error(err))
		} else {
			a.logger.Info("Gated new records",
				zap.Int64("promoted", res.Promoted),
				zap.Int64("skipped", res.Skipped),
				zap.Int64("excluded", res.Excluded),
			)
		}
	}

	return a.engine.RunPass(ctx)
}

// printPassReport logs a pass summary and a sample of records that did not update.
func printPassReport(l *zap.Logger, s *reconcile.PassSummary) {
	l.Info("Pass report",
		zap.Int("total", s.Total),
		zap.Int("updated", s.Updated),
		zap.Int("skipped", s.Skipped),
		zap.Int("errors", s.Errors),
		zap.Int("ambiguous", s.Ambiguous),
		zap.Int("commit_failures", s.CommitFailures),
		zap.Int("deferred", s.Deferred),
		zap.Duration("duration", s.Duration),
	)

	const maxShow = 5
	shown, hidden := 0, 0
	for _, r := range s.Results {
		if r.Committed && r.Status == reconcile.StatusUpdated {
			continue
		}
		if shown == maxShow {
			hidden++
			continue
		}
		shown++
		l.Info("Record needs attention",
			zap.String("key", r.Key),
			zap.String("status", r.Status.String()),
			zap.Bool("committed", r.Committed),
			zap.String("error", r.Error),
		)
	}
	if hidden > 0 {
		l.Info("Additional records not shown", zap.Int("count", hidden))
	}
}
