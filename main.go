package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/reflectbot/internal/bot"
	"github.com/example/reflectbot/internal/config"
	"github.com/example/reflectbot/internal/database"
	"github.com/example/reflectbot/internal/dispatcher"
	"github.com/example/reflectbot/internal/logger"
	"github.com/example/reflectbot/internal/prompts"
	"github.com/example/reflectbot/internal/rotation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The catalog is fatal at startup: prompts cannot be served without it.
	catalog, err := prompts.Load()
	if err != nil {
		log.Fatal("catalog load failed", zap.Error(err))
	}
	if cfg.PromptsImportPath != "" {
		catalog = importExtraPrompts(log, catalog, cfg.PromptsImportPath)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	// Database startup is the only failure allowed to block the dispatcher.
	dbReady := true
	err = database.ConnectWithRetry(ctx, log, cfg.DBDriver, cfg.DSN(), cfg.ConnectMaxAttempts, cfg.ConnectBaseDelay)
	if err != nil {
		if !cfg.RunDegraded {
			log.Fatal("database connection failed", zap.Error(err))
		}
		dbReady = false
		log.Warn("continuing in degraded mode without dispatcher", zap.Error(err))
	}
	defer database.Close()

	progressRepo := database.NewUserProgressRepository()
	scheduleRepo := database.NewScheduleRepository()
	entryRepo := database.NewEntryRepository()

	selector := prompts.NewSelector(catalog)
	engine := rotation.New(selector, progressRepo, log)

	b, err := bot.New(cfg.TelegramToken, engine, scheduleRepo, progressRepo, entryRepo, log)
	if err != nil {
		log.Fatal("bot init failed", zap.Error(err))
	}

	var disp *dispatcher.Dispatcher
	if cfg.DispatcherEnabled && dbReady {
		disp = dispatcher.New(scheduleRepo, engine, b, loc, log,
			dispatcher.WithBatchSize(cfg.DispatchBatchSize),
			dispatcher.WithUserTimeout(cfg.DispatchUserTimeout),
		)
		if err := disp.Start(); err != nil {
			log.Fatal("dispatcher start failed", zap.Error(err))
		}
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Error("bot error", zap.Error(err))
	}

	if disp != nil {
		disp.Stop()
	}
	log.Info("stopped")
}

// importExtraPrompts merges prompts from a spreadsheet into the catalog.
// Import problems are logged and the embedded catalog stays in effect.
func importExtraPrompts(log *zap.Logger, catalog *prompts.Catalog, path string) *prompts.Catalog {
	result, err := prompts.ImportPrompts(prompts.DefaultImportConfig(path))
	if err != nil {
		log.Warn("prompt import failed, using embedded catalog only", zap.String("path", path), zap.Error(err))
		return catalog
	}
	for _, msg := range result.Errors {
		log.Warn("prompt import row skipped", zap.String("detail", msg))
	}
	merged, err := catalog.Merge(result.Entries)
	if err != nil {
		log.Warn("prompt merge failed, using embedded catalog only", zap.Error(err))
		return catalog
	}
	log.Info("extra prompts imported",
		zap.String("path", path),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return merged
}
