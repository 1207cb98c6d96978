package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelvault/reelvault/internal/api"
	"github.com/reelvault/reelvault/internal/archive"
	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/database"
	"github.com/reelvault/reelvault/internal/download"
	"github.com/reelvault/reelvault/internal/health"
	"github.com/reelvault/reelvault/internal/history"
	"github.com/reelvault/reelvault/internal/logger"
	"github.com/reelvault/reelvault/internal/progress"
	"github.com/reelvault/reelvault/internal/scheduler"
	"github.com/reelvault/reelvault/internal/scheduler/tasks"
	"github.com/reelvault/reelvault/internal/settings"
	"github.com/reelvault/reelvault/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to render config: %v\n", err)
			os.Exit(1)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "reelvault: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.New(logger.Config{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		Path:            cfg.Logging.Path,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		MaxBackups:      cfg.Logging.MaxBackups,
		MaxAgeDays:      cfg.Logging.MaxAgeDays,
		Compress:        cfg.Logging.Compress,
		EnableStreaming: true,
		BufferSize:      1000,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting ReelVault")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.Path, log.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	settingsSvc := settings.NewService(db.Conn(), settings.Settings{
		DownloadPath:  cfg.Downloads.Path,
		MaxConcurrent: cfg.Downloads.MaxConcurrent,
		AutoStart:     cfg.Downloads.AutoStart,
	}, log.Logger)
	current, err := settingsSvc.Load(ctx)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(log.Logger)
	go hub.Run(hubCtx)
	log.SetBroadcastHub(hub)

	progressMgr := progress.NewManager(hub, log.Logger)

	manager, err := download.NewManager(download.Config{
		DownloadDir:      current.DownloadPath,
		MaxConcurrent:    current.MaxConcurrent,
		MaxRetries:       cfg.Downloads.MaxRetries,
		ProgressInterval: cfg.Downloads.ProgressInterval,
		ConnectTimeout:   cfg.Downloads.ConnectTimeout,
		StartPaused:      !current.AutoStart,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("create download manager: %w", err)
	}
	settingsSvc.SetApplier(manager)

	archiveClient := archive.NewClient(archive.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		MaxRetries:        3,
	}, log.Logger)

	historySvc := history.NewService(db.Conn(), log.Logger)

	catalogSvc := catalog.NewService(db.Conn(), archiveClient, manager, progressMgr, catalog.Options{
		DefaultCollection: cfg.Catalog.Collection,
		PageSize:          cfg.Catalog.PageSize,
		MetadataWorkers:   cfg.Catalog.MetadataWorkers,
	}, log.Logger)
	catalogSvc.SetHistory(historySvc)

	if _, err := catalogSvc.ResetInterrupted(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to reset interrupted downloads")
	}

	recorder := catalog.NewStatusRecorder(catalogSvc, log.Logger)
	recorder.Start()
	unsubRecorder := manager.Subscribe(recorder.Listen)

	historyListener := history.NewListener(historySvc, catalogSvc.Title, log.Logger)
	historyListener.Start()
	unsubHistory := manager.Subscribe(historyListener.Listen)

	healthSvc := health.NewService(manager.DownloadDir, db, log.Logger)
	healthSvc.SetBroadcaster(hub)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if err := registerTasks(sched, cfg, catalogSvc, historySvc, healthSvc, log); err != nil {
		return err
	}

	server := api.NewServer(cfg, hub, api.Services{
		Downloads: manager,
		Catalog:   catalogSvc,
		History:   historySvc,
		Health:    healthSvc,
		Settings:  settingsSvc,
		Progress:  progressMgr,
		Scheduler: sched,
		Logs:      log,
	}, log.Logger)

	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.Server.Address())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := sched.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
	}
	catalogSvc.Close()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("download manager shutdown: %w", err))
	}

	unsubRecorder()
	unsubHistory()
	recorder.Stop()
	historyListener.Stop()

	log.Info().Msg("server stopped")
	return errors.Join(errs...)
}

func registerTasks(sched *scheduler.Scheduler, cfg *config.Config, catalogSvc *catalog.Service, historySvc *history.Service, healthSvc *health.Service, log *logger.Logger) error {
	if cfg.Catalog.Collection != "" && cfg.Catalog.SyncCron != "" {
		err := tasks.RegisterCatalogSyncTask(sched, catalogSvc, cfg.Catalog.SyncCron, cfg.Catalog.SyncOnStart, log.WithComponent("catalog-sync"))
		if err != nil {
			return fmt.Errorf("register catalog sync task: %w", err)
		}
	}
	if err := tasks.RegisterHistoryCleanupTask(sched, historySvc); err != nil {
		return fmt.Errorf("register history cleanup task: %w", err)
	}
	if err := tasks.RegisterHealthCheckTask(sched, healthSvc); err != nil {
		return fmt.Errorf("register health check task: %w", err)
	}
	return nil
}
