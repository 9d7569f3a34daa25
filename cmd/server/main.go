package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"tictask/backend/internal/broadcast"
	"tictask/backend/internal/config"
	"tictask/backend/internal/db"
	"tictask/backend/internal/handler"
	"tictask/backend/internal/logging"
	"tictask/backend/internal/notify"
	"tictask/backend/internal/recorder"
	"tictask/backend/internal/repository"
	"tictask/backend/internal/router"
	"tictask/backend/internal/service"
	"tictask/backend/internal/settings"
	"tictask/backend/internal/supervisor"
	"tictask/backend/internal/timer"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "tictask-server",
		Short:         "Run the pomodoro timer daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(configFile)
			if err != nil {
				return err
			}
			bindFlags(cmd, v)
			return serve(cmd.Context(), config.Load(v))
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml)")
	cmd.Flags().String("port", "", "HTTP port")
	cmd.Flags().String("db-path", "", "SQLite database path")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("settings-file", "", "timer settings file to watch")
	return cmd
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("db_path", cmd.Flags().Lookup("db-path"))
	_ = v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	_ = v.BindPFlag("settings_file", cmd.Flags().Lookup("settings-file"))
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	lock, err := db.AcquireLock(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("lock %s: %w", cfg.DBPath, err)
	}
	defer func() { _ = lock.Unlock() }()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.Info().Strs("migrations", applied).Msg("migrations applied")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	timerRepo := repository.NewTimerRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	taskRepo := repository.NewTaskRepository(database)

	hub := broadcast.NewHub(logger)
	notifier := notify.New(notify.Options{
		Enabled: cfg.NotificationsEnabled,
		Topic:   cfg.NtfyTopic,
		Timeout: cfg.NtfyTimeout,
	})
	rec := recorder.New(sessionRepo, taskRepo, time.Local, logger)

	engine, err := timer.New(ctx, timerRepo, rec, hub, notifier, timer.Options{
		TickInterval: cfg.TickInterval,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("start timer engine: %w", err)
	}
	defer engine.Close()

	if cfg.SettingsFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.SettingsFile), 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
		if _, err := settings.Apply(ctx, cfg.SettingsFile, engine); err != nil {
			logger.Warn().Err(err).Msg("timer settings not applied")
		}
	}

	routes := router.New(
		handler.NewTimerHandler(service.NewTimerService(engine, cfg.SettingsFile, logger)),
		handler.NewSessionHandler(service.NewSessionService(sessionRepo, logger)),
		handler.NewTaskHandler(service.NewTaskService(taskRepo, logger)),
		handler.NewEventsHandler(hub, engine.State),
		cfg.CORSOrigins,
		logger,
	)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return supervisor.New(engine, cfg.SupervisorInterval, logger).Run(groupCtx)
	})

	if cfg.SettingsFile != "" {
		watcher := settings.NewWatcher(cfg.SettingsFile, 0, func(ctx context.Context) {
			applied, err := settings.Apply(ctx, cfg.SettingsFile, engine)
			if err != nil {
				logger.Warn().Err(err).Msg("timer settings not applied")
				return
			}
			if applied {
				logger.Info().Msg("timer settings reloaded")
			}
		}, logger)
		group.Go(func() error { return watcher.Run(groupCtx) })
	}

	group.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("db", cfg.DBPath).Msg("tictask listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	logger.Info().Msg("tictask stopped")
	return err
}
