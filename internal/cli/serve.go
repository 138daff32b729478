package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/logger"
	"github.com/sheetpilot/sheetpilot/internal/observability"
	"github.com/sheetpilot/sheetpilot/internal/tracing"
	"github.com/sheetpilot/sheetpilot/pkg/assistant"
	"github.com/sheetpilot/sheetpilot/pkg/models"
	"github.com/sheetpilot/sheetpilot/pkg/server"
	"github.com/sheetpilot/sheetpilot/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SheetPilot HTTP server",
	Long: `Run the SheetPilot HTTP server in the foreground.
The server answers assistant queries on /v1/query and persists
conversation history per session.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()
	zlog := appLogger.GetZerolog()

	observability.EnsureRegistered()
	if err := tracing.InitOpenTelemetry("sheetpilot"); err != nil {
		zlog.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer store.Close()

	catalog, watcher := buildCatalog(cfg)
	if watcher != nil {
		if err := watcher.Start(); err != nil {
			zlog.Warn().Err(err).Msg("Failed to start catalog watcher, continuing without hot reload")
		} else {
			defer watcher.Stop()
		}
	}
	resolver := models.NewResolver(catalog, cfg.Models.Default, cfg.Models.Aliases, cfg.Models.Fallback)

	if err := catalog.EnsureLocal(cmd.Context(), cfg.Models.Default); err != nil {
		zlog.Warn().Err(err).Str("model", cfg.Models.Default).Msg("Failed to prepare default model")
	}

	provider, err := assistant.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize inference provider: %w", err)
	}
	zlog.Info().Str("provider", provider.Name()).Msg("Inference provider ready")

	runner := assistant.NewRunner(store, provider, resolver)

	var sweeper *session.Sweeper
	if cfg.Sessions.Retention.Enabled {
		if fileStore, ok := store.(*session.FileStore); ok {
			maxAge := time.Duration(cfg.Sessions.Retention.MaxAge) * 24 * time.Hour
			sweeper = session.NewSweeper(fileStore, cfg.Sessions.Retention.Schedule, maxAge)
			if err := sweeper.Start(); err != nil {
				return fmt.Errorf("failed to start retention sweeper: %w", err)
			}
			defer sweeper.Stop()
		} else {
			zlog.Info().Msg("Retention sweeper skipped; redis driver expires sessions via TTL")
		}
	}

	srv, err := server.NewServer(server.ServerOptions{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RequestTimeout:     time.Duration(cfg.Server.Timeout) * time.Second,
	}, runner, store, zlog)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zlog.Info().Str("signal", sig.String()).Msg("Received signal")
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	if err := srv.Stop(); err != nil {
		zlog.Error().Err(err).Msg("Failed to stop server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.ShutdownOpenTelemetry(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("Failed to shut down tracing")
	}

	return nil
}

// buildStore creates the session store for the configured driver.
func buildStore(cfg *config.Config) (session.Store, error) {
	switch session.Driver(cfg.Sessions.Driver) {
	case session.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Sessions.Redis.Addr,
			Password: cfg.Sessions.Redis.Password,
			DB:       cfg.Sessions.Redis.DB,
		})
		ttl := time.Duration(cfg.Sessions.Redis.TTLHours) * time.Hour
		return session.NewStore(session.DriverRedis,
			session.WithRedisClient(client),
			session.WithRedisTTL(ttl),
		)
	default:
		return session.NewStore(session.DriverFile, session.WithDir(cfg.Sessions.Dir))
	}
}

// buildCatalog loads the model catalog and sets up hot reload when a
// catalog file is configured.
func buildCatalog(cfg *config.Config) (*models.Catalog, *models.CatalogWatcher) {
	if cfg.Models.CatalogPath == "" {
		return models.DefaultCatalog(), nil
	}

	catalog, err := models.LoadCatalog(cfg.Models.CatalogPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Models.CatalogPath).Msg("Failed to load model catalog, using built-in defaults")
		return models.DefaultCatalog(), nil
	}

	watcher, err := models.NewCatalogWatcher(catalog, 0)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create catalog watcher")
		return catalog, nil
	}
	return catalog, watcher
}
