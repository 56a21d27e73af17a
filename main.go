package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"gridfx-config-bot/config"
	"gridfx-config-bot/internal/api"
	"gridfx-config-bot/internal/auth"
	"gridfx-config-bot/internal/executor"
	"gridfx-config-bot/internal/logging"
	"gridfx-config-bot/internal/store"
	"gridfx-config-bot/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LoggingConfig.Level,
		Output: cfg.LoggingConfig.Output,
		Pretty: cfg.LoggingConfig.Pretty,
	})
	logger.Info().Msg("starting gridfx config bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Secrets: Vault when enabled, config fallbacks otherwise
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create vault client")
	}
	secrets, err := vaultClient.GetAuthSecrets(ctx, vault.AuthSecrets{
		JWTSecret:    cfg.AuthConfig.JWTSecret,
		PasswordHash: cfg.AuthConfig.PasswordHash,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("vault secrets unavailable, using config fallbacks")
	}

	// Config store: Redis when enabled, in-memory otherwise
	var configStore executor.ConfigStore
	if cfg.RedisConfig.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		})
		configStore = store.NewRedisStore(client, logger)
	} else {
		configStore = store.NewMemoryStore()
	}

	// Recorders: Postgres when enabled, in-memory otherwise
	var (
		snapshots executor.SnapshotRecorder
		ledger    executor.ChangeLedger
		learning  executor.LearningRecorder
	)
	if cfg.DatabaseConfig.Enabled {
		db, err := store.NewDB(store.DBConfig{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer db.Close()
		if err := db.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
		recorder := store.NewPGRecorder(db)
		snapshots, ledger, learning = recorder, recorder, recorder
	} else {
		recorder := store.NewMemoryRecorder(200)
		snapshots, ledger, learning = recorder, recorder, recorder
	}

	engine := executor.New(executor.Options{
		HistoryLimit:  cfg.EngineConfig.HistoryLimit,
		RateLimit:     cfg.EngineConfig.RateLimit,
		RateWindow:    time.Duration(cfg.EngineConfig.RateWindowSecs) * time.Second,
		MaxLeaves:     cfg.EngineConfig.MaxLeaves,
		DefaultGroups: cfg.EngineConfig.DefaultGroups,
		AutoApprove:   cfg.EngineConfig.AutoApprove,
		User:          cfg.EngineConfig.User,
	}, executor.Collaborators{
		Store:     configStore,
		Snapshots: snapshots,
		Ledger:    ledger,
		Learning:  learning,
	}, logger)

	// Auth: only wired when enabled and a secret is available
	var (
		authService *auth.Service
		jwtManager  *auth.JWTManager
	)
	if cfg.AuthConfig.Enabled {
		if secrets.JWTSecret == "" || secrets.PasswordHash == "" {
			logger.Fatal().Msg("auth enabled but jwt secret or password hash is missing")
		}
		jwtManager = auth.NewJWTManager(secrets.JWTSecret, cfg.AuthConfig.AccessTokenDuration)
		authService = auth.NewService(cfg.AuthConfig.Username, secrets.PasswordHash, jwtManager, logger)
	} else {
		logger.Warn().Msg("authentication is disabled")
	}

	server := api.NewServer(api.ServerConfig{
		Host:           cfg.ServerConfig.Host,
		Port:           cfg.ServerConfig.Port,
		AllowedOrigins: []string{cfg.ServerConfig.AllowedOrigins},
		ReadTimeout:    time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
		ProductionMode: true,
	}, engine, authService, jwtManager, logger)

	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api server failed")
	}
	logger.Info().Msg("shutdown complete")
}
