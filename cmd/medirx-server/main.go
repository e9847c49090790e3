package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medirx/medirx/internal/config"
	"github.com/medirx/medirx/internal/platform/auth"
	"github.com/medirx/medirx/internal/platform/db"
	"github.com/medirx/medirx/internal/platform/hipaa"
	"github.com/medirx/medirx/internal/platform/middleware"
	"github.com/medirx/medirx/internal/platform/qrcode"
	"github.com/medirx/medirx/internal/platform/telemetry"
)

// shutdownTimeout bounds graceful shutdown after SIGINT or SIGTERM.
const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:          "medirx-server",
		Short:        "Prescription and medication reminder API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations (postgres) or ensure indexes (mongo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), func(ctx context.Context, cfg *config.Config) error {
				if cfg.StoreDriver == config.StoreDriverMongo {
					_, database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
					if err != nil {
						return err
					}
					defer database.Client().Disconnect(context.Background())

					n, err := db.EnsureIndexes(ctx, database)
					if err != nil {
						return fmt.Errorf("ensure indexes: %w", err)
					}
					fmt.Printf("Ensured %d index(es) on database %s.\n", n, cfg.MongoDatabase)
					return nil
				}

				return withMigrator(ctx, cfg, func(m *db.Migrator) error {
					n, err := m.Up(ctx)
					if err != nil {
						return fmt.Errorf("migration failed: %w", err)
					}
					fmt.Printf("Applied %d migration(s) successfully.\n", n)
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), func(ctx context.Context, cfg *config.Config) error {
				if cfg.StoreDriver == config.StoreDriverMongo {
					for _, spec := range db.Indexes {
						fmt.Printf("%-20s %-40v unique=%t\n", spec.Collection, spec.Keys, spec.Unique)
					}
					return nil
				}

				return withMigrator(ctx, cfg, func(m *db.Migrator) error {
					statuses, err := m.Status(ctx)
					if err != nil {
						return fmt.Errorf("failed to get migration status: %w", err)
					}
					fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
					fmt.Println("---------- ---------------------------------------- ---------- --------------------")
					for _, s := range statuses {
						state, at := "pending", ""
						if s.Applied {
							state = "applied"
						}
						if s.AppliedAt != nil {
							at = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
						fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, at)
					}
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), func(ctx context.Context, cfg *config.Config) error {
				if cfg.StoreDriver == config.StoreDriverMongo {
					return errors.New("migrate down is not supported for mongo")
				}
				return withMigrator(ctx, cfg, func(m *db.Migrator) error {
					v, err := m.Down(ctx)
					if err != nil {
						return fmt.Errorf("rollback failed: %w", err)
					}
					if v == 0 {
						fmt.Println("Nothing to roll back.")
						return nil
					}
					fmt.Printf("Rolled back migration %d.\n", v)
					return nil
				})
			})
		},
	})

	return cmd
}

func withConfig(ctx context.Context, fn func(context.Context, *config.Config) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return fn(ctx, cfg)
}

func withMigrator(ctx context.Context, cfg *config.Config, fn func(*db.Migrator) error) error {
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	m, err := db.NewMigrator(pool)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.StoreDriver).Msg("failed to connect to store")
	}
	defer st.close()

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token service")
	}

	phi, err := hipaa.NewFieldEncryptor(cfg.HIPAAEncryptionKey, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PHI encryption")
	}

	reporter, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     "medirx@" + version,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize error reporting")
	}
	defer reporter.Flush()

	var limiter middleware.LimiterStore
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		limiter = middleware.NewRedisStore(client, middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
		})
		logger.Info().Msg("rate limiter backed by redis")
	}

	e := newServer(deps{
		cfg:      cfg,
		logger:   logger,
		stores:   st,
		tokens:   tokens,
		hasher:   auth.NewBcryptHasher(auth.DefaultBcryptCost),
		phi:      phi,
		reporter: reporter,
		limiter:  limiter,
		qr:       qrcode.NewPNGEncoder(),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
