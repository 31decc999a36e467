// cmd/service/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"starsync/internal/api"
	"starsync/internal/auth"
	"starsync/internal/config"
	"starsync/internal/database"
	"starsync/internal/github"
	"starsync/internal/settings"
	"starsync/internal/syncer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "starsync",
		Short:         "Mirror GitHub starred repositories and their recent activity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (defaults to ./.env)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP service and, when SWEEP_INTERVAL is set, the sync scheduler",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), configFile, serve)
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Sync every user that is due once and print the summary",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), configFile, func(ctx context.Context, a *app) error {
					summary, err := a.syncer.RunSweep(ctx)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(summary)
				})
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				logger, cfg, err := setup(configFile)
				if err != nil {
					return err
				}
				if err := database.Migrate(cfg.DBURL); err != nil {
					return fmt.Errorf("failed to run database migrations: %w", err)
				}
				logger.Info("Database migrations applied successfully")
				return nil
			},
		},
	)
	return root
}

// app bundles the components shared by the serve and sweep commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *settings.Store
	syncer  *syncer.Syncer
	session *auth.SessionValidator
}

// setup initializes the structured logger and loads configuration.
func setup(configFile string) (*slog.Logger, *config.Config, error) {
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")
	return logger, cfg, nil
}

func withApp(parent context.Context, configFile string, fn func(ctx context.Context, a *app) error) error {
	logger, cfg, err := setup(configFile)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := database.Migrate(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	sessions, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(cfg.SessionSigningSecret),
		Issuer:        cfg.SessionIssuer,
		CookieName:    cfg.SessionCookieName,
	})
	if err != nil {
		return err
	}

	queries := database.New(dbpool)
	newClient := func(token string) (syncer.Upstream, error) {
		return github.NewClient(token, cfg.GithubAPIURL, logger)
	}

	return fn(ctx, &app{
		cfg:     cfg,
		logger:  logger,
		store:   settings.NewStore(queries),
		syncer:  syncer.NewSyncer(queries, newClient, logger),
		session: sessions,
	})
}

// serve runs the HTTP server and the optional scheduler until ctx is cancelled.
func serve(ctx context.Context, a *app) error {
	router := api.NewRouter(a.syncer, a.store, a.session, api.Config{
		CronSecret: a.cfg.CronSecret,
		RunTimeout: a.cfg.ManualRunTimeout,
	}, a.logger)
	if a.cfg.CronSecret == "" {
		a.logger.Warn("CRON_SECRET is empty, the scheduled trigger will reject every request")
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutdown signal received. Stopping HTTP server.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.cfg.SweepInterval > 0 {
		g.Go(func() error {
			a.syncer.Start(gctx, a.cfg.SweepInterval)
			return nil
		})
	}

	return g.Wait()
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
