package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/Skufu/mealguard/internal/catalog"
	"github.com/Skufu/mealguard/internal/config"
	"github.com/Skufu/mealguard/internal/httpapi"
	"github.com/Skufu/mealguard/internal/logging"
	"github.com/Skufu/mealguard/internal/recommend"
	"github.com/Skufu/mealguard/internal/store"
)

var cmdServe = &cli.Command{
	Name:    "serve",
	Aliases: []string{"start"},
	Usage:   "Start the web server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "port",
			Usage: "the web server port (overrides PORT)",
		},
		&cli.StringFlag{
			Name:  "database-url",
			Usage: "PostgreSQL connection string; implies ENABLE_DB=true",
		},
		&cli.BoolFlag{
			Name:  "demo",
			Usage: "load a demo patient into the in-memory store (ignored with a database)",
		},
	},
	Action: serve,
}

// loadServeConfig reads the environment and applies command-line overrides.
func loadServeConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.String("port")
	}
	if cmd.IsSet("database-url") {
		cfg.DatabaseURL = cmd.String("database-url")
		cfg.EnableDB = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	logger := logging.Logger(logging.SourceApp)

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	var (
		db       httpapi.HealthChecker
		profiles recommend.ProfileFetcher
		labs     recommend.LabFetcher
		source   catalog.Source
	)
	if cfg.EnableDB {
		pg, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pg.Close()
		db, profiles, labs, source = pg, pg, pg, pg
	} else {
		mem := store.NewMemory()
		if cmd.Bool("demo") {
			if err := seedDemoPatient(ctx, mem, time.Now()); err != nil {
				return err
			}
			logger.Info("demo patient loaded", "patient_id", demoPatientID)
		}
		profiles, labs = mem, mem
		source = catalog.FileSource{Path: cfg.CatalogFile}
		logger.Warn("database disabled; profiles are kept in memory", "catalog_file", cfg.CatalogFile)
	}

	cache := catalog.NewCache(source, catalog.Options{
		RefreshInterval: cfg.CatalogRefreshInterval,
		MaxStaleness:    cfg.CatalogMaxStaleness,
	})
	if _, err := cache.Refresh(ctx); err != nil {
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go cache.Run(runCtx)

	svc := recommend.NewService(profiles, labs, cache, recommend.Options{
		DefaultTopN:    cfg.DefaultTopN,
		RecentLabLimit: cfg.RecentLabLimit,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(db, cache, svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	logger.Info("server listening", "port", cfg.Port, "db", cfg.EnableDB)

	sigCtx, stop := signal.NotifyContext(runCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return waitForShutdown(sigCtx, server, serveErr)
}

// waitForShutdown blocks until ctx is done or the server fails, then drains
// in-flight requests for up to five seconds.
func waitForShutdown(ctx context.Context, server *http.Server, serveErr <-chan error) error {
	logger := logging.Logger(logging.SourceApp)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		return err
	}
	return nil
}
