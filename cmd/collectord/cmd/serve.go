package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/catalogwatch/collector/internal/api/handlers"
	mw "github.com/catalogwatch/collector/internal/api/middleware"
	"github.com/catalogwatch/collector/internal/collector"
	"github.com/catalogwatch/collector/internal/config"
	"github.com/catalogwatch/collector/internal/control"
	"github.com/catalogwatch/collector/internal/notify"
	"github.com/catalogwatch/collector/internal/queue"
	"github.com/catalogwatch/collector/internal/ratelimit"
	"github.com/catalogwatch/collector/internal/steam"
	"github.com/catalogwatch/collector/internal/store"
	"github.com/catalogwatch/collector/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collector and its API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cmdLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	s, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	budget := ratelimit.NewBudget(ratelimit.Limits{
		Window:           cfg.Market.RateLimit.Window,
		OverallPerWindow: cfg.Market.RateLimit.OverallPerWindow,
		HistoryPerWindow: cfg.Market.RateLimit.HistoryPerWindow,
		CatalogPerWindow: cfg.Market.RateLimit.CatalogPerWindow,
		DailyLimit:       cfg.Market.RateLimit.DailyLimit,
		PenaltyBase:      cfg.Market.RateLimit.PenaltyBase,
		PenaltyMax:       cfg.Market.RateLimit.PenaltyMax,
	})

	q := queue.New(
		queue.WithCapacity(cfg.Collector.QueueCapacity),
		queue.WithQueueLogger(slogger),
	)

	manual := control.NewManualPause()
	plane := control.NewPlane(manual, control.NewFilePause(cfg.Collector.PauseFile))

	market := steam.NewClient(
		cfg.Market.SessionID,
		cfg.Market.LoginToken,
		budget,
		steam.WithBaseURL(cfg.Market.BaseURL),
		steam.WithHTTPClient(&http.Client{Timeout: cfg.Market.RequestTimeout}),
		steam.WithPageSize(cfg.Collector.PageSize),
		steam.WithMinRequestDelay(cfg.Market.MinRequestDelay),
		steam.WithClientLogger(slogger),
	)

	var notifier notify.Notifier = notify.NewNoOpNotifier(slogger)
	if cfg.Notifications.Discord.Enabled {
		notifier = notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
	}

	coll := collector.New(
		s, market, budget, q, plane, notifier,
		cfg.Collector.Collections,
		collector.WithWorkerCount(cfg.Collector.Workers),
		collector.WithCollectorFreshnessWindow(cfg.Collector.FreshnessWindow),
		collector.WithDiscoveryInterval(cfg.Collector.DiscoveryInterval),
		collector.WithCollectorMaxCatalogPages(cfg.Collector.MaxCatalogPages),
		collector.WithCollectorRetryPolicy(cfg.Collector.MaxRetries, cfg.Collector.RetryDelay),
		collector.WithStopTimeout(cfg.Collector.StopTimeout),
		collector.WithCollectorLogger(slogger),
	)
	if err := coll.Start(ctx); err != nil {
		return fmt.Errorf("starting collector: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(mw.Recovery(slogger))
	e.Use(mw.RequestLog(slogger))
	e.Use(mw.Metrics())

	healthH := handlers.NewHealthHandler(s)
	e.GET("/healthz", healthH.Healthz)
	e.GET("/readyz", healthH.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Market History Collector API", Version))
	handlers.RegisterItemRoutes(api, handlers.NewItemsHandler(s))
	handlers.RegisterSystemStateRoutes(api, handlers.NewSystemStateHandler(coll))
	handlers.RegisterControlRoutes(api, handlers.NewControlHandler(manual, plane, coll))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	cmdLog.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cmdLog.Error("server error", "err", err)
		}
	}()

	// A stop via the API halts collection but keeps the read API up;
	// only a signal takes the whole process down.
	go func() {
		<-plane.Stopping()
		cmdLog.Info("stop requested, halting collection")
		coll.Stop()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cmdLog.Info("signal received, shutting down")

	coll.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	cmdLog.Info("server stopped")
	return nil
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
