package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stackchart/internal/app"
	"github.com/odyssey-erp/stackchart/internal/chart"
	"github.com/odyssey-erp/stackchart/internal/charthttp"
	"github.com/odyssey-erp/stackchart/internal/observability"
	"github.com/odyssey-erp/stackchart/internal/palette"
	"github.com/odyssey-erp/stackchart/internal/platform/cache"
	"github.com/odyssey-erp/stackchart/internal/selection"
	"github.com/odyssey-erp/stackchart/internal/store"
	"github.com/odyssey-erp/stackchart/internal/view"
	"github.com/odyssey-erp/stackchart/jobs"
	"github.com/odyssey-erp/stackchart/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	palettes := palette.NewProvider(redisClient, cfg.PaletteTTL, logger)
	charts := store.New(redisClient, cfg.ChartTTL)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	var measurer chart.TextMeasurer
	if m, err := chart.NewFontMeasurer(); err != nil {
		logger.Warn("font metrics unavailable, using estimates", slog.Any("error", err))
	} else {
		measurer = m
	}

	chartHandler := charthttp.NewHandler(charthttp.Config{
		Store:    charts,
		Palettes: palettes,
		Selectors: func(chartID string) chart.Selector {
			return selection.Fanout{
				selection.NewLogger(logger, chartID),
				selection.NewPublisher(redisClient, cfg.SelectionChannel, chartID),
			}
		},
		Exporter:    jobClient,
		Templates:   templates,
		Recorder:    metrics,
		Measurer:    measurer,
		Logger:      logger,
		Desktop:     cfg.DesktopHost,
		ExportLimit: cfg.ExportRateLimit,
	})

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		ChartHandler:  chartHandler,
		ReportHandler: reportHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
