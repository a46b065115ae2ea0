package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stackchart/internal/app"
	"github.com/odyssey-erp/stackchart/internal/chart"
	jobmetrics "github.com/odyssey-erp/stackchart/internal/jobs"
	"github.com/odyssey-erp/stackchart/internal/observability"
	"github.com/odyssey-erp/stackchart/internal/palette"
	"github.com/odyssey-erp/stackchart/internal/platform/cache"
	"github.com/odyssey-erp/stackchart/internal/store"
	"github.com/odyssey-erp/stackchart/internal/view"
	"github.com/odyssey-erp/stackchart/jobs"
	"github.com/odyssey-erp/stackchart/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	var measurer chart.TextMeasurer
	if m, err := chart.NewFontMeasurer(); err != nil {
		logger.Warn("font metrics unavailable, using estimates", slog.Any("error", err))
	} else {
		measurer = m
	}

	exportJob := &jobs.ChartExportJob{
		Store:    store.New(redisClient, cfg.ChartTTL),
		Palettes: palette.NewProvider(redisClient, cfg.PaletteTTL, logger),
		Pages:    templates,
		PDF:      report.NewClient(cfg.GotenbergURL),
		TTL:      cfg.ExportTTL,
		Logger:   logger,
		Metrics:  jobmetrics.NewMetrics(metrics.Registerer()),
		Recorder: metrics,
		Measurer: measurer,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskChartExport, Handler: exportJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = metricsServer.Close() }()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
