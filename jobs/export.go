package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stackchart/internal/chart"
	jobmetrics "github.com/odyssey-erp/stackchart/internal/jobs"
	"github.com/odyssey-erp/stackchart/internal/store"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StateStore loads chart state and keeps finished exports.
type StateStore interface {
	Load(ctx context.Context, id string) (*store.State, error)
	SaveExport(ctx context.Context, id string, doc []byte, ttl time.Duration) error
}

// PageWrapper wraps an SVG in a printable HTML page.
type PageWrapper interface {
	ExportPage(title string, svg []byte) (string, error)
}

// PDFRenderer converts HTML into PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// ChartExportJob renders a chart in the export context and stores the PDF.
type ChartExportJob struct {
	Store    StateStore
	Palettes chart.PaletteSource
	Pages    PageWrapper
	PDF      PDFRenderer
	TTL      time.Duration
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Recorder chart.Recorder
	Measurer chart.TextMeasurer
}

// Handle processes TaskChartExport tasks.
func (j *ChartExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil || j.Pages == nil || j.PDF == nil {
		return errors.New("chart export: handler not configured")
	}
	var payload ChartExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ChartID == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskChartExport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("chart", payload.ChartID))
	start := time.Now()

	size, err := j.export(ctx, payload)
	if err != nil {
		resultErr = err
		logger.Error("chart export failed", slog.Any("error", err))
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return resultErr
	}
	j.metrics().ObserveExport(size)
	logger.Info("chart exported", slog.Int("bytes", size), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ChartExportJob) export(ctx context.Context, payload ChartExportPayload) (int, error) {
	st, err := j.Store.Load(ctx, payload.ChartID)
	if err != nil {
		return 0, err
	}
	st.Config.Export = true
	opts := []chart.Option{
		chart.WithLogger(j.logger()),
		chart.WithRecorder(j.Recorder),
		chart.WithMeasurer(j.Measurer),
	}
	if j.Palettes != nil {
		opts = append(opts, chart.WithPalette(j.Palettes))
	}
	c, err := st.Build(ctx, opts...)
	if err != nil {
		return 0, fmt.Errorf("build chart: %w", err)
	}
	var svg bytes.Buffer
	if err := c.WriteSVG(&svg); err != nil {
		return 0, err
	}
	title := payload.Title
	if title == "" {
		title = st.Config.DimAxis.Title
	}
	html, err := j.Pages.ExportPage(title, svg.Bytes())
	if err != nil {
		return 0, fmt.Errorf("wrap svg: %w", err)
	}
	pdf, err := j.PDF.RenderHTML(ctx, html)
	if err != nil {
		return 0, fmt.Errorf("render pdf: %w", err)
	}
	if err := j.Store.SaveExport(ctx, payload.ChartID, pdf, j.TTL); err != nil {
		return 0, err
	}
	return len(pdf), nil
}

func (j *ChartExportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ChartExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
