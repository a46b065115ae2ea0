// Package charthttp exposes charts over HTTP.
package charthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stackchart/internal/chart"
	"github.com/odyssey-erp/stackchart/internal/palette"
	"github.com/odyssey-erp/stackchart/internal/platform/httpx"
	"github.com/odyssey-erp/stackchart/internal/store"
	"github.com/odyssey-erp/stackchart/internal/view"
	"github.com/odyssey-erp/stackchart/jobs"
)

// StateStore persists chart state between requests.
type StateStore interface {
	Save(ctx context.Context, st *store.State) error
	Load(ctx context.Context, id string) (*store.State, error)
	LoadExport(ctx context.Context, id string) ([]byte, error)
}

// Exporter queues PDF exports.
type Exporter interface {
	EnqueueChartExport(ctx context.Context, payload jobs.ChartExportPayload) (string, error)
}

// SelectorFactory builds the selection callback of one chart.
type SelectorFactory func(chartID string) chart.Selector

// Config wires the handler dependencies.
type Config struct {
	Store       StateStore
	Palettes    chart.PaletteSource
	Selectors   SelectorFactory
	Exporter    Exporter
	Templates   *view.Engine
	Recorder    chart.Recorder
	Measurer    chart.TextMeasurer
	Logger      *slog.Logger
	Desktop     bool
	ExportLimit int
}

// Handler serves the chart endpoints. Rendered charts are cached in memory
// per id so a configuration change does not re-run the reshaper.
type Handler struct {
	cfg      Config
	logger   *slog.Logger
	validate *validator.Validate

	mu     sync.Mutex
	charts map[string]*entry
}

type entry struct {
	chart *chart.Chart
	state *store.State
}

// NewHandler constructs the chart handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExportLimit <= 0 {
		cfg.ExportLimit = 10
	}
	return &Handler{cfg: cfg, logger: logger, validate: validator.New(), charts: map[string]*entry{}}
}

// MountRoutes registers the chart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}.svg", h.svg)
	r.Get("/{id}", h.preview)
	r.Put("/{id}/config", h.updateConfig)
	r.Put("/{id}/data", h.updateData)
	r.Post("/{id}/click", h.click)
	r.Post("/{id}/confirm", h.confirm)
	r.Post("/{id}/legend", h.scrollLegend)
	r.Get("/{id}/tooltip", h.tooltip)
	r.Get("/{id}/export", h.download)
	r.With(httprate.LimitByIP(h.cfg.ExportLimit, time.Minute)).Post("/{id}/export", h.export)
}

type createRequest struct {
	Rows         []chart.Row     `json:"rows" validate:"required,min=1"`
	Dimensions   int             `json:"dimensions" validate:"gte=0,lte=2"`
	Measures     int             `json:"measures" validate:"gte=1"`
	MeasureNames []string        `json:"measureNames"`
	Config       json.RawMessage `json:"config"`
	Width        float64         `json:"width" validate:"gt=0,lte=10000"`
	Height       float64         `json:"height" validate:"gt=0,lte=10000"`
}

type configRequest struct {
	Config json.RawMessage `json:"config"`
	Width  float64         `json:"width" validate:"omitempty,gt=0,lte=10000"`
	Height float64         `json:"height" validate:"omitempty,gt=0,lte=10000"`
}

type dataRequest struct {
	Rows         []chart.Row `json:"rows" validate:"required,min=1"`
	Dimensions   int         `json:"dimensions" validate:"gte=0,lte=2"`
	Measures     int         `json:"measures" validate:"gte=1"`
	MeasureNames []string    `json:"measureNames"`
}

type clickRequest struct {
	Layer chart.Layer `json:"layer" validate:"required,oneof=axes deltas bars labels totals legend"`
	Key   string      `json:"key" validate:"required"`
}

// mergeConfig applies a partial config document over base. Fields the
// document leaves out keep their base values.
func mergeConfig(base chart.Config, raw json.RawMessage) (chart.Config, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return base, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&base); err != nil {
		return chart.Config{}, fmt.Errorf("%w: config: %v", httpx.ErrValidation, err)
	}
	return base, nil
}

type renderResponse struct {
	ID  string `json:"id"`
	SVG string `json:"svg"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	cfg, err := mergeConfig(chart.DefaultConfig(), req.Config)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	st := &store.State{
		ID: store.NewID(),
		Input: chart.Input{
			Rows:         req.Rows,
			Dimensions:   req.Dimensions,
			Measures:     req.Measures,
			MeasureNames: req.MeasureNames,
		},
		Config: cfg,
		Width:  req.Width,
		Height: req.Height,
	}
	c, err := st.Build(r.Context(), h.chartOptions(st.ID)...)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	st.Config = c.Config()
	if err := h.cfg.Store.Save(r.Context(), st); err != nil {
		h.logger.Error("save chart", slog.String("chart", st.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.put(st.ID, &entry{chart: c, state: st})
	h.respondSVG(w, http.StatusCreated, st.ID, c)
}

func (h *Handler) svg(w http.ResponseWriter, r *http.Request) {
	e, err := h.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	var buf bytes.Buffer
	if err := e.chart.WriteSVG(&buf); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.lookup(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	var buf bytes.Buffer
	if err := e.chart.WriteSVG(&buf); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	title := e.state.Config.DimAxis.Title
	if title == "" {
		title = "Chart preview"
	}
	data := view.TemplateData{
		Title:     title,
		ChartID:   id,
		SVG:       view.InlineSVG(buf.Bytes()),
		UpdatedAt: e.state.UpdatedAt,
	}
	if err := h.cfg.Templates.Render(w, "pages/preview.html", data); err != nil {
		h.logger.Error("render preview", slog.String("chart", id), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req configRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	e, err := h.lookup(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	width, height := e.state.Width, e.state.Height
	if req.Width > 0 {
		width = req.Width
	}
	if req.Height > 0 {
		height = req.Height
	}
	cfg, err := mergeConfig(e.chart.Config(), req.Config)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := e.chart.Refresh(r.Context(), cfg, width, height); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	st := *e.state
	st.Config, st.Width, st.Height = e.chart.Config(), width, height
	if err := h.cfg.Store.Save(r.Context(), &st); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.put(id, &entry{chart: e.chart, state: &st})
	h.respondSVG(w, http.StatusOK, id, e.chart)
}

type dataResponse struct {
	Applied bool              `json:"applied"`
	Stats   chart.RenderStats `json:"stats,omitempty"`
}

func (h *Handler) updateData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dataRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	e, err := h.lookup(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	in := chart.Input{Rows: req.Rows, Dimensions: req.Dimensions, Measures: req.Measures, MeasureNames: req.MeasureNames}
	if !e.chart.Load(in) {
		httpx.JSON(w, http.StatusOK, dataResponse{Applied: false})
		return
	}
	stats, err := e.chart.Update(r.Context())
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	st := *e.state
	st.Input = in
	if err := h.cfg.Store.Save(r.Context(), &st); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.put(id, &entry{chart: e.chart, state: &st})
	httpx.JSON(w, http.StatusOK, dataResponse{Applied: true, Stats: stats})
}

func (h *Handler) click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	e, err := h.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	picks, err := e.chart.Click(r.Context(), req.Layer, req.Key)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	if picks == nil {
		picks = []chart.Pick{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"picks":   picks,
		"pending": pendingJSON(e.chart.Pending()),
	})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	e, err := h.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	applied, err := e.chart.Confirm(r.Context())
	if err != nil {
		h.logger.Error("confirm selections", slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"applied": pendingJSON(applied)})
}

func (h *Handler) scrollLegend(w http.ResponseWriter, r *http.Request) {
	delta, err := strconv.Atoi(r.URL.Query().Get("delta"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: delta must be an integer", httpx.ErrValidation))
		return
	}
	e, err := h.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	page, err := e.chart.ScrollLegend(delta)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"page": page})
}

func (h *Handler) tooltip(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		httpx.RespondError(w, fmt.Errorf("%w: key is required", httpx.ErrValidation))
		return
	}
	e, err := h.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	tip, err := e.chart.Tooltip(key)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, tip)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.cfg.Exporter == nil {
		httpx.RespondError(w, fmt.Errorf("%w: exports disabled", httpx.ErrUnavailable))
		return
	}
	e, err := h.lookup(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	taskID, err := h.cfg.Exporter.EnqueueChartExport(r.Context(), jobs.ChartExportPayload{
		ChartID: id,
		Title:   e.state.Config.DimAxis.Title,
	})
	if err != nil {
		h.logger.Error("enqueue export", slog.String("chart", id), slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"id": id, "task": taskID})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.cfg.Store.LoadExport(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=chart-%s.pdf", id))
	_, _ = w.Write(doc)
}

func (h *Handler) respondSVG(w http.ResponseWriter, status int, id string, c *chart.Chart) {
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf); err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, status, renderResponse{ID: id, SVG: buf.String()})
}

// lookup returns the cached chart for id, rebuilding it from the store when
// this process has not seen it yet.
func (h *Handler) lookup(ctx context.Context, id string) (*entry, error) {
	h.mu.Lock()
	e, ok := h.charts[id]
	h.mu.Unlock()
	if ok {
		return e, nil
	}
	st, err := h.cfg.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := st.Build(ctx, h.chartOptions(id)...)
	if err != nil {
		return nil, err
	}
	e = &entry{chart: c, state: st}
	h.put(id, e)
	return e, nil
}

func (h *Handler) put(id string, e *entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.charts[id] = e
}

func (h *Handler) chartOptions(id string) []chart.Option {
	opts := []chart.Option{
		chart.WithID(id),
		chart.WithLogger(h.logger),
		chart.WithRecorder(h.cfg.Recorder),
		chart.WithMeasurer(h.cfg.Measurer),
		chart.WithDesktopHost(h.cfg.Desktop),
	}
	if h.cfg.Palettes != nil {
		opts = append(opts, chart.WithPalette(h.cfg.Palettes))
	}
	if h.cfg.Selectors != nil {
		opts = append(opts, chart.WithSelector(h.cfg.Selectors(id)))
	}
	return opts
}

func pendingJSON(p map[int][]int) map[string][]int {
	out := make(map[string][]int, len(p))
	for dim, ids := range p {
		out[strconv.Itoa(dim)] = ids
	}
	return out
}

func mapError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, chart.ErrUnknownElement):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, chart.ErrNoData), errors.Is(err, chart.ErrInvalidConfig), errors.Is(err, palette.ErrUnknownScheme):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, chart.ErrNotPlanned):
		return fmt.Errorf("%w: %v", httpx.ErrConflict, err)
	case errors.Is(err, chart.ErrPalette):
		return fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	default:
		return err
	}
}
