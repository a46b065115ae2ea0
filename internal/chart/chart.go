package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNoData is returned when a chart is refreshed before any rows were loaded.
	ErrNoData = errors.New("chart: no data loaded")
	// ErrNotPlanned is returned when an operation needs a layout that does not exist yet.
	ErrNotPlanned = errors.New("chart: layout not planned")
	// ErrUnknownElement is returned for clicks and tooltips on keys not in the scene.
	ErrUnknownElement = errors.New("chart: unknown element")
	// ErrInvalidConfig is returned when a config fails validation.
	ErrInvalidConfig = errors.New("chart: invalid config")
	// ErrPalette is returned when the color scheme cannot be fetched.
	ErrPalette = errors.New("chart: palette unavailable")
)

// PaletteFuture is a single-shot palette lookup.
type PaletteFuture interface {
	Await(ctx context.Context) ([]string, error)
}

// PaletteSource starts palette lookups for a color scheme.
type PaletteSource interface {
	Fetch(scheme string) PaletteFuture
}

// StaticPalette always resolves to the same colors.
type StaticPalette []string

// Fetch implements PaletteSource.
func (p StaticPalette) Fetch(string) PaletteFuture { return resolvedPalette(p) }

type resolvedPalette []string

func (p resolvedPalette) Await(context.Context) ([]string, error) { return p, nil }

// Recorder receives engine measurements.
type Recorder interface {
	ObservePhase(phase string, d time.Duration)
	ReshapeAborted()
	OrderFallback()
	Misaligned(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObservePhase(string, time.Duration) {}
func (nopRecorder) ReshapeAborted()                     {}
func (nopRecorder) OrderFallback()                      {}
func (nopRecorder) Misaligned(int)                      {}

// Option configures a Chart.
type Option func(*Chart)

// WithID sets the id used to scope SVG element ids.
func WithID(id string) Option { return func(c *Chart) { c.id = id } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chart) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMeasurer sets the text measurer used by the label engine.
func WithMeasurer(m TextMeasurer) Option {
	return func(c *Chart) {
		if m != nil {
			c.measurer = m
		}
	}
}

// WithPalette sets the color provider.
func WithPalette(p PaletteSource) Option {
	return func(c *Chart) {
		if p != nil {
			c.palettes = p
		}
	}
}

// WithSelector sets the selection callback.
func WithSelector(s Selector) Option { return func(c *Chart) { c.selector = s } }

// WithRecorder sets the metrics hook.
func WithRecorder(r Recorder) Option {
	return func(c *Chart) {
		if r != nil {
			c.metrics = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Chart) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithDesktopHost marks the host as the desktop client that cannot play
// elastic transitions.
func WithDesktopHost(desktop bool) Option { return func(c *Chart) { c.desktop = desktop } }

// Chart is the explicit chart context: input, reshaped data, layout and
// scene of one chart. Methods are safe for concurrent use.
type Chart struct {
	mu sync.Mutex

	id       string
	log      *slog.Logger
	measurer TextMeasurer
	palettes PaletteSource
	selector Selector
	metrics  Recorder
	clock    func() time.Time
	desktop  bool

	input      *Input
	data       *Dataset
	generation int
	cfg        Config
	configured bool
	width      float64
	height     float64
	colors     []string
	layout     *Layout
	scene      *Scene
	legendPage int
	pending    map[int]map[int]bool
}

// New returns an empty chart.
func New(opts ...Option) *Chart {
	c := &Chart{
		id:       "chart",
		log:      slog.Default(),
		measurer: FixedMeasurer{},
		palettes: StaticPalette(nil),
		metrics:  nopRecorder{},
		clock:    time.Now,
		scene:    NewScene(),
		cfg:      DefaultConfig(),
		pending:  map[int]map[int]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reshapes raw rows. It returns false and keeps the previous dataset
// when the rows do not match the declared shape.
func (c *Chart) Load(in Input) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(in)
}

func (c *Chart) load(in Input) bool {
	start := time.Now()
	in.Normalized = c.cfg.Normalized
	in.ShowDeltas = c.cfg.ShowDeltas
	ds, ok := Reshape(in)
	if !ok {
		c.metrics.ReshapeAborted()
		c.log.Debug("reshape skipped: row shape mismatch",
			slog.String("chart", c.id),
			slog.Int("rows", len(in.Rows)),
			slog.Int("dimensions", in.Dimensions),
			slog.Int("measures", in.Measures))
		return false
	}
	if ds.OrderFallback {
		c.metrics.OrderFallback()
		c.log.Info("secondary order has a cycle, using first-seen order",
			slog.String("chart", c.id),
			slog.Any("order", ds.Dim2Order))
	}
	if ds.Misaligned > 0 {
		c.metrics.Misaligned(ds.Misaligned)
		c.log.Warn("delta pairs skipped: segments misaligned",
			slog.String("chart", c.id),
			slog.Int("pairs", ds.Misaligned))
	}
	saved := in
	c.input = &saved
	c.data = ds
	c.generation++
	c.metrics.ObservePhase("reshape", time.Since(start))
	return true
}

// Refresh applies a configuration and container size: it awaits the palette,
// plans the layout, recreates every element and transitions it into place.
// The reshaper only runs again when normalization or deltas changed.
func (c *Chart) Refresh(ctx context.Context, cfg Config, width, height float64) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	fut := c.palettes.Fetch(cfg.ColorScheme)
	c.mu.Unlock()

	colors, err := fut.Await(ctx)
	if err != nil {
		c.log.Error("palette fetch failed", slog.String("chart", c.id), slog.String("scheme", cfg.ColorScheme), slog.Any("error", err))
		return fmt.Errorf("%w: %q: %w", ErrPalette, cfg.ColorScheme, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	reshape := c.input != nil && (cfg.Normalized != c.cfg.Normalized || cfg.ShowDeltas != c.cfg.ShowDeltas)
	c.cfg = cfg
	c.configured = true
	c.width, c.height = width, height
	c.colors = colors
	if reshape {
		c.load(*c.input)
	}
	if c.data == nil {
		return ErrNoData
	}

	start := time.Now()
	c.layout = PlanLayout(PlanInput{
		Config:   c.cfg,
		Data:     c.data,
		Width:    width,
		Height:   height,
		Palette:  colors,
		Measurer: c.measurer,
		Scene:    c.scene,
	})
	c.metrics.ObservePhase("layout", time.Since(start))
	c.clampLegendPage()
	c.pending = map[int]map[int]bool{}

	start = time.Now()
	rc := c.renderContext()
	CreateBars(c.scene, rc)
	UpdateBars(c.scene, rc)
	c.metrics.ObservePhase("render", time.Since(start))
	return nil
}

// Update re-plans scales for the current data and diffs the scene by key,
// without the teardown Refresh performs.
func (c *Chart) Update(ctx context.Context) (RenderStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.configured || c.layout == nil {
		return nil, ErrNotPlanned
	}
	if c.data == nil {
		return nil, ErrNoData
	}
	start := time.Now()
	c.layout = PlanLayout(PlanInput{
		Config:   c.cfg,
		Data:     c.data,
		Width:    c.width,
		Height:   c.height,
		Palette:  c.colors,
		Measurer: c.measurer,
	})
	c.clampLegendPage()
	now := c.clock()
	c.scene.Sweep(now)
	stats := UpdateBars(c.scene, c.renderContext())
	c.metrics.ObservePhase("update", time.Since(start))
	return stats, nil
}

// ScrollLegend moves the visible legend page by delta.
func (c *Chart) ScrollLegend(delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrollLegend(delta)
}

func (c *Chart) scrollLegend(delta int) (int, error) {
	if c.layout == nil {
		return 0, ErrNotPlanned
	}
	c.legendPage += delta
	c.clampLegendPage()
	rc := c.renderContext()
	c.scene.Reconcile(LayerLegend, desiredLayer(LayerLegend, rc), rc.Now, rc.Timing)
	return c.legendPage, nil
}

func (c *Chart) clampLegendPage() {
	pages := c.layout.Legend.Pages
	if c.legendPage >= pages {
		c.legendPage = pages - 1
	}
	if c.legendPage < 0 {
		c.legendPage = 0
	}
}

func (c *Chart) renderContext() RenderContext {
	return RenderContext{
		Data:       c.data,
		Layout:     c.layout,
		Measurer:   c.measurer,
		Generation: c.generation,
		LegendPage: c.legendPage,
		Now:        c.clock(),
		Timing:     c.timing(),
	}
}

// timing resolves the transition settings. Edit mode, export and elastic
// easing on the desktop host render without animation.
func (c *Chart) timing() Timing {
	t := c.cfg.Transition
	if !t.Enabled || c.cfg.EditMode || c.cfg.Export {
		return Timing{}
	}
	if c.desktop && t.Ease == ElasticEase {
		return Timing{}
	}
	return Timing{
		Delay:    time.Duration(t.Delay) * time.Millisecond,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		Ease:     Ease(t.Ease),
	}
}

// WriteSVG renders the scene at the current clock.
func (c *Chart) WriteSVG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout == nil {
		return ErrNotPlanned
	}
	return WriteSVG(w, c.scene, c.layout, SVGOptions{ID: c.id, Title: c.title(), Now: c.clock()})
}

func (c *Chart) title() string {
	if t := c.cfg.DimAxis.Title; t != "" {
		return t
	}
	return "Stacked bar chart"
}

// Dataset returns the current reshaped data.
func (c *Chart) Dataset() *Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Layout returns the last planned layout.
func (c *Chart) Layout() *Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// Scene returns the retained scene.
func (c *Chart) Scene() *Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene
}

// Config returns the applied configuration.
func (c *Chart) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Generation counts successful data loads.
func (c *Chart) Generation() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
