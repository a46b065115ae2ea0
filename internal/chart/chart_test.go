package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selectCall struct {
	dim    int
	ids    []int
	toggle bool
}

type recordingSelector struct {
	calls []selectCall
	err   error
}

func (r *recordingSelector) SelectValues(_ context.Context, dim int, ids []int, toggle bool) error {
	r.calls = append(r.calls, selectCall{dim: dim, ids: append([]int(nil), ids...), toggle: toggle})
	return r.err
}

type failingPalette struct{ err error }

func (f failingPalette) Fetch(string) PaletteFuture { return f }

func (f failingPalette) Await(context.Context) ([]string, error) { return nil, f.err }

type countingRecorder struct {
	phases    map[string]int
	aborted   int
	fallbacks int
}

func (r *countingRecorder) ObservePhase(phase string, _ time.Duration) {
	if r.phases == nil {
		r.phases = map[string]int{}
	}
	r.phases[phase]++
}
func (r *countingRecorder) ReshapeAborted() { r.aborted++ }
func (r *countingRecorder) OrderFallback()  { r.fallbacks++ }
func (r *countingRecorder) Misaligned(int)  {}

func scenarioInput() Input {
	return Input{
		Rows:       twoDimRows([3]any{"A", "P", 5}, [3]any{"A", "Q", 3}, [3]any{"B", "P", 4}),
		Dimensions: 2,
		Measures:   1,
	}
}

func staticConfig() Config {
	cfg := DefaultConfig()
	cfg.Transition.Enabled = false
	return cfg
}

func newTestChart(t *testing.T, opts ...Option) (*Chart, *recordingSelector, *time.Time) {
	t.Helper()
	now := timeZero
	sel := &recordingSelector{}
	base := []Option{
		WithID("sales"),
		WithClock(func() time.Time { return now }),
		WithPalette(StaticPalette{"#1f77b4", "#ff7f0e"}),
		WithSelector(sel),
	}
	c := New(append(base, opts...)...)
	require.True(t, c.Load(scenarioInput()))
	return c, sel, &now
}

func TestChartRefreshBuildsScene(t *testing.T) {
	c, _, _ := newTestChart(t)
	require.NoError(t, c.Refresh(context.Background(), staticConfig(), 600, 400))

	s := c.Scene()
	assert.Equal(t, 3, s.Len(LayerBars), "placeholders are not drawn")
	assert.Equal(t, 2, s.Len(LayerLegend))
	bar, ok := s.Get(LayerBars, BarKey(1, "A", "Q"))
	require.True(t, ok)
	assert.Equal(t, "#ff7f0e", bar.Target().Fill)
	assert.Equal(t, "A, Q: 3", bar.Title)
	_, ok = s.Get(LayerAxes, TickKey(0))
	assert.True(t, ok)
}

func TestChartRefreshWithoutDataFails(t *testing.T) {
	c := New()
	err := c.Refresh(context.Background(), staticConfig(), 600, 400)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestChartRefreshRejectsInvalidConfig(t *testing.T) {
	c, _, _ := newTestChart(t)
	cfg := staticConfig()
	cfg.BarGap = 3
	assert.ErrorIs(t, c.Refresh(context.Background(), cfg, 600, 400), ErrInvalidConfig)
}

func TestChartPaletteFailurePropagates(t *testing.T) {
	boom := errors.New("theme service down")
	c, _, _ := newTestChart(t, WithPalette(failingPalette{err: boom}))
	err := c.Refresh(context.Background(), staticConfig(), 600, 400)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrPalette)
	assert.Nil(t, c.Layout())
}

func TestChartLoadMismatchKeepsPreviousData(t *testing.T) {
	rec := &countingRecorder{}
	c, _, _ := newTestChart(t, WithRecorder(rec))
	before := c.Dataset()
	ok := c.Load(Input{Rows: []Row{{cell(0, "X")}}, Dimensions: 1, Measures: 1})
	assert.False(t, ok)
	assert.Same(t, before, c.Dataset())
	assert.Equal(t, 1, rec.aborted)
	assert.Equal(t, 1, c.Generation())
}

func TestChartUpdateDiffsByKey(t *testing.T) {
	c, _, now := newTestChart(t)
	cfg := DefaultConfig()
	cfg.Text.Mode = TextTotal
	require.NoError(t, c.Refresh(context.Background(), cfg, 600, 400))

	*now = now.Add(time.Second)
	require.True(t, c.Load(Input{
		Rows:       twoDimRows([3]any{"A", "P", 6}, [3]any{"C", "P", 1}),
		Dimensions: 2,
		Measures:   1,
	}))
	stats, err := c.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats[LayerBars].Created)
	assert.Equal(t, 3, stats[LayerBars].Removed)
	assert.Equal(t, 1, stats[LayerTotals].Updated, "total of A is re-targeted")
	assert.Equal(t, 1, stats[LayerTotals].Created)
	assert.Equal(t, 1, stats[LayerTotals].Removed)

	old, ok := c.Scene().Get(LayerBars, BarKey(1, "A", "P"))
	require.True(t, ok)
	assert.True(t, old.Exiting())

	*now = now.Add(time.Second)
	c.Scene().Sweep(*now)
	assert.Equal(t, 2, c.Scene().Len(LayerBars))
}

func TestChartUpdateBeforeRefresh(t *testing.T) {
	c, _, _ := newTestChart(t)
	_, err := c.Update(context.Background())
	assert.ErrorIs(t, err, ErrNotPlanned)
}

func TestChartNormalizationToggleReshapes(t *testing.T) {
	c, _, _ := newTestChart(t)
	cfg := staticConfig()
	cfg.Normalized = true
	require.NoError(t, c.Refresh(context.Background(), cfg, 600, 400))
	assert.True(t, c.Dataset().Normalized)
	assert.Equal(t, 1.0, c.Layout().Linear.Max)
}

func TestChartTimingSuppression(t *testing.T) {
	c := New()
	c.cfg = DefaultConfig()
	assert.Equal(t, 750*time.Millisecond, c.timing().Duration)

	c.cfg.EditMode = true
	assert.True(t, c.timing().Immediate())

	c.cfg = DefaultConfig()
	c.cfg.Export = true
	assert.True(t, c.timing().Immediate())

	c.cfg = DefaultConfig()
	c.cfg.Transition.Ease = ElasticEase
	assert.False(t, c.timing().Immediate())
	c.desktop = true
	assert.True(t, c.timing().Immediate())
}

func TestChartClickImmediate(t *testing.T) {
	c, sel, _ := newTestChart(t)
	require.NoError(t, c.Refresh(context.Background(), staticConfig(), 600, 400))

	picked, err := c.Click(context.Background(), LayerBars, BarKey(1, "A", "P"))
	require.NoError(t, err)
	assert.Equal(t, []Pick{{Dim: 0, ID: 0}, {Dim: 1, ID: 1}}, picked)
	require.Len(t, sel.calls, 2)
	assert.Equal(t, selectCall{dim: 0, ids: []int{0}, toggle: true}, sel.calls[0])
	assert.Equal(t, selectCall{dim: 1, ids: []int{1}, toggle: true}, sel.calls[1])

	_, err = c.Click(context.Background(), LayerBars, "nope")
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestChartClickLegendSelectsSecondary(t *testing.T) {
	c, sel, _ := newTestChart(t)
	require.NoError(t, c.Refresh(context.Background(), staticConfig(), 600, 400))
	_, err := c.Click(context.Background(), LayerLegend, "Q")
	require.NoError(t, err)
	require.Len(t, sel.calls, 1)
	assert.Equal(t, 1, sel.calls[0].dim)
	assert.Equal(t, []int{2}, sel.calls[0].ids)
}

func TestChartConfirmMode(t *testing.T) {
	c, sel, _ := newTestChart(t)
	cfg := staticConfig()
	cfg.Selection = SelectConfirm
	require.NoError(t, c.Refresh(context.Background(), cfg, 600, 400))

	ctx := context.Background()
	_, err := c.Click(ctx, LayerBars, BarKey(1, "A", "P"))
	require.NoError(t, err)
	_, err = c.Click(ctx, LayerBars, BarKey(1, "B", "P"))
	require.NoError(t, err)
	assert.Empty(t, sel.calls)

	bar, _ := c.Scene().Get(LayerBars, BarKey(1, "A", "P"))
	assert.True(t, bar.Selected)
	assert.Equal(t, map[int][]int{0: {0, 3}, 1: {1}}, c.Pending())

	applied, err := c.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int][]int{0: {0, 3}, 1: {1}}, applied)
	require.Len(t, sel.calls, 2)
	assert.Equal(t, selectCall{dim: 0, ids: []int{0, 3}, toggle: false}, sel.calls[0])
	assert.Empty(t, c.Pending())
	assert.False(t, bar.Selected)
}

func TestChartConfirmToggleOff(t *testing.T) {
	c, _, _ := newTestChart(t)
	cfg := staticConfig()
	cfg.Selection = SelectConfirm
	require.NoError(t, c.Refresh(context.Background(), cfg, 600, 400))
	key := BarKey(1, "B", "P")
	_, _ = c.Click(context.Background(), LayerBars, key)
	_, _ = c.Click(context.Background(), LayerBars, key)
	assert.Empty(t, c.Pending())
}

func TestChartTooltip(t *testing.T) {
	c, _, _ := newTestChart(t)
	require.NoError(t, c.Refresh(context.Background(), staticConfig(), 600, 400))
	key := BarKey(1, "A", "P")
	tip, err := c.Tooltip(key)
	require.NoError(t, err)
	assert.Equal(t, "A, P: 5", tip.Text)

	bar, _ := c.Scene().Get(LayerBars, key)
	lay := c.Layout()
	assert.InDelta(t, bar.Target().X+bar.Target().W/2+lay.Margin.Left, tip.X, 1e-9)
	assert.InDelta(t, bar.Target().Y+lay.Margin.Top-tooltipOffset, tip.Y, 1e-9)

	_, err = c.Tooltip("missing")
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestChartLegendScrolling(t *testing.T) {
	rows := make([]Row, 0, 20)
	for i := 0; i < 20; i++ {
		label := fmt.Sprintf("S%02d", i)
		rows = append(rows, Row{cell(0, "A"), cell(i+1, label), value(1)})
	}
	c := New(WithClock(func() time.Time { return timeZero }))
	require.True(t, c.Load(Input{Rows: rows, Dimensions: 2, Measures: 1}))
	require.NoError(t, c.Refresh(context.Background(), staticConfig(), 600, 300))
	require.True(t, c.Layout().Legend.Scroll)
	assert.Equal(t, 12+3, c.Scene().Len(LayerLegend))

	page, err := c.ScrollLegend(5)
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	_, ok := c.Scene().Get(LayerLegend, "S19")
	assert.True(t, ok)
	_, ok = c.Scene().Get(LayerLegend, "S00")
	assert.False(t, ok)

	_, err = c.Click(context.Background(), LayerLegend, scrollPrev)
	require.NoError(t, err)
	_, ok = c.Scene().Get(LayerLegend, "S00")
	assert.True(t, ok)
}

func TestChartWriteSVG(t *testing.T) {
	c, _, _ := newTestChart(t)
	cfg := DefaultConfig()
	cfg.Text.Mode = TextBoth
	require.NoError(t, c.Refresh(context.Background(), cfg, 600, 400))

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "<rect")
	assert.Contains(t, out, "<title>A, P: 5</title>")
	assert.Contains(t, out, `data-key="g1|A|P"`)
	assert.Contains(t, out, "<animate", "transitions in flight are animated")
	assert.Contains(t, out, `class="legend"`)
}

func TestChartWriteSVGSettled(t *testing.T) {
	c, _, now := newTestChart(t)
	cfg := DefaultConfig()
	require.NoError(t, c.Refresh(context.Background(), cfg, 600, 400))
	*now = now.Add(5 * time.Second)

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	assert.NotContains(t, buf.String(), "<animate")
}

func TestChartWriteSVGAnimationsTargetElements(t *testing.T) {
	c, _, _ := newTestChart(t)
	require.NoError(t, c.Refresh(context.Background(), DefaultConfig(), 600, 400))

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	out := buf.String()

	hrefs := regexp.MustCompile(`<animate[^>]*xlink:href="([^"]*)"`).FindAllStringSubmatch(out, -1)
	require.NotEmpty(t, hrefs)
	for _, m := range hrefs {
		require.True(t, strings.HasPrefix(m[1], "#"), "href %q is not a fragment", m[1])
		assert.Contains(t, out, fmt.Sprintf(`id="%s"`, strings.TrimPrefix(m[1], "#")))
	}
}

func TestChartWriteSVGBeforeRefresh(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.WriteSVG(&bytes.Buffer{}), ErrNotPlanned)
}
