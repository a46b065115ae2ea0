package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitTextKeepsFittingString(t *testing.T) {
	m := FixedMeasurer{}
	out, cut := FitText(m, "Hello", 10, 30, true)
	assert.Equal(t, "Hello", out)
	assert.False(t, cut)

	again, cut := FitText(m, out, 10, 30, true)
	assert.Equal(t, out, again)
	assert.False(t, cut)
}

func TestFitTextShrinksWithEllipsis(t *testing.T) {
	m := FixedMeasurer{}
	out, cut := FitText(m, "Hello World", 10, 40, true)
	assert.Equal(t, "Hello…", out)
	assert.True(t, cut)

	again, cut := FitText(m, out, 10, 40, true)
	assert.Equal(t, out, again, "shrinking a fitted label must be a no-op")
	assert.False(t, cut)
}

func TestFitTextWithoutEllipsisSuppresses(t *testing.T) {
	out, cut := FitText(FixedMeasurer{}, "Hello World", 10, 40, false)
	assert.Empty(t, out)
	assert.True(t, cut)
}

func TestFitTextTooNarrowForAnything(t *testing.T) {
	out, _ := FitText(FixedMeasurer{}, "Hello", 10, 5, true)
	assert.Empty(t, out)
}

func labelLayout(orientation Orientation, bandExtent, valueExtent, max float64) (*Layout, Config) {
	cfg := DefaultConfig()
	cfg.Orientation = orientation
	cfg.Text.Mode = TextBoth
	cfg.Text.FontSize = 10
	lay := &Layout{
		Config: cfg,
		Band:   NewBandScale([]string{"A"}, 0, bandExtent, 0, 0),
		Linear: LinearScale{Max: max, Length: valueExtent},
		Colors: NewSingleColorScale("#000000"),
	}
	if orientation == Vertical {
		lay.InnerW, lay.InnerH = bandExtent, valueExtent
	} else {
		lay.InnerW, lay.InnerH = valueExtent, bandExtent
	}
	return lay, cfg
}

func TestBarTextCentersInVerticalBar(t *testing.T) {
	lay, cfg := labelLayout(Vertical, 200, 100, 10)
	lbl := BarText(&Segment{Dim1: "A", Dim2: "P", Num: 5, Text: "5"}, false, lay, cfg, FixedMeasurer{})
	require.Equal(t, "5", lbl.Text)
	assert.Equal(t, AnchorMiddle, lbl.Anchor)
	assert.InDelta(t, 100, lbl.X, 1e-9)
	assert.InDelta(t, 78.5, lbl.Y, 1e-9)
	assert.Equal(t, lightText, lbl.Color)
	assert.Zero(t, lbl.Rotation)
}

func TestBarTextSuppressedWhenBarGapIsOne(t *testing.T) {
	lay, cfg := labelLayout(Vertical, 200, 100, 10)
	cfg.BarGap = 1
	lbl := BarText(&Segment{Dim1: "A", Dim2: "P", Num: 5, Text: "5"}, false, lay, cfg, FixedMeasurer{})
	assert.True(t, lbl.Empty())
}

func TestBarTextSuppressedOnShortBar(t *testing.T) {
	lay, cfg := labelLayout(Vertical, 200, 100, 10)
	lbl := BarText(&Segment{Dim1: "A", Dim2: "P", Num: 0.5, Text: "0.5"}, false, lay, cfg, FixedMeasurer{})
	assert.True(t, lbl.Empty())
}

func TestBarTextPlaceholderHasNoLabel(t *testing.T) {
	lay, cfg := labelLayout(Vertical, 200, 100, 10)
	lbl := BarText(&Segment{Dim1: "A", Dim2: "Q", Text: PlaceholderText, Placeholder: true}, false, lay, cfg, FixedMeasurer{})
	assert.True(t, lbl.Empty())
}

func TestBarTextRotatesInNarrowTallBar(t *testing.T) {
	lay, cfg := labelLayout(Vertical, 20, 200, 10)
	cfg.Text.Rotate = true
	seg := &Segment{Dim1: "A", Dim2: "Revenue", Num: 10, Text: "Revenue"}
	cfg.Text.Bar = ContentDimension

	lbl := BarText(seg, false, lay, cfg, FixedMeasurer{})
	assert.Equal(t, "Revenue", lbl.Text)
	assert.Equal(t, -90.0, lbl.Rotation)
	assert.False(t, lbl.Truncated)

	cfg.Text.Rotate = false
	flat := BarText(seg, false, lay, cfg, FixedMeasurer{})
	assert.Equal(t, "R…", flat.Text)
	assert.True(t, flat.Truncated)
}

func TestBarTextTotals(t *testing.T) {
	lay, cfg := labelLayout(Vertical, 200, 100, 10)
	total := &Segment{Dim1: "A", Dim2: "A", Num: 8, Text: "8"}
	lbl := BarText(total, true, lay, cfg, FixedMeasurer{})
	assert.Equal(t, "8", lbl.Text)
	assert.Equal(t, AnchorMiddle, lbl.Anchor)
	assert.InDelta(t, 17, lbl.Y, 1e-9)
	assert.Equal(t, totalColor, lbl.Color)

	hlay, hcfg := labelLayout(Horizontal, 40, 100, 10)
	long := &Segment{Dim1: "A", Dim2: "A", Num: 8, Text: "a very long total label"}
	hl := BarText(long, true, hlay, hcfg, FixedMeasurer{})
	assert.Equal(t, long.Text, hl.Text, "horizontal totals are not truncated")
	assert.Equal(t, AnchorStart, hl.Anchor)
	assert.InDelta(t, 83, hl.X, 1e-9)
}

func TestLabelColorAuto(t *testing.T) {
	assert.Equal(t, darkText, labelColor(AutoColor, "#ffff00"))
	assert.Equal(t, lightText, labelColor(AutoColor, "#1f77b4"))
	assert.Equal(t, "#123456", labelColor("#123456", "#ffffff"))
}

func TestBarTextPlacement(t *testing.T) {
	const long = "A fairly long label text"
	tests := []struct {
		name        string
		orientation Orientation
		band, value float64
		num         float64
		text        string
		rotate      bool
		alignH      Align
		alignV      Align
		wantX       float64
		wantY       float64
		wantAnchor  Anchor
		wantRot     float64
		wantEmpty   bool
	}{
		{name: "vertical centered", orientation: Vertical, band: 200, value: 100, num: 5, text: "5",
			alignH: AlignCenter, alignV: AlignCenter, wantX: 100, wantY: 78.5, wantAnchor: AnchorMiddle},
		{name: "vertical top left", orientation: Vertical, band: 200, value: 100, num: 5, text: "5",
			alignH: AlignLeft, alignV: AlignTop, wantX: 3, wantY: 61, wantAnchor: AnchorStart},
		{name: "vertical bottom right", orientation: Vertical, band: 200, value: 100, num: 5, text: "5",
			alignH: AlignRight, alignV: AlignBottom, wantX: 197, wantY: 95, wantAnchor: AnchorEnd},
		{name: "vertical wide bar stays upright", orientation: Vertical, band: 200, value: 100, num: 5, text: "5",
			rotate: true, alignH: AlignCenter, alignV: AlignCenter, wantX: 100, wantY: 78.5, wantAnchor: AnchorMiddle},
		{name: "vertical tall bar rotates", orientation: Vertical, band: 20, value: 200, num: 10, text: "Revenue",
			rotate: true, alignH: AlignLeft, alignV: AlignTop, wantX: 13.5, wantY: 100, wantAnchor: AnchorMiddle, wantRot: -90},
		{name: "horizontal centered", orientation: Horizontal, band: 40, value: 200, num: 10, text: long,
			alignH: AlignCenter, alignV: AlignCenter, wantX: 100, wantY: 23.5, wantAnchor: AnchorMiddle},
		{name: "horizontal rotate keeps upright text", orientation: Horizontal, band: 40, value: 200, num: 10, text: long,
			rotate: true, alignH: AlignCenter, alignV: AlignCenter, wantX: 100, wantY: 23.5, wantAnchor: AnchorMiddle},
		{name: "horizontal top left", orientation: Horizontal, band: 40, value: 200, num: 10, text: long,
			rotate: true, alignH: AlignLeft, alignV: AlignTop, wantX: 3, wantY: 11, wantAnchor: AnchorStart},
		{name: "horizontal bottom right", orientation: Horizontal, band: 40, value: 200, num: 10, text: long,
			alignH: AlignRight, alignV: AlignBottom, wantX: 197, wantY: 35, wantAnchor: AnchorEnd},
		{name: "horizontal thin band suppressed", orientation: Horizontal, band: 8, value: 200, num: 10, text: long,
			rotate: true, alignH: AlignCenter, alignV: AlignCenter, wantEmpty: true},
	}

	m := FixedMeasurer{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lay, cfg := labelLayout(tt.orientation, tt.band, tt.value, 10)
			cfg.Text.Rotate = tt.rotate
			cfg.Text.AlignH, cfg.Text.AlignV = tt.alignH, tt.alignV
			seg := &Segment{Dim1: "A", Dim2: "P", Num: tt.num, Text: tt.text}

			lbl := BarText(seg, false, lay, cfg, m)
			if tt.wantEmpty {
				assert.True(t, lbl.Empty())
				return
			}
			require.False(t, lbl.Empty())
			assert.Equal(t, tt.text, lbl.Text)
			assert.False(t, lbl.Truncated)
			assert.Equal(t, tt.wantAnchor, lbl.Anchor)
			assert.Equal(t, tt.wantRot, lbl.Rotation)
			assert.InDelta(t, tt.wantX, lbl.X, 1e-9)
			assert.InDelta(t, tt.wantY, lbl.Y, 1e-9)

			r, ok := segmentRect(lay, "A", 0, tt.num)
			require.True(t, ok)
			extent := m.Measure(lbl.Text, lbl.FontSize)
			if lbl.Rotation == 0 {
				assert.LessOrEqual(t, extent.W, r.W-2*cfg.Text.PadH)
				assert.LessOrEqual(t, extent.H, r.H-2*cfg.Text.PadV)
			} else {
				assert.LessOrEqual(t, extent.W, r.H-2*cfg.Text.PadV)
				assert.LessOrEqual(t, extent.H, r.W-2*cfg.Text.PadH)
			}
		})
	}
}

func TestBarTextHorizontalRotateTruncatesAlongLength(t *testing.T) {
	lay, cfg := labelLayout(Horizontal, 40, 100, 10)
	cfg.Text.Rotate = true
	seg := &Segment{Dim1: "A", Dim2: "P", Num: 10, Text: "A fairly long label text"}

	lbl := BarText(seg, false, lay, cfg, FixedMeasurer{})
	require.False(t, lbl.Empty())
	assert.Zero(t, lbl.Rotation)
	assert.True(t, lbl.Truncated)
	assert.LessOrEqual(t, FixedMeasurer{}.Measure(lbl.Text, lbl.FontSize).W, 94.0)
}

func TestDeltaGeometry(t *testing.T) {
	delta := Delta{Dim1Prev: "A", Dim1Cur: "B", Dim2: "P", Value: -1, PrevNum: 5, CurOffset: 2, CurNum: 4}
	tests := []struct {
		orientation Orientation
		want        []Point
	}{
		{Vertical, []Point{{75, 50}, {125, 40}, {125, 80}, {75, 100}}},
		{Horizontal, []Point{{50, 75}, {60, 125}, {20, 125}, {0, 75}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.orientation), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Orientation = tt.orientation
			cfg.ShowDeltas = true
			lay := &Layout{
				Config: cfg,
				Band:   NewBandScale([]string{"A", "B"}, 0, 200, 0.5, 0.25),
				Linear: LinearScale{Max: 10, Length: 100},
				Colors: NewSingleColorScale("#1f77b4"),
				InnerW: 200,
				InnerH: 100,
			}
			out := deltaElements(RenderContext{Layout: lay, Data: &Dataset{Deltas: []Delta{delta}}})
			require.Len(t, out, 1)
			d := out[0]
			assert.Equal(t, "A-B,P", d.Key)
			assert.Equal(t, KindPolygon, d.Kind)
			assert.Equal(t, cfg.DeltaOpacity, d.Attrs.Opacity)
			require.Len(t, d.Attrs.Points, len(tt.want))
			for i, p := range tt.want {
				assert.InDelta(t, p.X, d.Attrs.Points[i].X, 1e-9, "point %d x", i)
				assert.InDelta(t, p.Y, d.Attrs.Points[i].Y, 1e-9, "point %d y", i)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.ShowDeltas = false
	lay := &Layout{Config: cfg, Band: NewBandScale([]string{"A", "B"}, 0, 200, 0, 0), Linear: LinearScale{Max: 10, Length: 100}}
	assert.Empty(t, deltaElements(RenderContext{Layout: lay, Data: &Dataset{Deltas: []Delta{delta}}}))
}
