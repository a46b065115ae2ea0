package chart

import (
	"math"
)

// Legend thresholds: below these inner plot sizes the legend is not drawn.
const (
	SideLegendMinWidth    = 200.0
	SideLegendMinHeight   = 100.0
	StackLegendMinHeight  = 150.0
	StackLegendMinWidth   = 100.0
	plotPad               = 10.0
	axisTitleDepth        = 18.0
	legendGap             = 5.0
	legendScrollAllowance = 30.0
)

var axisMargins = map[Size]float64{SizeWide: 80, SizeMedium: 55, SizeNarrow: 35}

var legendSideFractions = map[Size]float64{SizeWide: 0.25, SizeMedium: 0.18, SizeNarrow: 0.12}

var legendItemWidths = map[Size]float64{SizeWide: 150, SizeMedium: 110, SizeNarrow: 75}

var legendSpacing = map[Size]float64{SizeWide: 2.0, SizeMedium: 1.6, SizeNarrow: 1.3}

// Margins surround the plot area.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// LegendItem is one entry of the legend.
type LegendItem struct {
	Label string
	Text  string
	Color string
	X     float64
	Y     float64
	Page  int
}

// LegendLayout is the computed legend block. Used is false when the plot is
// too small to host it.
type LegendLayout struct {
	Used       bool
	Position   LegendPosition
	X          float64
	Y          float64
	W          float64
	H          float64
	ItemWidth  float64
	ItemHeight float64
	TextWidth  float64
	Swatch     float64
	FontSize   float64
	Items      []LegendItem
	Visible    int
	Scroll     bool
	Pages      int
}

// AxisLayout holds the resolved formatting of one axis.
type AxisLayout struct {
	Config   AxisConfig
	Format   Formatter
	Ticks    []float64
	TickSize float64
	Depth    float64
}

// Layout is the output of the planner consumed by the renderer and the label engine.
type Layout struct {
	Config      Config
	Width       float64
	Height      float64
	Margin      Margins
	InnerW      float64
	InnerH      float64
	Band        *BandScale
	Linear      LinearScale
	Colors      *ColorScale
	Legend      LegendLayout
	DimAxis     AxisLayout
	MeasureAxis AxisLayout
}

// Vertical reports whether bars are columns.
func (l *Layout) Vertical() bool { return l.Config.Orientation != Horizontal }

// PlanInput bundles everything the planner needs.
type PlanInput struct {
	Config   Config
	Data     *Dataset
	Width    float64
	Height   float64
	Palette  []string
	Measurer TextMeasurer
	Scene    *Scene
}

// PlanLayout computes margins, scales and the legend block. It resets the
// scene and the text measurer, so every element is rebuilt afterwards.
func PlanLayout(in PlanInput) *Layout {
	cfg := in.Config.WithDefaults()
	if in.Scene != nil {
		in.Scene.Reset()
	}
	if in.Measurer != nil {
		in.Measurer.Reset()
	}
	m := in.Measurer
	if m == nil {
		m = FixedMeasurer{}
	}
	ds := in.Data
	if ds == nil {
		ds = &Dataset{}
	}

	width, height := nonNegative(in.Width), nonNegative(in.Height)
	lay := &Layout{Config: cfg, Width: width, Height: height}

	dimDepth := axisDepth(cfg.DimAxis, true)
	measureDepth := axisDepth(cfg.MeasureAxis, false)
	lay.Margin = Margins{Top: plotPad, Right: plotPad, Bottom: plotPad, Left: plotPad}
	if cfg.Orientation == Horizontal {
		lay.Margin.Left = dimDepth
		lay.Margin.Bottom = measureDepth
		if cfg.Text.TotalLabels() {
			lay.Margin.Right += cfg.Text.FontSize * 3
		}
	} else {
		lay.Margin.Left = measureDepth
		lay.Margin.Bottom = dimDepth
		if cfg.Text.TotalLabels() {
			lay.Margin.Top += cfg.Text.FontSize + cfg.Text.PadV
		}
	}
	lay.DimAxis.Depth = dimDepth
	lay.MeasureAxis.Depth = measureDepth
	lay.InnerW = nonNegative(width - lay.Margin.Left - lay.Margin.Right)
	lay.InnerH = nonNegative(height - lay.Margin.Top - lay.Margin.Bottom)

	if cfg.SingleColor {
		color := cfg.Color
		if color == "" && len(in.Palette) > 0 {
			color = in.Palette[0]
		}
		lay.Colors = NewSingleColorScale(color)
	} else {
		lay.Colors = NewColorScale(ds.Dim2Order, in.Palette)
	}

	if cfg.Legend.Show && len(ds.Dim2Order) > 0 {
		lay.Legend = planLegend(cfg, width, lay.InnerW, lay.InnerH, len(ds.Dim2Order), m)
		if lay.Legend.Used {
			placeLegend(lay)
			fillLegendItems(lay, ds.Dim2Order, m)
		}
	}

	labels := make([]string, 0, len(ds.Categories))
	for _, c := range ds.Categories {
		labels = append(labels, c.Dim1)
	}
	bandExtent, valueExtent := lay.InnerW, lay.InnerH
	if cfg.Orientation == Horizontal {
		bandExtent, valueExtent = lay.InnerH, lay.InnerW
	}
	lay.Band = NewBandScale(labels, 0, bandExtent, cfg.BarGap, cfg.OuterGap)
	lay.Linear = LinearScale{Max: maxGrid(ds, cfg), Length: valueExtent}

	lay.MeasureAxis.Config = cfg.MeasureAxis
	lay.MeasureAxis.Format = NewFormatter(cfg.MeasureAxis.Format, cfg.MeasureAxis.FormatString)
	lay.MeasureAxis.Ticks = lay.Linear.Ticks(cfg.MeasureAxis.Ticks)
	lay.MeasureAxis.TickSize = tickSize(cfg.MeasureAxis.Gridlines, bandExtent)
	lay.DimAxis.Config = cfg.DimAxis
	lay.DimAxis.Format = NewFormatter(cfg.DimAxis.Format, cfg.DimAxis.FormatString)
	lay.DimAxis.TickSize = tickSize(cfg.DimAxis.Gridlines, valueExtent)
	return lay
}

func tickSize(gridlines bool, extent float64) float64 {
	if gridlines {
		return -extent
	}
	return 6
}

func axisDepth(a AxisConfig, categorical bool) float64 {
	depth := 5.0
	if a.ShowLabels() {
		depth = axisMargins[a.Margin]
		if depth == 0 {
			depth = axisMargins[SizeMedium]
		}
		if categorical && a.LabelStyle == LabelTilted {
			depth *= 1.5
		}
	}
	if a.ShowTitle() {
		depth += axisTitleDepth
	}
	return depth
}

// maxGrid returns the upper bound of the magnitude domain.
func maxGrid(ds *Dataset, cfg Config) float64 {
	if ds.Normalized {
		return 1
	}
	var top float64
	for _, c := range ds.Categories {
		v := c.Offset
		if v < 0 {
			// a negative stack total falls back to the largest child value
			v = 0
			for _, s := range c.Segments {
				if s.Num > v {
					v = s.Num
				}
			}
		}
		if v > top {
			top = v
		}
	}
	grid := cfg.GridHeight
	if grid <= 0 {
		grid = 1
	}
	return nonNegative(top * grid)
}

// planLegend sizes the legend block for the inner plot size before the
// legend is carved out of it.
func planLegend(cfg Config, width, innerW, innerH float64, items int, m TextMeasurer) LegendLayout {
	font := cfg.FontSize
	lg := LegendLayout{
		Position:   cfg.Legend.Position,
		FontSize:   font,
		Swatch:     font * 0.9,
		ItemHeight: font * legendSpacing[cfg.Legend.Spacing],
	}
	if lg.ItemHeight <= 0 {
		lg.ItemHeight = font * legendSpacing[SizeMedium]
	}
	switch cfg.Legend.Position {
	case LegendLeft, LegendRight:
		if innerW <= SideLegendMinWidth || innerH <= SideLegendMinHeight {
			return LegendLayout{Position: cfg.Legend.Position}
		}
		frac := legendSideFractions[cfg.Legend.Size]
		if frac == 0 {
			frac = legendSideFractions[SizeMedium]
		}
		lg.W = math.Floor(width * frac)
		lg.H = innerH
		lg.ItemWidth = lg.W
		lg.TextWidth = nonNegative(lg.W - lg.Swatch - 2*legendGap)
		capacity := int(innerH / lg.ItemHeight)
		lg.Visible, lg.Scroll = fitItems(items, capacity, int((innerH-lg.ItemHeight)/lg.ItemHeight))
	default:
		if innerH <= StackLegendMinHeight || innerW <= StackLegendMinWidth {
			return LegendLayout{Position: cfg.Legend.Position}
		}
		lg.ItemWidth = legendItemWidths[cfg.Legend.Size]
		if lg.ItemWidth == 0 {
			lg.ItemWidth = legendItemWidths[SizeMedium]
		}
		lg.W = innerW
		lg.H = lg.ItemHeight + legendGap
		lg.TextWidth = nonNegative(lg.ItemWidth - lg.Swatch - 2*legendGap)
		capacity := int(innerW / lg.ItemWidth)
		lg.Visible, lg.Scroll = fitItems(items, capacity, int((innerW-legendScrollAllowance)/lg.ItemWidth))
	}
	lg.Used = true
	lg.Pages = 1
	if lg.Visible > 0 {
		lg.Pages = (items + lg.Visible - 1) / lg.Visible
	}
	return lg
}

// fitItems returns how many entries fit per page and whether paging is needed.
func fitItems(items, capacity, withScroll int) (int, bool) {
	if items <= capacity {
		return items, false
	}
	if withScroll < 1 {
		withScroll = 1
	}
	return withScroll, true
}

func placeLegend(lay *Layout) {
	lg := &lay.Legend
	switch lg.Position {
	case LegendRight:
		lay.Margin.Right += lg.W
		lay.InnerW = nonNegative(lay.InnerW - lg.W)
		lg.X = lay.Width - lg.W
		lg.Y = lay.Margin.Top
	case LegendLeft:
		lg.X = 0
		lg.Y = lay.Margin.Top
		lay.Margin.Left += lg.W
		lay.InnerW = nonNegative(lay.InnerW - lg.W)
	case LegendTop:
		lg.X = lay.Margin.Left
		lg.Y = 0
		lay.Margin.Top += lg.H
		lay.InnerH = nonNegative(lay.InnerH - lg.H)
	default:
		lg.X = lay.Margin.Left
		lay.Margin.Bottom += lg.H
		lay.InnerH = nonNegative(lay.InnerH - lg.H)
		lg.Y = lay.Height - lg.H
	}
}

func fillLegendItems(lay *Layout, labels []string, m TextMeasurer) {
	lg := &lay.Legend
	lg.Items = make([]LegendItem, 0, len(labels))
	for i, label := range labels {
		slot, page := i, 0
		if lg.Visible > 0 {
			slot, page = i%lg.Visible, i/lg.Visible
		}
		text, _ := FitText(m, label, lg.FontSize, lg.TextWidth, true)
		item := LegendItem{Label: label, Text: text, Color: lay.Colors.Color(label), Page: page}
		switch lg.Position {
		case LegendLeft, LegendRight:
			item.X = lg.X + legendGap
			item.Y = lg.Y + float64(slot)*lg.ItemHeight
		default:
			item.X = lg.X + float64(slot)*lg.ItemWidth
			item.Y = lg.Y + legendGap/2
		}
		lg.Items = append(lg.Items, item)
	}
}
