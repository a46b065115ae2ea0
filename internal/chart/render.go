package chart

import (
	"fmt"
	"math"
	"time"
)

const (
	axisColor    = "#595959"
	gridColor    = "#d9d9d9"
	tickPad      = 9.0
	scrollPrev   = "scroll|prev"
	scrollNext   = "scroll|next"
	scrollStatus = "scroll|page"
)

// RenderContext is everything the renderer reads for one pass.
type RenderContext struct {
	Data       *Dataset
	Layout     *Layout
	Measurer   TextMeasurer
	Generation int
	LegendPage int
	Now        time.Time
	Timing     Timing
}

// RenderStats reports the reconcile result of every layer.
type RenderStats map[Layer]ReconcileStats

// BarKey identifies a bar and its in-bar label for one data generation.
func BarKey(generation int, dim1, dim2 string) string {
	return fmt.Sprintf("g%d|%s|%s", generation, dim1, dim2)
}

// TickKey identifies a measure axis tick.
func TickKey(v float64) string {
	return "tick|" + fmt.Sprint(v)
}

// CreateBars inserts every element at its zero-size, zero-opacity enter state.
func CreateBars(s *Scene, rc RenderContext) {
	for _, l := range layerOrder {
		for _, d := range desiredLayer(l, rc) {
			s.Insert(l, d, rc.Now)
		}
	}
}

// UpdateBars computes the targets of every layer and reconciles the scene
// against them.
func UpdateBars(s *Scene, rc RenderContext) RenderStats {
	stats := RenderStats{}
	for _, l := range layerOrder {
		stats[l] = s.Reconcile(l, desiredLayer(l, rc), rc.Now, rc.Timing)
	}
	return stats
}

func desiredLayer(l Layer, rc RenderContext) []Desired {
	if rc.Layout == nil || rc.Data == nil {
		return nil
	}
	if rc.Measurer == nil {
		rc.Measurer = FixedMeasurer{}
	}
	switch l {
	case LayerAxes:
		return axisElements(rc)
	case LayerDeltas:
		return deltaElements(rc)
	case LayerBars:
		return barElements(rc)
	case LayerLabels:
		return labelElements(rc)
	case LayerTotals:
		return totalElements(rc)
	case LayerLegend:
		return legendElements(rc)
	}
	return nil
}

func barElements(rc RenderContext) []Desired {
	lay := rc.Layout
	out := make([]Desired, 0, len(rc.Data.Flat))
	for _, seg := range rc.Data.Flat {
		if seg.Placeholder {
			continue
		}
		r, ok := segmentRect(lay, seg.Dim1, seg.Offset, seg.Num)
		if !ok {
			continue
		}
		target := Attrs{X: r.X, Y: r.Y, W: r.W, H: r.H, Opacity: 1, Fill: lay.Colors.Color(seg.Dim2)}
		enter := target
		enter.Opacity = 0
		if lay.Vertical() {
			enter.Y = r.Y + r.H
			enter.H = 0
		} else {
			enter.W = 0
		}
		out = append(out, Desired{
			Key:   BarKey(rc.Generation, seg.Dim1, seg.Dim2),
			Kind:  KindRect,
			Class: "bar",
			Title: describe(seg),
			Ref:   Ref{Dim1: seg.Dim1, Dim2: seg.Dim2, Elem: seg.Elem},
			Attrs: target,
			Enter: &enter,
		})
	}
	return out
}

func labelElements(rc RenderContext) []Desired {
	cfg := rc.Layout.Config
	if !cfg.Text.BarLabels() {
		return nil
	}
	var out []Desired
	for _, seg := range rc.Data.Flat {
		lbl := BarText(seg, false, rc.Layout, cfg, rc.Measurer)
		if lbl.Empty() {
			continue
		}
		out = append(out, Desired{
			Key:   BarKey(rc.Generation, seg.Dim1, seg.Dim2),
			Kind:  KindText,
			Class: "label",
			Ref:   Ref{Dim1: seg.Dim1, Dim2: seg.Dim2, Elem: seg.Elem},
			Attrs: labelAttrs(lbl),
		})
	}
	return out
}

func labelAttrs(l Label) Attrs {
	return Attrs{
		X: l.X, Y: l.Y, Text: l.Text, FontSize: l.FontSize, Fill: l.Color,
		Anchor: l.Anchor, Rotation: l.Rotation, Opacity: 1,
	}
}

// totalSegment is the synthetic record the label engine uses for totals.
func totalSegment(c *Category, normalized bool) *Segment {
	return &Segment{
		Dim1: c.Dim1,
		Dim2: c.Dim1,
		Num:  c.Offset,
		Text: formatTotal(c.Offset, normalized),
		Elem: ElemKey{Dim1: c.Elem, Dim2: NotSelectable},
	}
}

func totalElements(rc RenderContext) []Desired {
	lay := rc.Layout
	cfg := lay.Config
	if !cfg.Text.TotalLabels() {
		return nil
	}
	var out []Desired
	for _, c := range rc.Data.Categories {
		seg := totalSegment(c, rc.Data.Normalized)
		lbl := BarText(seg, true, lay, cfg, rc.Measurer)
		if lbl.Empty() {
			continue
		}
		target := labelAttrs(lbl)
		enter := target
		enter.Opacity = 0
		if lay.Vertical() {
			enter.Y = lay.InnerH
		} else {
			enter.X = 0
		}
		out = append(out, Desired{
			Key:   c.Dim1,
			Kind:  KindText,
			Class: "total",
			Ref:   Ref{Dim1: c.Dim1, Elem: seg.Elem},
			Attrs: target,
			Enter: &enter,
		})
	}
	return out
}

func deltaElements(rc RenderContext) []Desired {
	lay := rc.Layout
	if !lay.Config.ShowDeltas || len(rc.Data.Deltas) == 0 {
		return nil
	}
	out := make([]Desired, 0, len(rc.Data.Deltas))
	bw := lay.Band.Bandwidth()
	for _, d := range rc.Data.Deltas {
		prev, ok1 := lay.Band.Pos(d.Dim1Prev)
		cur, ok2 := lay.Band.Pos(d.Dim1Cur)
		if !ok1 || !ok2 {
			continue
		}
		p0, p1 := lay.Linear.Scale(d.PrevOffset), lay.Linear.Scale(d.PrevOffset+d.PrevNum)
		c0, c1 := lay.Linear.Scale(d.CurOffset), lay.Linear.Scale(d.CurOffset+d.CurNum)
		var pts []Point
		if lay.Vertical() {
			h := lay.InnerH
			pts = []Point{{prev + bw, h - p1}, {cur, h - c1}, {cur, h - c0}, {prev + bw, h - p0}}
		} else {
			pts = []Point{{p1, prev + bw}, {c1, cur}, {c0, cur}, {p0, prev + bw}}
		}
		out = append(out, Desired{
			Key:   d.Key(),
			Kind:  KindPolygon,
			Class: "delta",
			Title: fmt.Sprintf("%s: %s → %s %s", d.Dim2, d.Dim1Prev, d.Dim1Cur, signed(d.Value)),
			Ref:   Ref{Dim1: d.Dim1Cur, Dim2: d.Dim2},
			Attrs: Attrs{Points: pts, Fill: lay.Colors.Color(d.Dim2), Opacity: lay.Config.DeltaOpacity},
		})
	}
	return out
}

func signed(v float64) string {
	if v > 0 {
		return "+" + formatNumber(v)
	}
	return formatNumber(v)
}

func legendElements(rc RenderContext) []Desired {
	lay := rc.Layout
	lg := lay.Legend
	if !lg.Used {
		return nil
	}
	page := rc.LegendPage
	if page >= lg.Pages {
		page = lg.Pages - 1
	}
	if page < 0 {
		page = 0
	}
	var out []Desired
	for _, item := range lg.Items {
		if item.Page != page {
			continue
		}
		elem := ElemKey{Dim1: NotSelectable, Dim2: NotSelectable}
		if id, ok := rc.Data.Dim2Elems[item.Label]; ok && rc.Data.TwoDim {
			elem = ElemKey{Dim1: NotSelectable, Dim2: id, Paired: true}
		}
		out = append(out, Desired{
			Key:   item.Label,
			Kind:  KindSwatch,
			Class: "legend",
			Title: item.Label,
			Ref:   Ref{Dim2: item.Label, Elem: elem, Legend: true},
			Attrs: Attrs{
				X: item.X, Y: item.Y, W: lg.Swatch, H: lg.Swatch,
				Fill: item.Color, Text: item.Text, FontSize: lg.FontSize, Opacity: 1,
			},
		})
	}
	if !lg.Scroll {
		return out
	}
	var prevX, prevY, nextX, nextY float64
	prevGlyph, nextGlyph := "▲", "▼"
	switch lg.Position {
	case LegendLeft, LegendRight:
		prevX, prevY = lg.X+lg.W/2-lg.FontSize, lg.Y+lg.H-lg.FontSize*0.2
		nextX, nextY = lg.X+lg.W/2+lg.FontSize, prevY
	default:
		prevGlyph, nextGlyph = "◀", "▶"
		prevX, prevY = lg.X+lg.W-legendScrollAllowance, lg.Y+lg.FontSize
		nextX, nextY = lg.X+lg.W-legendScrollAllowance/3, prevY
	}
	status := fmt.Sprintf("%d/%d", page+1, lg.Pages)
	arrow := func(key, glyph string, x, y float64, enabled bool) Desired {
		op := 1.0
		if !enabled {
			op = 0.3
		}
		return Desired{
			Key: key, Kind: KindText, Class: "legend-scroll",
			Attrs: Attrs{X: x, Y: y, Text: glyph, FontSize: lg.FontSize, Fill: axisColor, Anchor: AnchorMiddle, Opacity: op},
		}
	}
	out = append(out,
		arrow(scrollPrev, prevGlyph, prevX, prevY, page > 0),
		arrow(scrollNext, nextGlyph, nextX, nextY, page < lg.Pages-1),
	)
	if lg.Position == LegendLeft || lg.Position == LegendRight {
		out = append(out, Desired{
			Key: scrollStatus, Kind: KindText, Class: "legend-scroll",
			Attrs: Attrs{X: lg.X + lg.W/2, Y: prevY - lg.FontSize*1.2, Text: status, FontSize: lg.FontSize * 0.8, Fill: axisColor, Anchor: AnchorMiddle, Opacity: 1},
		})
	}
	return out
}

func axisElements(rc RenderContext) []Desired {
	lay := rc.Layout
	cfg := lay.Config
	font := cfg.FontSize
	var out []Desired
	vertical := lay.Vertical()
	w, h := lay.InnerW, lay.InnerH

	if vertical {
		out = append(out,
			domainLine("domain|dim", 0, h, w, h),
			domainLine("domain|measure", 0, 0, 0, h))
	} else {
		out = append(out,
			domainLine("domain|dim", 0, 0, 0, h),
			domainLine("domain|measure", 0, h, w, h))
	}

	ma := lay.MeasureAxis
	for _, v := range ma.Ticks {
		pos := lay.Linear.Scale(v)
		a := Attrs{Stroke: tickStroke(ma.TickSize), FontSize: font, Fill: axisColor, Opacity: 1}
		if vertical {
			y := h - pos
			a.X, a.Y, a.X2, a.Y2 = 0, y, -ma.TickSize, y
			a.TextX, a.TextY = -tickPad, y+font*baselineCenter
			a.Anchor = AnchorEnd
		} else {
			a.X, a.Y, a.X2, a.Y2 = pos, h, pos, h+ma.TickSize
			a.TextX, a.TextY = pos, h+tickPad+font*baselineTop
			a.Anchor = AnchorMiddle
		}
		if ma.Config.ShowLabels() {
			a.Text = ma.Format(v)
		}
		out = append(out, Desired{Key: TickKey(v), Kind: KindTick, Class: "tick", Attrs: a})
	}

	da := lay.DimAxis
	if da.Config.ShowLabels() {
		out = append(out, dimLabels(rc)...)
	}
	if t, ok := axisTitle("title|dim", da, vertical, true, lay, rc.Measurer); ok {
		out = append(out, t)
	}
	if t, ok := axisTitle("title|measure", ma, vertical, false, lay, rc.Measurer); ok {
		out = append(out, t)
	}
	return out
}

func tickStroke(size float64) string {
	if size < 0 {
		return gridColor
	}
	return axisColor
}

func domainLine(key string, x1, y1, x2, y2 float64) Desired {
	return Desired{
		Key: key, Kind: KindLine, Class: "domain",
		Attrs: Attrs{X: x1, Y: y1, X2: x2, Y2: y2, Stroke: axisColor, Opacity: 1},
	}
}

func dimLabels(rc RenderContext) []Desired {
	lay := rc.Layout
	da := lay.DimAxis
	font := lay.Config.FontSize
	bw, step := lay.Band.Bandwidth(), lay.Band.Step()
	h := lay.InnerH
	var out []Desired
	for i, c := range rc.Data.Categories {
		pos, ok := lay.Band.Pos(c.Dim1)
		if !ok {
			continue
		}
		center := pos + bw/2
		a := Attrs{Stroke: tickStroke(da.TickSize), FontSize: font, Fill: axisColor, Opacity: 1}
		var avail float64
		if lay.Vertical() {
			a.X, a.Y, a.X2, a.Y2 = center, h, center, h+da.TickSize
			a.TextX, a.TextY = center, h+tickPad+font*baselineTop
			a.Anchor = AnchorMiddle
			avail = step
			switch da.Config.LabelStyle {
			case LabelStaggered:
				avail = 2 * step
				if i%2 == 1 {
					a.TextY += font * 1.2
				}
			case LabelTilted:
				a.Anchor = AnchorEnd
				a.Rotation = -45
				a.TextY = h + tickPad
				avail = (da.Depth - tickPad) * math.Sqrt2
			}
		} else {
			a.X, a.Y, a.X2, a.Y2 = 0, center, -da.TickSize, center
			a.TextX, a.TextY = -tickPad, center+font*baselineCenter
			a.Anchor = AnchorEnd
			avail = da.Depth - tickPad - 3
		}
		a.Text, _ = FitText(rc.Measurer, c.Dim1, font, avail, true)
		out = append(out, Desired{
			Key: "dim|" + c.Dim1, Kind: KindTick, Class: "dim-label",
			Ref:   Ref{Dim1: c.Dim1, Elem: ElemKey{Dim1: c.Elem, Dim2: NotSelectable}},
			Attrs: a,
		})
	}
	return out
}

func axisTitle(key string, ax AxisLayout, vertical, categorical bool, lay *Layout, m TextMeasurer) (Desired, bool) {
	if !ax.Config.ShowTitle() {
		return Desired{}, false
	}
	font := lay.Config.FontSize
	a := Attrs{Text: ax.Config.Title, FontSize: font, Fill: axisColor, Anchor: AnchorMiddle, Opacity: 1}
	// bottom axis when categorical and vertical, or magnitude and horizontal
	if categorical == vertical {
		a.X = lay.InnerW / 2
		a.Y = lay.InnerH + ax.Depth - font*baselineBottom
	} else {
		a.X = -ax.Depth + font
		a.Y = lay.InnerH / 2
		a.Rotation = -90
	}
	avail := lay.InnerW
	if a.Rotation != 0 {
		avail = lay.InnerH
	}
	a.Text, _ = FitText(m, a.Text, font, avail, true)
	return Desired{Key: key, Kind: KindText, Class: "axis-title", Attrs: a}, true
}
