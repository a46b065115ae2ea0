package chart

import (
	"math"
	"strconv"
	"strings"
)

// Ellipsis is appended to shortened labels.
const Ellipsis = "…"

const (
	darkText       = "#333333"
	lightText      = "#ffffff"
	totalColor     = "#595959"
	proportionalK  = 0.4
	baselineCenter = 0.35
	baselineTop    = 0.8
	baselineBottom = 0.2
)

// Anchor is the SVG text-anchor of a label.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Label is the computed text of one segment or total, in plot coordinates.
// A rotated label turns around (X, Y).
type Label struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Text      string  `json:"text"`
	Rotation  float64 `json:"rotation"`
	Truncated bool    `json:"truncated"`
	Anchor    Anchor  `json:"anchor"`
	FontSize  float64 `json:"fontSize"`
	Color     string  `json:"color"`
}

// Empty reports whether nothing would be drawn.
func (l Label) Empty() bool { return l.Text == "" }

// FitText returns text unchanged when it fits avail. Otherwise it returns ""
// when ellipsis is off, or drops one rune at a time and appends an ellipsis
// until the result fits.
func FitText(m TextMeasurer, text string, size, avail float64, ellipsis bool) (string, bool) {
	if text == "" {
		return "", false
	}
	if m.Measure(text, size).W <= avail {
		return text, false
	}
	if !ellipsis {
		return "", true
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		cand := strings.TrimRight(string(runes[:n]), " ") + Ellipsis
		if m.Measure(cand, size).W <= avail {
			return cand, true
		}
	}
	return "", true
}

// rect is a bar in plot coordinates.
type rect struct {
	X, Y, W, H float64
}

func (r rect) cx() float64 { return r.X + r.W/2 }
func (r rect) cy() float64 { return r.Y + r.H/2 }

// segmentRect places a stacked piece inside the plot.
func segmentRect(lay *Layout, dim1 string, offset, num float64) (rect, bool) {
	pos, ok := lay.Band.Pos(dim1)
	if !ok {
		return rect{}, false
	}
	bw := lay.Band.Bandwidth()
	start := lay.Linear.Scale(offset)
	length := nonNegative(lay.Linear.Scale(offset+num) - start)
	if lay.Vertical() {
		return rect{X: pos, Y: nonNegative(lay.InnerH - start - length), W: bw, H: length}, true
	}
	return rect{X: start, Y: pos, W: length, H: bw}, true
}

// labelFontSize applies the size policy.
func labelFontSize(lay *Layout, cfg TextConfig) float64 {
	if cfg.SizePolicy != SizeProportional {
		return cfg.FontSize
	}
	size := lay.Band.Bandwidth() * proportionalK
	if cfg.MaxSize > 0 && size > cfg.MaxSize {
		size = cfg.MaxSize
	}
	return nonNegative(size)
}

// BarText computes the label of a segment, or of a category total when total
// is set. Totals are passed as a synthetic segment whose Num is the stack
// height and whose Text is already formatted.
func BarText(seg *Segment, total bool, lay *Layout, cfg Config, m TextMeasurer) Label {
	if seg == nil || lay == nil || lay.Band == nil {
		return Label{}
	}
	if cfg.BarGap == 1 {
		return Label{}
	}
	tc := cfg.Text
	size := labelFontSize(lay, tc)
	if size <= 0 {
		return Label{}
	}
	if total {
		return totalText(seg, lay, tc, size, m)
	}
	if seg.Placeholder || seg.Num <= 0 {
		return Label{}
	}
	text := barContent(seg, tc.Bar)
	if text == "" {
		return Label{}
	}
	r, ok := segmentRect(lay, seg.Dim1, seg.Offset, seg.Num)
	if !ok {
		return Label{}
	}
	lbl := Label{FontSize: size, Color: labelColor(tc.Color, lay.Colors.Color(seg.Dim2))}
	fontH := m.Measure(text, size).H
	ellipsis := !tc.NoEllipsis

	// Rotated text runs along a vertical bar. Horizontal bars already read
	// along their length, so they keep upright text.
	if tc.Rotate && lay.Vertical() && r.W >= fontH+2*tc.PadH && r.H-2*tc.PadV > r.W-2*tc.PadH {
		fitted, cut := fitRotated(m, text, size, r.H-2*tc.PadV, ellipsis)
		if fitted == "" {
			return Label{}
		}
		lbl.Text, lbl.Truncated = fitted, cut
		lbl.Anchor = AnchorMiddle
		lbl.Rotation = -90
		lbl.X, lbl.Y = r.cx()+size*baselineCenter, r.cy()
		return lbl
	}

	availW, availH := r.W-2*tc.PadH, r.H-2*tc.PadV
	if fontH > availH || availW <= 0 {
		return Label{}
	}
	fitted, cut := FitText(m, text, size, availW, ellipsis)
	if fitted == "" {
		return Label{}
	}
	lbl.Text, lbl.Truncated = fitted, cut
	switch tc.AlignH {
	case AlignLeft:
		lbl.X, lbl.Anchor = r.X+tc.PadH, AnchorStart
	case AlignRight:
		lbl.X, lbl.Anchor = r.X+r.W-tc.PadH, AnchorEnd
	default:
		lbl.X, lbl.Anchor = r.cx(), AnchorMiddle
	}
	switch tc.AlignV {
	case AlignTop:
		lbl.Y = r.Y + tc.PadV + size*baselineTop
	case AlignBottom:
		lbl.Y = r.Y + r.H - tc.PadV - size*baselineBottom
	default:
		lbl.Y = r.cy() + size*baselineCenter
	}
	return lbl
}

// fitRotated trims by the average rune width before measuring again.
func fitRotated(m TextMeasurer, text string, size, avail float64, ellipsis bool) (string, bool) {
	w := m.Measure(text, size).W
	if w <= avail {
		return text, false
	}
	if !ellipsis {
		return "", true
	}
	runes := []rune(text)
	ratio := w / float64(len(runes))
	dots := m.Measure(Ellipsis, size).W
	if ratio > 0 {
		keep := int(math.Floor((avail - dots) / ratio))
		if keep > 0 && keep < len(runes) {
			text = string(runes[:keep]) + Ellipsis
		}
	}
	fitted, _ := FitText(m, text, size, avail, true)
	return fitted, true
}

func totalText(seg *Segment, lay *Layout, tc TextConfig, size float64, m TextMeasurer) Label {
	text := seg.Text
	if tc.Total == ContentDimension {
		text = seg.Dim1
	}
	if text == "" {
		return Label{}
	}
	pos, ok := lay.Band.Pos(seg.Dim1)
	if !ok {
		return Label{}
	}
	bw := lay.Band.Bandwidth()
	end := lay.Linear.Scale(seg.Num)
	color := tc.Color
	if color == "" || color == AutoColor {
		color = totalColor
	}
	lbl := Label{FontSize: size, Color: color}
	if lay.Vertical() {
		fitted, cut := FitText(m, text, size, bw, !tc.NoEllipsis)
		if fitted == "" {
			return Label{}
		}
		lbl.Text, lbl.Truncated = fitted, cut
		lbl.Anchor = AnchorMiddle
		lbl.X = pos + bw/2
		lbl.Y = nonNegative(lay.InnerH - end - tc.PadV)
		return lbl
	}
	lbl.Text = text
	lbl.Anchor = AnchorStart
	lbl.X = end + tc.PadH
	lbl.Y = pos + bw/2 + size*baselineCenter
	return lbl
}

func barContent(seg *Segment, c Content) string {
	switch c {
	case ContentDimension:
		return seg.Dim2
	case ContentPercent:
		if seg.TextPct != "" {
			return seg.TextPct
		}
	}
	return seg.Text
}

// labelColor resolves "Auto" to a color readable on the bar.
func labelColor(configured, bar string) string {
	if configured != "" && configured != AutoColor {
		return configured
	}
	if luminance(bar) > 0.35 {
		return darkText
	}
	return lightText
}

// luminance returns the relative luminance of a #rgb or #rrggbb color, or 1
// when it cannot be parsed.
func luminance(hex string) float64 {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 1
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 1
	}
	channel := func(c uint64) float64 {
		s := float64(c) / 255
		if s <= 0.03928 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	r, g, b := channel(v>>16&0xff), channel(v>>8&0xff), channel(v&0xff)
	return 0.2126*r + 0.7152*g + 0.0722*b
}
