package chart

import (
	"math"
)

// BandScale maps category labels to evenly spaced pixel bands.
type BandScale struct {
	domain    []string
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBandScale lays out the domain over [r0, r1] with the given inner and
// outer padding fractions.
func NewBandScale(domain []string, r0, r1, paddingInner, paddingOuter float64) *BandScale {
	b := &BandScale{domain: domain, index: make(map[string]int, len(domain))}
	for i, d := range domain {
		if _, ok := b.index[d]; !ok {
			b.index[d] = i
		}
	}
	n := float64(len(domain))
	paddingInner = clampUnit(paddingInner)
	paddingOuter = clampUnit(paddingOuter)
	extent := finite(r1 - r0)
	b.step = extent / math.Max(1, n-paddingInner+paddingOuter*2)
	b.start = r0 + (extent-b.step*(n-paddingInner))*0.5
	b.bandwidth = nonNegative(b.step * (1 - paddingInner))
	b.step = nonNegative(b.step)
	return b
}

// Pos returns the start of the band for label and whether it is known.
func (b *BandScale) Pos(label string) (float64, bool) {
	i, ok := b.index[label]
	if !ok {
		return 0, false
	}
	return finite(b.start + b.step*float64(i)), true
}

// Bandwidth returns the thickness of one band.
func (b *BandScale) Bandwidth() float64 { return b.bandwidth }

// Step returns the distance between two band starts.
func (b *BandScale) Step() float64 { return b.step }

// Domain returns the labels in order.
func (b *BandScale) Domain() []string { return b.domain }

// LinearScale maps stacked values in [0, Max] to pixel lengths in [0, Length].
type LinearScale struct {
	Max    float64
	Length float64
}

// Scale converts a value to a pixel length. Non-finite or negative results
// are clamped to zero.
func (l LinearScale) Scale(v float64) float64 {
	if l.Max <= 0 || math.IsNaN(l.Max) || math.IsInf(l.Max, 0) {
		return 0
	}
	return nonNegative(v / l.Max * l.Length)
}

// Ticks returns roughly count round values spanning the domain.
func (l LinearScale) Ticks(count int) []float64 {
	if count <= 0 || l.Max <= 0 || math.IsNaN(l.Max) || math.IsInf(l.Max, 0) {
		return nil
	}
	step := tickStep(0, l.Max, count)
	if step <= 0 {
		return nil
	}
	var out []float64
	for i := 0; ; i++ {
		v := float64(i) * step
		if v > l.Max*(1+1e-9) {
			break
		}
		out = append(out, roundTick(v, step))
	}
	return out
}

func tickStep(start, stop float64, count int) float64 {
	raw := (stop - start) / math.Max(1, float64(count))
	power := math.Floor(math.Log10(raw))
	base := math.Pow(10, power)
	err := raw / base
	switch {
	case err >= math.Sqrt(50):
		base *= 10
	case err >= math.Sqrt(10):
		base *= 5
	case err >= math.Sqrt(2):
		base *= 2
	}
	return base
}

func roundTick(v, step float64) float64 {
	decimals := -math.Floor(math.Log10(step))
	if decimals <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, decimals)
	return math.Round(v*p) / p
}

// ColorScale maps secondary labels to colors.
type ColorScale struct {
	single  string
	palette []string
	index   map[string]int
}

// NewColorScale keys the palette by the global secondary order.
func NewColorScale(order []string, palette []string) *ColorScale {
	c := &ColorScale{palette: palette, index: make(map[string]int, len(order))}
	for _, label := range order {
		if _, ok := c.index[label]; !ok {
			c.index[label] = len(c.index)
		}
	}
	return c
}

// NewSingleColorScale returns the same color for every label.
func NewSingleColorScale(color string) *ColorScale {
	return &ColorScale{single: color}
}

// Color returns the color of label. Unknown labels are appended to the domain.
func (c *ColorScale) Color(label string) string {
	if c.single != "" {
		return c.single
	}
	if len(c.palette) == 0 {
		return "#888888"
	}
	i, ok := c.index[label]
	if !ok {
		i = len(c.index)
		c.index[label] = i
	}
	return c.palette[i%len(c.palette)]
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}

func clampUnit(v float64) float64 {
	v = finite(v)
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
