package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layer groups elements drawn together. Layers are painted in layerOrder.
type Layer string

const (
	LayerAxes   Layer = "axes"
	LayerDeltas Layer = "deltas"
	LayerBars   Layer = "bars"
	LayerLabels Layer = "labels"
	LayerTotals Layer = "totals"
	LayerLegend Layer = "legend"
)

var layerOrder = []Layer{LayerAxes, LayerDeltas, LayerBars, LayerLabels, LayerTotals, LayerLegend}

// Kind is the primitive an element is drawn with.
type Kind string

const (
	KindRect    Kind = "rect"
	KindText    Kind = "text"
	KindPolygon Kind = "polygon"
	KindLine    Kind = "line"
	// KindTick is a tick line with an optional label at TextX, TextY.
	KindTick Kind = "tick"
	// KindSwatch is a legend color box followed by its label.
	KindSwatch Kind = "swatch"
)

// Point is a polygon vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Attrs are the presentation attributes of an element. Only presentation is
// ever transitioned; the data model is never touched by the scene.
type Attrs struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w,omitempty"`
	H        float64 `json:"h,omitempty"`
	X2       float64 `json:"x2,omitempty"`
	Y2       float64 `json:"y2,omitempty"`
	TextX    float64 `json:"textX,omitempty"`
	TextY    float64 `json:"textY,omitempty"`
	Points   []Point `json:"points,omitempty"`
	Opacity  float64 `json:"opacity"`
	Fill     string  `json:"fill,omitempty"`
	Stroke   string  `json:"stroke,omitempty"`
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Anchor   Anchor  `json:"anchor,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
}

func lerp(a, b, t float64) float64 { return finite(a + (b-a)*t) }

func (a Attrs) interpolate(b Attrs, t float64) Attrs {
	out := b
	out.X = lerp(a.X, b.X, t)
	out.Y = lerp(a.Y, b.Y, t)
	out.W = nonNegative(lerp(a.W, b.W, t))
	out.H = nonNegative(lerp(a.H, b.H, t))
	out.X2 = lerp(a.X2, b.X2, t)
	out.Y2 = lerp(a.Y2, b.Y2, t)
	out.TextX = lerp(a.TextX, b.TextX, t)
	out.TextY = lerp(a.TextY, b.TextY, t)
	out.Opacity = clampUnit(lerp(a.Opacity, b.Opacity, t))
	out.FontSize = nonNegative(lerp(a.FontSize, b.FontSize, t))
	out.Rotation = lerp(a.Rotation, b.Rotation, t)
	out.Fill = lerpColor(a.Fill, b.Fill, t)
	if len(a.Points) == len(b.Points) && len(b.Points) > 0 {
		out.Points = make([]Point, len(b.Points))
		for i := range b.Points {
			out.Points[i] = Point{X: lerp(a.Points[i].X, b.Points[i].X, t), Y: lerp(a.Points[i].Y, b.Points[i].Y, t)}
		}
	}
	return out
}

func parseHex(s string) (r, g, b float64, ok bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return float64(v >> 16 & 0xff), float64(v >> 8 & 0xff), float64(v & 0xff), true
}

func lerpColor(a, b string, t float64) string {
	if a == b || t >= 1 {
		return b
	}
	ar, ag, ab, ok1 := parseHex(a)
	br, bg, bb, ok2 := parseHex(b)
	if !ok1 || !ok2 {
		return b
	}
	mix := func(x, y float64) int { return int(math.Round(lerp(x, y, t))) }
	return fmt.Sprintf("#%02x%02x%02x", mix(ar, br), mix(ag, bg), mix(ab, bb))
}

// Ref ties an element back to the data it was drawn from.
type Ref struct {
	Dim1   string  `json:"dim1,omitempty"`
	Dim2   string  `json:"dim2,omitempty"`
	Elem   ElemKey `json:"elem"`
	Legend bool    `json:"legend,omitempty"`
}

// Timing is the delay, duration and easing of one reconcile pass.
type Timing struct {
	Delay    time.Duration
	Duration time.Duration
	Ease     EaseFunc
}

// Immediate reports whether elements jump straight to their targets.
func (t Timing) Immediate() bool { return t.Delay <= 0 && t.Duration <= 0 }

// Element is one keyed visual primitive.
type Element struct {
	Key      string
	Layer    Layer
	Kind     Kind
	Class    string
	Title    string
	Ref      Ref
	Selected bool

	from    Attrs
	to      Attrs
	start   time.Time
	timing  Timing
	exiting bool
}

// Desired is the target state of one element for Reconcile.
type Desired struct {
	Key   string
	Kind  Kind
	Class string
	Title string
	Ref   Ref
	Attrs Attrs
	// Enter is the starting state of a new element. Nil means the target
	// with zero opacity.
	Enter *Attrs
}

// Target returns the end state of the current transition.
func (e *Element) Target() Attrs { return e.to }

// Source returns the start state of the current transition.
func (e *Element) Source() Attrs { return e.from }

// Exiting reports whether the element is fading out before removal.
func (e *Element) Exiting() bool { return e.exiting }

// Started returns when the current transition was scheduled.
func (e *Element) Started() time.Time { return e.start }

// Timing returns the transition timing currently applied.
func (e *Element) Timing() Timing { return e.timing }

// Progress returns the linear transition progress at now.
func (e *Element) Progress(now time.Time) float64 {
	elapsed := now.Sub(e.start) - e.timing.Delay
	if e.timing.Duration <= 0 {
		if elapsed < 0 {
			return 0
		}
		return 1
	}
	switch {
	case elapsed <= 0:
		return 0
	case elapsed >= e.timing.Duration:
		return 1
	}
	return float64(elapsed) / float64(e.timing.Duration)
}

// At samples the element's attributes at now.
func (e *Element) At(now time.Time) Attrs {
	p := e.Progress(now)
	if p >= 1 {
		return e.to
	}
	ease := e.timing.Ease
	if ease == nil {
		ease = cubicInOut
	}
	return e.from.interpolate(e.to, ease(p))
}

// Done reports whether the transition has finished at now.
func (e *Element) Done(now time.Time) bool { return e.Progress(now) >= 1 }

type layerState struct {
	elems map[string]*Element
	order []string
}

// Scene is the keyed retained state of a chart: one map per layer plus
// insertion order.
type Scene struct {
	layers map[Layer]*layerState
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	s := &Scene{}
	s.Reset()
	return s
}

// Reset drops every element.
func (s *Scene) Reset() {
	s.layers = make(map[Layer]*layerState, len(layerOrder))
	for _, l := range layerOrder {
		s.layers[l] = &layerState{elems: map[string]*Element{}}
	}
}

func (s *Scene) layer(l Layer) *layerState {
	if s.layers == nil {
		s.Reset()
	}
	ls, ok := s.layers[l]
	if !ok {
		ls = &layerState{elems: map[string]*Element{}}
		s.layers[l] = ls
	}
	return ls
}

// Get returns the element stored under key in layer.
func (s *Scene) Get(l Layer, key string) (*Element, bool) {
	e, ok := s.layer(l).elems[key]
	return e, ok
}

// Elements returns the live elements of a layer in insertion order.
func (s *Scene) Elements(l Layer) []*Element {
	ls := s.layer(l)
	out := make([]*Element, 0, len(ls.order))
	for _, k := range ls.order {
		out = append(out, ls.elems[k])
	}
	return out
}

// Len counts elements in a layer, exiting ones included.
func (s *Scene) Len(l Layer) int { return len(s.layer(l).order) }

// Insert places an element at its enter state without any transition.
// Existing elements under the same key are left alone.
func (s *Scene) Insert(l Layer, d Desired, now time.Time) {
	ls := s.layer(l)
	if _, ok := ls.elems[d.Key]; ok {
		return
	}
	start := enterState(d)
	ls.elems[d.Key] = &Element{
		Key: d.Key, Layer: l, Kind: d.Kind, Class: d.Class, Title: d.Title, Ref: d.Ref,
		from: start, to: start, start: now,
	}
	ls.order = append(ls.order, d.Key)
}

func enterState(d Desired) Attrs {
	if d.Enter != nil {
		return *d.Enter
	}
	a := d.Attrs
	a.Opacity = 0
	return a
}

// ReconcileStats counts what a reconcile pass did.
type ReconcileStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Reconcile diffs a layer against desired by key. New keys enter from their
// enter state, known keys are re-targeted from wherever their running
// transition currently is, and vanished keys fade out. With an immediate
// timing vanished keys are dropped at once.
func (s *Scene) Reconcile(l Layer, desired []Desired, now time.Time, tm Timing) ReconcileStats {
	ls := s.layer(l)
	var stats ReconcileStats
	keep := make(map[string]bool, len(desired))
	for _, d := range desired {
		if keep[d.Key] {
			continue
		}
		keep[d.Key] = true
		e, ok := ls.elems[d.Key]
		if !ok {
			e = &Element{Key: d.Key, Layer: l, from: enterState(d)}
			ls.elems[d.Key] = e
			ls.order = append(ls.order, d.Key)
			stats.Created++
		} else {
			e.from = e.At(now)
			stats.Updated++
		}
		e.Kind, e.Class, e.Title, e.Ref = d.Kind, d.Class, d.Title, d.Ref
		e.to = d.Attrs
		e.start = now
		e.timing = tm
		e.exiting = false
	}

	for _, k := range ls.order {
		if keep[k] {
			continue
		}
		e := ls.elems[k]
		if e.exiting {
			continue
		}
		cur := e.At(now)
		e.from = cur
		e.to = cur
		e.to.Opacity = 0
		e.start = now
		e.timing = tm
		e.exiting = true
		stats.Removed++
	}
	if tm.Immediate() {
		s.sweepLayer(ls, now)
	}
	return stats
}

// Drawn is one element sampled at a point in time.
type Drawn struct {
	Element *Element
	Attrs   Attrs
}

// Frame samples every element in paint order at now.
func (s *Scene) Frame(now time.Time) []Drawn {
	var out []Drawn
	for _, l := range layerOrder {
		for _, e := range s.Elements(l) {
			out = append(out, Drawn{Element: e, Attrs: e.At(now)})
		}
	}
	return out
}

// Sweep removes exited elements whose transition finished and returns how
// many were dropped.
func (s *Scene) Sweep(now time.Time) int {
	n := 0
	for _, l := range layerOrder {
		n += s.sweepLayer(s.layer(l), now)
	}
	return n
}

func (s *Scene) sweepLayer(ls *layerState, now time.Time) int {
	kept := ls.order[:0]
	removed := 0
	for _, k := range ls.order {
		e := ls.elems[k]
		if e.exiting && e.Done(now) {
			delete(ls.elems, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	ls.order = kept
	return removed
}

// Settled reports whether no transition is running at now.
func (s *Scene) Settled(now time.Time) bool {
	for _, l := range layerOrder {
		for _, e := range s.layer(l).elems {
			if !e.Done(now) {
				return false
			}
		}
	}
	return true
}
