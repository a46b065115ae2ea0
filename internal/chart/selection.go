package chart

import (
	"context"
	"fmt"
	"sort"
)

// Selector is the host's "select these values" callback.
type Selector interface {
	SelectValues(ctx context.Context, dim int, ids []int, toggle bool) error
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, dim int, ids []int, toggle bool) error

// SelectValues implements Selector.
func (f SelectorFunc) SelectValues(ctx context.Context, dim int, ids []int, toggle bool) error {
	return f(ctx, dim, ids, toggle)
}

// Pick is one dimension/element pair produced by a click.
type Pick struct {
	Dim int `json:"dim"`
	ID  int `json:"id"`
}

// picks returns the selections a click on e stands for.
func picks(e *Element) []Pick {
	ref := e.Ref
	var out []Pick
	switch {
	case ref.Legend:
		if ref.Elem.Selectable(1) {
			out = append(out, Pick{Dim: 1, ID: ref.Elem.Dim2})
		}
	case e.Layer == LayerBars || e.Layer == LayerLabels:
		if ref.Elem.Selectable(0) {
			out = append(out, Pick{Dim: 0, ID: ref.Elem.Dim1})
		}
		if ref.Elem.Selectable(1) {
			out = append(out, Pick{Dim: 1, ID: ref.Elem.Dim2})
		}
	case e.Layer == LayerTotals || e.Layer == LayerAxes:
		if ref.Elem.Selectable(0) {
			out = append(out, Pick{Dim: 0, ID: ref.Elem.Dim1})
		}
	}
	return out
}

// Click handles a click on the element stored under key. Legend scroll
// arrows page the legend. In immediate mode the selector is invoked once per
// dimension; in confirm mode the picks are toggled locally until Confirm.
func (c *Chart) Click(ctx context.Context, layer Layer, key string) ([]Pick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout == nil {
		return nil, ErrNotPlanned
	}
	if layer == LayerLegend {
		switch key {
		case scrollPrev:
			_, err := c.scrollLegend(-1)
			return nil, err
		case scrollNext:
			_, err := c.scrollLegend(1)
			return nil, err
		}
	}
	e, ok := c.scene.Get(layer, key)
	if !ok || e.Exiting() {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownElement, layer, key)
	}
	sel := picks(e)
	if len(sel) == 0 {
		return nil, nil
	}
	if c.cfg.Selection == SelectConfirm {
		c.toggle(e, sel)
		return sel, nil
	}
	if c.selector == nil {
		return sel, nil
	}
	for _, p := range sel {
		if err := c.selector.SelectValues(ctx, p.Dim, []int{p.ID}, true); err != nil {
			return nil, fmt.Errorf("chart: select dim %d: %w", p.Dim, err)
		}
	}
	return sel, nil
}

func (c *Chart) toggle(e *Element, sel []Pick) {
	e.Selected = !e.Selected
	for _, p := range sel {
		set, ok := c.pending[p.Dim]
		if !ok {
			set = map[int]bool{}
			c.pending[p.Dim] = set
		}
		if e.Selected {
			set[p.ID] = true
		} else {
			delete(set, p.ID)
		}
	}
}

// Pending returns the accumulated confirm-mode selections by dimension.
func (c *Chart) Pending() map[int][]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingIDs()
}

func (c *Chart) pendingIDs() map[int][]int {
	out := map[int][]int{}
	for dim, set := range c.pending {
		if len(set) == 0 {
			continue
		}
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		out[dim] = ids
	}
	return out
}

// Confirm applies the accumulated selections and clears them.
func (c *Chart) Confirm(ctx context.Context) (map[int][]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied := c.pendingIDs()
	dims := make([]int, 0, len(applied))
	for d := range applied {
		dims = append(dims, d)
	}
	sort.Ints(dims)
	if c.selector != nil {
		for _, d := range dims {
			if err := c.selector.SelectValues(ctx, d, applied[d], false); err != nil {
				return nil, fmt.Errorf("chart: confirm dim %d: %w", d, err)
			}
		}
	}
	c.clearSelections()
	return applied, nil
}

// ClearSelections drops pending selections without applying them.
func (c *Chart) ClearSelections() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearSelections()
}

func (c *Chart) clearSelections() {
	c.pending = map[int]map[int]bool{}
	for _, l := range layerOrder {
		for _, e := range c.scene.Elements(l) {
			e.Selected = false
		}
	}
}

// Tooltip is the hover text of an element and where to show it, in
// container coordinates.
type Tooltip struct {
	Key  string  `json:"key"`
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

const tooltipOffset = 8.0

// Tooltip returns the tooltip of the bar, delta or legend entry under key,
// placed above the element.
func (c *Chart) Tooltip(key string) (Tooltip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout == nil {
		return Tooltip{}, ErrNotPlanned
	}
	for _, l := range []Layer{LayerBars, LayerDeltas, LayerLegend} {
		e, ok := c.scene.Get(l, key)
		if !ok || e.Exiting() || e.Title == "" {
			continue
		}
		a := e.Target()
		x, y := a.X+a.W/2, a.Y
		if e.Kind == KindPolygon && len(a.Points) > 0 {
			x, y = a.Points[0].X, a.Points[0].Y
			var sx float64
			for _, p := range a.Points {
				sx += p.X
				if p.Y < y {
					y = p.Y
				}
			}
			x = sx / float64(len(a.Points))
		}
		if l != LayerLegend {
			x += c.layout.Margin.Left
			y += c.layout.Margin.Top
		}
		return Tooltip{Key: key, Text: e.Title, X: x, Y: nonNegative(y - tooltipOffset)}, nil
	}
	return Tooltip{}, fmt.Errorf("%w: %s", ErrUnknownElement, key)
}
