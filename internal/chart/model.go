package chart

import "fmt"

// Cell is one value of a raw input row.
type Cell struct {
	ElementID int     `json:"elementId"`
	Num       float64 `json:"numericValue"`
	Text      string  `json:"displayText"`
}

// Row is one raw input row: dimension cells first, then measure cells.
type Row []Cell

// NotSelectable marks element ids of synthetic measure dimensions.
const NotSelectable = -1

// ElemKey holds the selection ids of a segment. Dim2 is only meaningful
// when Paired is set.
type ElemKey struct {
	Dim1   int  `json:"dim1"`
	Dim2   int  `json:"dim2"`
	Paired bool `json:"paired"`
}

// Selectable reports whether the given dimension index can be selected.
func (k ElemKey) Selectable(dim int) bool {
	switch dim {
	case 0:
		return k.Dim1 >= 0
	case 1:
		return k.Paired && k.Dim2 >= 0
	default:
		return false
	}
}

// Segment is one stacked piece of a Category.
type Segment struct {
	Dim1        string  `json:"dim1"`
	Dim2        string  `json:"dim2"`
	Num         float64 `json:"qNum"`
	Text        string  `json:"qText"`
	TextPct     string  `json:"qTextPct,omitempty"`
	Offset      float64 `json:"offset"`
	Elem        ElemKey `json:"qElemNumber"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// Category is one bar: a primary dimension value and its stacked segments.
type Category struct {
	Dim1     string     `json:"dim1"`
	Elem     int        `json:"qElemNumber"`
	Offset   float64    `json:"offset"`
	Segments []*Segment `json:"values"`
}

// Total returns the sum of the category's non-placeholder values.
func (c *Category) Total() float64 {
	var sum float64
	for _, s := range c.Segments {
		if !s.Placeholder {
			sum += s.Num
		}
	}
	return sum
}

// Delta links the segment at the same stack position of two adjacent categories.
type Delta struct {
	Dim1Prev   string  `json:"dim1p"`
	Dim1Cur    string  `json:"dim1c"`
	Dim2       string  `json:"dim2"`
	Value      float64 `json:"delta"`
	PrevOffset float64 `json:"offsetPrev"`
	PrevNum    float64 `json:"numPrev"`
	CurOffset  float64 `json:"offsetCur"`
	CurNum     float64 `json:"numCur"`
}

// Key identifies the delta across refreshes.
func (d Delta) Key() string {
	return fmt.Sprintf("%s-%s,%s", d.Dim1Prev, d.Dim1Cur, d.Dim2)
}

// Dataset is the output of the data reshaper.
type Dataset struct {
	Categories []*Category `json:"categories"`
	Flat       []*Segment  `json:"flat"`
	Dim2Order  []string    `json:"dim2Order"`
	Deltas     []Delta     `json:"deltas,omitempty"`
	TwoDim     bool        `json:"twoDim"`
	Normalized bool        `json:"normalized"`

	// Dim2Elems maps a secondary label to its element id for legend selections.
	Dim2Elems map[string]int `json:"dim2Elems,omitempty"`

	// OrderFallback is set when the secondary order had a cycle and
	// first-seen order was used instead.
	OrderFallback bool `json:"orderFallback,omitempty"`
	// Misaligned counts delta pairs skipped because their labels differ.
	Misaligned int `json:"misaligned,omitempty"`
}

// Category returns the category with the given label.
func (d *Dataset) Category(dim1 string) (*Category, bool) {
	if d == nil {
		return nil, false
	}
	for _, c := range d.Categories {
		if c.Dim1 == dim1 {
			return c, true
		}
	}
	return nil, false
}

// Empty reports whether the dataset has nothing to draw.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Categories) == 0
}
