package chart

import (
	"fmt"
)

// PlaceholderText is the display text of segments inserted to keep stacks rectangular.
const PlaceholderText = "-"

// Input describes the raw rows handed over by the host.
type Input struct {
	Rows         []Row    `json:"rows"`
	Dimensions   int      `json:"dimensions"`
	Measures     int      `json:"measures"`
	MeasureNames []string `json:"measureNames"`
	Normalized   bool     `json:"normalized"`
	ShowDeltas   bool     `json:"showDeltas"`
}

// Reshape converts raw rows into the stacked model. It returns false without
// producing a dataset when the first row is missing or its width does not
// match the declared dimension and measure counts.
func Reshape(in Input) (*Dataset, bool) {
	if len(in.Rows) == 0 || len(in.Rows[0]) == 0 {
		return nil, false
	}
	if len(in.Rows[0]) != in.Dimensions+in.Measures {
		return nil, false
	}

	rows := in.Rows
	dims := in.Dimensions
	switch {
	case dims == 0 && in.Measures >= 1:
		rows = measuresAsCategories(in.Rows[0], in.MeasureNames)
		dims = 1
	case dims == 1 && in.Measures > 1:
		rows = measuresAsSecondary(in.Rows, in.Measures, in.MeasureNames)
		dims = 2
	case dims == 2 && in.Measures > 1:
		rows = firstMeasureOnly(in.Rows)
	case dims != 1 && dims != 2:
		return nil, false
	}

	var ds *Dataset
	if dims == 1 {
		ds = reshapeSingle(rows, in)
	} else {
		ds = reshapeDouble(rows, in.Normalized)
		if in.ShowDeltas {
			ds.Deltas, ds.Misaligned = buildDeltas(ds.Categories)
		}
	}
	for _, c := range ds.Categories {
		ds.Flat = append(ds.Flat, c.Segments...)
	}
	return ds, true
}

func measureName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("Measure %d", i+1)
}

func measuresAsCategories(row Row, names []string) []Row {
	out := make([]Row, 0, len(row))
	for j, cell := range row {
		label := measureName(names, j)
		out = append(out, Row{
			{ElementID: NotSelectable, Num: float64(j + 1), Text: label},
			cell,
		})
	}
	return out
}

func measuresAsSecondary(rows []Row, measures int, names []string) []Row {
	out := make([]Row, 0, len(rows)*measures)
	for _, row := range rows {
		if len(row) < 1+measures {
			continue
		}
		for j := 0; j < measures; j++ {
			out = append(out, Row{
				row[0],
				{ElementID: NotSelectable, Num: float64(j + 1), Text: measureName(names, j)},
				row[1+j],
			})
		}
	}
	return out
}

func firstMeasureOnly(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if len(row) >= 3 {
			out = append(out, row[:3])
		}
	}
	return out
}

// reshapeSingle builds one segment per category. Single-dimension bars are
// never normalized.
func reshapeSingle(rows []Row, in Input) *Dataset {
	ds := &Dataset{Dim2Elems: map[string]int{}}
	measure := measureName(in.MeasureNames, 0)
	synthetic := in.Dimensions == 0
	seen := map[string]bool{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		dim, val := row[0], row[1]
		dim2 := measure
		if synthetic {
			dim2 = dim.Text
		}
		seg := &Segment{
			Dim1:   dim.Text,
			Dim2:   dim2,
			Num:    val.Num,
			Text:   val.Text,
			Offset: 0,
			Elem:   ElemKey{Dim1: dim.ElementID, Dim2: NotSelectable},
		}
		ds.Categories = append(ds.Categories, &Category{
			Dim1:     dim.Text,
			Elem:     dim.ElementID,
			Offset:   val.Num,
			Segments: []*Segment{seg},
		})
		if !seen[dim2] {
			seen[dim2] = true
			ds.Dim2Order = append(ds.Dim2Order, dim2)
			ds.Dim2Elems[dim2] = NotSelectable
		}
	}
	return ds
}

type pendingCategory struct {
	dim1  Cell
	cells map[string]Cell
	order []string
}

func reshapeDouble(rows []Row, normalized bool) *Dataset {
	ds := &Dataset{TwoDim: true, Normalized: normalized, Dim2Elems: map[string]int{}}

	var groups []*pendingCategory
	byLabel := map[string]*pendingCategory{}
	var firstSeen []string
	known := map[string]bool{}
	var edges [][2]string

	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		d1, d2, val := row[0], row[1], row[2]
		g, ok := byLabel[d1.Text]
		if !ok {
			g = &pendingCategory{dim1: d1, cells: map[string]Cell{}}
			byLabel[d1.Text] = g
			groups = append(groups, g)
		}
		if _, dup := g.cells[d2.Text]; dup {
			continue
		}
		val.ElementID = d2.ElementID
		g.cells[d2.Text] = val
		if n := len(g.order); n > 0 {
			edges = append(edges, [2]string{g.order[n-1], d2.Text})
		}
		g.order = append(g.order, d2.Text)
		if !known[d2.Text] {
			known[d2.Text] = true
			firstSeen = append(firstSeen, d2.Text)
			ds.Dim2Elems[d2.Text] = d2.ElementID
		}
	}

	order, err := TopoSort(firstSeen, edges)
	if err != nil {
		order = firstSeen
		ds.OrderFallback = true
	}
	ds.Dim2Order = order

	for _, g := range groups {
		cat := &Category{Dim1: g.dim1.Text, Elem: g.dim1.ElementID}
		var running float64
		for _, label := range order {
			cell, present := g.cells[label]
			seg := &Segment{
				Dim1:   g.dim1.Text,
				Dim2:   label,
				Offset: running,
				Elem:   ElemKey{Dim1: g.dim1.ElementID, Dim2: NotSelectable, Paired: true},
			}
			if present {
				seg.Num = cell.Num
				seg.Text = cell.Text
				seg.Elem.Dim2 = cell.ElementID
				running += cell.Num
			} else {
				seg.Text = PlaceholderText
				seg.Placeholder = true
			}
			cat.Segments = append(cat.Segments, seg)
		}
		cat.Offset = running
		if normalized {
			normalize(cat)
		}
		ds.Categories = append(ds.Categories, cat)
	}
	return ds
}

// normalize rescales a category to fractions of its total.
func normalize(cat *Category) {
	total := cat.Offset
	for _, s := range cat.Segments {
		if total != 0 {
			s.Offset /= total
			s.Num /= total
		} else {
			s.Offset = 0
			s.Num = 0
		}
		s.TextPct = formatPct(s.Num)
	}
	if total != 0 {
		cat.Offset = 1
	}
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// buildDeltas pairs segments by stack position between adjacent categories.
func buildDeltas(cats []*Category) ([]Delta, int) {
	var out []Delta
	misaligned := 0
	for i := 1; i < len(cats); i++ {
		prev, cur := cats[i-1], cats[i]
		n := len(prev.Segments)
		if len(cur.Segments) > n {
			n = len(cur.Segments)
		}
		for k := 0; k < n; k++ {
			if k >= len(prev.Segments) || k >= len(cur.Segments) {
				continue
			}
			p, c := prev.Segments[k], cur.Segments[k]
			if p.Dim2 != c.Dim2 {
				misaligned++
				continue
			}
			out = append(out, Delta{
				Dim1Prev:   prev.Dim1,
				Dim1Cur:    cur.Dim1,
				Dim2:       c.Dim2,
				Value:      c.Num - p.Num,
				PrevOffset: p.Offset,
				PrevNum:    p.Num,
				CurOffset:  c.Offset,
				CurNum:     c.Num,
			})
		}
	}
	return out, misaligned
}
