package chart

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(id int, text string) Cell {
	return Cell{ElementID: id, Text: text}
}

func value(v float64) Cell {
	return Cell{Num: v, Text: fmt.Sprint(v)}
}

func twoDimRows(rows ...[3]any) []Row {
	ids := map[string]int{}
	id := func(s string) int {
		if v, ok := ids[s]; ok {
			return v
		}
		ids[s] = len(ids)
		return ids[s]
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		d1, d2 := r[0].(string), r[1].(string)
		out = append(out, Row{cell(id(d1), d1), cell(id(d2), d2), value(float64(r[2].(int)))})
	}
	return out
}

func TestTopoSortOrdersChain(t *testing.T) {
	order, err := TopoSort([]string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestTopoSortKeepsUnconstrainedOrder(t *testing.T) {
	order, err := TopoSort([]string{"X", "Y", "Z"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "Z"}, order)
}

func TestTopoSortRespectsEdges(t *testing.T) {
	nodes := []string{"A", "B", "C", "D"}
	edges := [][2]string{{"C", "A"}, {"D", "B"}, {"C", "A"}}
	order, err := TopoSort(nodes, edges)
	require.NoError(t, err)
	require.Len(t, order, 4)
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	for _, e := range edges {
		assert.Less(t, pos[e[0]], pos[e[1]], "edge %v", e)
	}
}

func TestTopoSortDetectsCycle(t *testing.T) {
	_, err := TopoSort([]string{"A", "B"}, [][2]string{{"A", "B"}, {"B", "A"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicDependency))
}

func TestTopoSortUnknownNode(t *testing.T) {
	_, err := TopoSort([]string{"A"}, [][2]string{{"A", "B"}})
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestReshapeRejectsShapeMismatch(t *testing.T) {
	_, ok := Reshape(Input{})
	assert.False(t, ok)

	_, ok = Reshape(Input{
		Rows:       []Row{{cell(0, "X"), value(1)}},
		Dimensions: 2,
		Measures:   1,
	})
	assert.False(t, ok)
}

func TestReshapeSingleDimensionNeverNormalized(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows: []Row{
			{cell(0, "X"), value(10)},
			{cell(1, "Y"), value(20)},
		},
		Dimensions:   1,
		Measures:     1,
		MeasureNames: []string{"Sales"},
		Normalized:   true,
	})
	require.True(t, ok)
	require.Len(t, ds.Categories, 2)
	assert.False(t, ds.Normalized)
	assert.False(t, ds.TwoDim)
	for i, want := range []float64{10, 20} {
		c := ds.Categories[i]
		require.Len(t, c.Segments, 1)
		assert.Equal(t, 0.0, c.Segments[0].Offset)
		assert.Equal(t, want, c.Segments[0].Num)
		assert.Empty(t, c.Segments[0].TextPct)
		assert.Equal(t, "Sales", c.Segments[0].Dim2)
	}
	assert.Equal(t, []string{"Sales"}, ds.Dim2Order)
	assert.Len(t, ds.Flat, 2)
}

func TestReshapePlaceholderScenario(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows:       twoDimRows([3]any{"A", "P", 5}, [3]any{"A", "Q", 3}, [3]any{"B", "P", 4}),
		Dimensions: 2,
		Measures:   1,
	})
	require.True(t, ok)
	require.Len(t, ds.Categories, 2)
	assert.Equal(t, []string{"P", "Q"}, ds.Dim2Order)

	a, _ := ds.Category("A")
	b, _ := ds.Category("B")
	assert.Equal(t, 8.0, a.Offset)
	assert.Equal(t, 4.0, b.Offset)

	require.Len(t, b.Segments, 2)
	q := b.Segments[1]
	assert.Equal(t, "Q", q.Dim2)
	assert.True(t, q.Placeholder)
	assert.Equal(t, 0.0, q.Num)
	assert.Equal(t, PlaceholderText, q.Text)
	assert.False(t, q.Elem.Selectable(1))
	assert.True(t, q.Elem.Selectable(0))
}

func TestReshapeStackingInvariant(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows: twoDimRows(
			[3]any{"2023", "North", 7}, [3]any{"2023", "South", 2}, [3]any{"2023", "East", 4},
			[3]any{"2024", "South", 5}, [3]any{"2024", "East", 1},
			[3]any{"2025", "North", 3}, [3]any{"2025", "West", 9},
		),
		Dimensions: 2,
		Measures:   1,
	})
	require.True(t, ok)
	for _, c := range ds.Categories {
		require.Len(t, c.Segments, len(ds.Dim2Order), "category %s is not rectangular", c.Dim1)
		var running float64
		for i, s := range c.Segments {
			assert.Equal(t, ds.Dim2Order[i], s.Dim2)
			assert.InDelta(t, running, s.Offset, 1e-9)
			if !s.Placeholder {
				running += s.Num
			}
		}
		assert.InDelta(t, running, c.Offset, 1e-9)
		assert.InDelta(t, c.Total(), c.Offset, 1e-9)
	}
}

func TestReshapeNormalizationInvariant(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows: twoDimRows(
			[3]any{"A", "P", 1}, [3]any{"A", "Q", 3},
			[3]any{"B", "P", 2}, [3]any{"B", "Q", 2}, [3]any{"B", "R", 4},
		),
		Dimensions: 2,
		Measures:   1,
		Normalized: true,
	})
	require.True(t, ok)
	assert.True(t, ds.Normalized)
	for _, c := range ds.Categories {
		var sum float64
		for _, s := range c.Segments {
			assert.GreaterOrEqual(t, s.Num, 0.0)
			assert.LessOrEqual(t, s.Num, 1.0)
			assert.GreaterOrEqual(t, s.Offset, 0.0)
			assert.LessOrEqual(t, s.Offset, 1.0)
			assert.Equal(t, fmt.Sprintf("%.1f%%", s.Num*100), s.TextPct)
			sum += s.Num
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.Equal(t, 1.0, c.Offset)
	}
	a, _ := ds.Category("A")
	assert.Equal(t, "75.0%", a.Segments[1].TextPct)
}

func TestReshapeNormalizeZeroTotal(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows:       twoDimRows([3]any{"A", "P", 0}, [3]any{"A", "Q", 0}),
		Dimensions: 2,
		Measures:   1,
		Normalized: true,
	})
	require.True(t, ok)
	c := ds.Categories[0]
	assert.Equal(t, 0.0, c.Offset)
	for _, s := range c.Segments {
		assert.False(t, math.IsNaN(s.Num))
		assert.Equal(t, 0.0, s.Offset)
	}
}

func TestReshapeCycleFallsBackToFirstSeen(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows:       twoDimRows([3]any{"X", "A", 1}, [3]any{"X", "B", 1}, [3]any{"Y", "B", 1}, [3]any{"Y", "A", 1}),
		Dimensions: 2,
		Measures:   1,
	})
	require.True(t, ok)
	assert.True(t, ds.OrderFallback)
	assert.Equal(t, []string{"A", "B"}, ds.Dim2Order)
	y, _ := ds.Category("Y")
	assert.Equal(t, "A", y.Segments[0].Dim2)
}

func TestReshapeMeasuresOnly(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows:         []Row{{value(4), value(6)}},
		Dimensions:   0,
		Measures:     2,
		MeasureNames: []string{"Cost", ""},
	})
	require.True(t, ok)
	require.Len(t, ds.Categories, 2)
	assert.Equal(t, "Cost", ds.Categories[0].Dim1)
	assert.Equal(t, "Measure 2", ds.Categories[1].Dim1)
	assert.Equal(t, NotSelectable, ds.Categories[0].Elem)
	assert.Equal(t, 6.0, ds.Categories[1].Offset)
	assert.False(t, ds.Categories[0].Segments[0].Elem.Selectable(0))
}

func TestReshapeMeasuresBecomeSecondary(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows: []Row{
			{cell(0, "Jan"), value(1), value(2)},
			{cell(1, "Feb"), value(3), value(4)},
		},
		Dimensions:   1,
		Measures:     2,
		MeasureNames: []string{"Plan", "Actual"},
	})
	require.True(t, ok)
	assert.True(t, ds.TwoDim)
	assert.Equal(t, []string{"Plan", "Actual"}, ds.Dim2Order)
	feb, _ := ds.Category("Feb")
	assert.Equal(t, 7.0, feb.Offset)
	assert.Equal(t, 3.0, feb.Segments[1].Offset)
	assert.False(t, feb.Segments[0].Elem.Selectable(1))
	assert.True(t, feb.Segments[0].Elem.Selectable(0))
}

func TestReshapeTwoDimsKeepsFirstMeasure(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows: []Row{
			{cell(0, "A"), cell(0, "P"), value(2), value(99)},
		},
		Dimensions: 2,
		Measures:   2,
	})
	require.True(t, ok)
	assert.Equal(t, 2.0, ds.Categories[0].Offset)
}

func TestReshapeDeltas(t *testing.T) {
	ds, ok := Reshape(Input{
		Rows: twoDimRows(
			[3]any{"Q1", "P", 5}, [3]any{"Q1", "Q", 3},
			[3]any{"Q2", "P", 4}, [3]any{"Q2", "Q", 6},
		),
		Dimensions: 2,
		Measures:   1,
		ShowDeltas: true,
	})
	require.True(t, ok)
	require.Len(t, ds.Deltas, 2)
	d := ds.Deltas[1]
	assert.Equal(t, "Q1-Q2,Q", d.Key())
	assert.Equal(t, 3.0, d.Value)
	assert.Equal(t, 5.0, d.PrevOffset)
	assert.Equal(t, 4.0, d.CurOffset)
	assert.Zero(t, ds.Misaligned)
}

func TestBuildDeltasSkipsMisaligned(t *testing.T) {
	cats := []*Category{
		{Dim1: "A", Segments: []*Segment{{Dim2: "P", Num: 1}, {Dim2: "Q", Num: 2}}},
		{Dim1: "B", Segments: []*Segment{{Dim2: "Q", Num: 1}}},
	}
	deltas, misaligned := buildDeltas(cats)
	assert.Empty(t, deltas)
	assert.Equal(t, 1, misaligned)
}
