// Package source turns tabular documents into raw chart rows.
package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/odyssey-erp/stackchart/internal/chart"
)

// ErrShape is returned when a table has fewer columns than the declared
// dimensions and measures.
var ErrShape = errors.New("source: table shape mismatch")

// Table is a header row plus string records, dimension columns first.
type Table struct {
	Header  []string
	Records [][]string
}

// FromTable builds chart input from a table. Element ids are assigned per
// dimension column in first-seen order. Blank measure cells become zero with
// empty text so the input stays JSON encodable.
func FromTable(t Table, dims, measures int) (chart.Input, error) {
	width := dims + measures
	if dims < 0 || measures < 1 {
		return chart.Input{}, fmt.Errorf("%w: %d dimensions, %d measures", ErrShape, dims, measures)
	}
	if len(t.Header) > 0 && len(t.Header) < width {
		return chart.Input{}, fmt.Errorf("%w: header has %d columns, want %d", ErrShape, len(t.Header), width)
	}
	ids := make([]map[string]int, dims)
	for i := range ids {
		ids[i] = map[string]int{}
	}
	in := chart.Input{Dimensions: dims, Measures: measures}
	if len(t.Header) >= width {
		in.MeasureNames = append([]string(nil), t.Header[dims:width]...)
	}
	for n, rec := range t.Records {
		if isBlank(rec) {
			continue
		}
		if len(rec) < dims {
			return chart.Input{}, fmt.Errorf("%w: record %d has %d columns", ErrShape, n+1, len(rec))
		}
		row := make(chart.Row, 0, width)
		for d := 0; d < dims; d++ {
			label := strings.TrimSpace(rec[d])
			id, ok := ids[d][label]
			if !ok {
				id = len(ids[d])
				ids[d][label] = id
			}
			row = append(row, chart.Cell{ElementID: id, Text: label})
		}
		for m := dims; m < width; m++ {
			raw := ""
			if m < len(rec) {
				raw = strings.TrimSpace(rec[m])
			}
			num, err := parseNumber(raw)
			if err != nil {
				return chart.Input{}, fmt.Errorf("source: record %d column %d: %w", n+1, m+1, err)
			}
			row = append(row, chart.Cell{ElementID: chart.NotSelectable, Num: num, Text: raw})
		}
		in.Rows = append(in.Rows, row)
	}
	return in, nil
}

func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(raw)
	pct := strings.HasSuffix(cleaned, "%")
	cleaned = strings.TrimSuffix(cleaned, "%")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if pct {
		v /= 100
	}
	return v, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
