package source

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/stackchart/internal/chart"
)

// Document is the JSON input format. It carries either ready-made rows or a
// table of records.
type Document struct {
	Dimensions   int         `json:"dimensions"`
	Measures     int         `json:"measures"`
	MeasureNames []string    `json:"measureNames,omitempty"`
	Rows         []chart.Row `json:"rows,omitempty"`
	Columns      []string    `json:"columns,omitempty"`
	Records      [][]any     `json:"records,omitempty"`
}

// ReadJSON decodes a Document into chart input.
func ReadJSON(r io.Reader) (chart.Input, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return chart.Input{}, fmt.Errorf("source: decode json: %w", err)
	}
	if len(doc.Rows) > 0 {
		return chart.Input{
			Rows:         doc.Rows,
			Dimensions:   doc.Dimensions,
			Measures:     doc.Measures,
			MeasureNames: doc.MeasureNames,
		}, nil
	}
	t := Table{Header: doc.Columns, Records: make([][]string, 0, len(doc.Records))}
	for _, rec := range doc.Records {
		out := make([]string, len(rec))
		for i, v := range rec {
			out[i] = stringify(v)
		}
		t.Records = append(t.Records, out)
	}
	in, err := FromTable(t, doc.Dimensions, doc.Measures)
	if err != nil {
		return chart.Input{}, err
	}
	if len(doc.MeasureNames) > 0 {
		in.MeasureNames = doc.MeasureNames
	}
	return in, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// ReadXLSX reads a worksheet whose first row is the header. An empty sheet
// name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string, dims, measures int) (chart.Input, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return chart.Input{}, fmt.Errorf("source: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return chart.Input{}, fmt.Errorf("source: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return chart.Input{Dimensions: dims, Measures: measures}, nil
	}
	return FromTable(Table{Header: rows[0], Records: rows[1:]}, dims, measures)
}
