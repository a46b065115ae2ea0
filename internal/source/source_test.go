package source

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/stackchart/internal/chart"
)

func TestFromTableAssignsElementIDsPerColumn(t *testing.T) {
	in, err := FromTable(Table{
		Header: []string{"Region", "Quarter", "Sales"},
		Records: [][]string{
			{"North", "Q1", "1,200"},
			{"North", "Q2", "800"},
			{"", "", ""},
			{"South", "Q1", "15%"},
			{"South", "Q2", ""},
		},
	}, 2, 1)
	require.NoError(t, err)
	require.Len(t, in.Rows, 4, "blank records are skipped")
	assert.Equal(t, []string{"Sales"}, in.MeasureNames)

	assert.Equal(t, 0, in.Rows[0][0].ElementID)
	assert.Equal(t, 1, in.Rows[2][0].ElementID)
	assert.Equal(t, 1, in.Rows[1][1].ElementID)
	assert.Equal(t, 0, in.Rows[2][1].ElementID)
	assert.Equal(t, 1200.0, in.Rows[0][2].Num)
	assert.Equal(t, "1,200", in.Rows[0][2].Text)
	assert.InDelta(t, 0.15, in.Rows[2][2].Num, 1e-12)
	assert.Equal(t, 0.0, in.Rows[3][2].Num)
	assert.Equal(t, chart.NotSelectable, in.Rows[3][2].ElementID)
}

func TestFromTableRejectsBadInput(t *testing.T) {
	_, err := FromTable(Table{Header: []string{"A"}}, 1, 1)
	assert.ErrorIs(t, err, ErrShape)

	_, err = FromTable(Table{Records: [][]string{{"A", "x"}}}, 1, 1)
	assert.Error(t, err)

	_, err = FromTable(Table{}, 1, 0)
	assert.ErrorIs(t, err, ErrShape)
}

func TestReadJSONRecords(t *testing.T) {
	doc := `{"dimensions":1,"measures":2,"columns":["Team","Open","Closed"],
		"records":[["Core",3,5],["Web",1.5,null]]}`
	in, err := ReadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, in.Rows, 2)
	assert.Equal(t, []string{"Open", "Closed"}, in.MeasureNames)
	assert.Equal(t, "Web", in.Rows[1][0].Text)
	assert.Equal(t, 1.5, in.Rows[1][1].Num)
	assert.Equal(t, "", in.Rows[1][2].Text)

	ds, ok := chart.Reshape(in)
	require.True(t, ok)
	assert.Len(t, ds.Categories, 2)
}

func TestReadJSONRows(t *testing.T) {
	doc := `{"dimensions":1,"measures":1,"rows":[[{"elementId":7,"displayText":"A"},{"numericValue":2,"displayText":"2"}]]}`
	in, err := ReadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, in.Rows, 1)
	assert.Equal(t, 7, in.Rows[0][0].ElementID)
	assert.Equal(t, 2.0, in.Rows[0][1].Num)
}

func TestReadJSONInvalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := map[string]any{
		"A1": "Region", "B1": "Product", "C1": "Units",
		"A2": "East", "B2": "Widget", "C2": 12,
		"A3": "East", "B3": "Gadget", "C3": 4,
		"A4": "West", "B4": "Widget", "C4": 9,
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	in, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "", 2, 1)
	require.NoError(t, err)
	require.Len(t, in.Rows, 3)
	assert.Equal(t, "West", in.Rows[2][0].Text)
	assert.Equal(t, 1, in.Rows[2][0].ElementID)
	assert.Equal(t, 0, in.Rows[2][1].ElementID)
	assert.Equal(t, 9.0, in.Rows[2][2].Num)

	_, err = ReadXLSX(bytes.NewReader(buf.Bytes()), "Missing", 2, 1)
	assert.Error(t, err)
}
