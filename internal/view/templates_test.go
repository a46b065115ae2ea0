package view

import (
	"html/template"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderPreview(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/preview.html", TemplateData{
		Title:     "Sales by region",
		ChartID:   "abc",
		SVG:       template.HTML(`<svg id="x"></svg>`),
		UpdatedAt: time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	body := rr.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, `<svg id="x"></svg>`)
	assert.Contains(t, body, "04 Mar 2025 10:30")
	assert.Contains(t, body, `href="/charts/abc.svg"`)
}

func TestExportPageInlinesStyles(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	html, err := engine.ExportPage("Q1 <draft>", []byte(`<svg></svg>`))
	require.NoError(t, err)
	assert.Contains(t, html, "Q1 &lt;draft&gt;")
	assert.Contains(t, html, "<svg></svg>")
	assert.Contains(t, html, "figure.chart")
}

func TestInlineSVGDropsProlog(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\"?>\n<!-- Generated by SVGo -->\n<svg width=\"10\"></svg>")
	assert.Equal(t, template.HTML(`<svg width="10"></svg>`), InlineSVG(doc))
	assert.Equal(t, template.HTML(`<svg/>`), InlineSVG([]byte(`<svg/>`)))
}
