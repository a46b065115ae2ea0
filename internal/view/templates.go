package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/odyssey-erp/stackchart/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	css       template.CSS
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title     string
	ChartID   string
	SVG       template.HTML
	UpdatedAt time.Time
	Inline    template.CSS
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	css, err := web.Static.ReadFile("static/css/chart.css")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl, css: template.CSS(css)}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// ExportPage wraps a rendered SVG in a self-contained HTML document suitable
// for PDF conversion.
func (e *Engine) ExportPage(title string, svg []byte) (string, error) {
	if e == nil {
		return "", fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	data := TemplateData{Title: title, SVG: InlineSVG(svg), Inline: e.css}
	if err := e.templates.ExecuteTemplate(&buf, "pages/export.html", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// InlineSVG drops the XML prolog of a standalone SVG document so it can be
// embedded in HTML.
func InlineSVG(doc []byte) template.HTML {
	if i := bytes.Index(doc, []byte("<svg")); i > 0 {
		doc = doc[i:]
	}
	return template.HTML(doc)
}
