package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo"
)

// SVGOptions controls document level output.
type SVGOptions struct {
	ID          string
	Title       string
	Description string
	Now         time.Time
}

// WriteSVG serializes the scene as sampled at opts.Now. Elements still in
// flight carry SMIL animations towards their targets.
func WriteSVG(w io.Writer, s *Scene, lay *Layout, opts SVGOptions) error {
	if s == nil || lay == nil {
		return ErrNotPlanned
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	titleID := makeID(opts.ID, "title")
	descID := makeID(opts.ID, "desc")
	canvas.Start(px(lay.Width), px(lay.Height),
		attr("id", makeID(opts.ID, "chart")),
		`role="img"`,
		attr("aria-labelledby", titleID+" "+descID),
		`font-family="sans-serif"`)
	fmt.Fprintf(canvas.Writer, "<title id=%q>%s</title>\n", titleID, template.HTMLEscapeString(fallback(opts.Title, "Stacked bar chart")))
	fmt.Fprintf(canvas.Writer, "<desc id=%q>%s</desc>\n", descID, template.HTMLEscapeString(fallback(opts.Description, "Stacked bar chart")))

	canvas.Group(`class="plot"`, fmt.Sprintf(`transform="translate(%d,%d)"`, px(lay.Margin.Left), px(lay.Margin.Top)))
	for _, l := range layerOrder {
		if l == LayerLegend {
			continue
		}
		writeLayer(canvas, s, l, opts)
	}
	canvas.Gend()
	canvas.Group(`class="legend"`)
	writeLayer(canvas, s, LayerLegend, opts)
	canvas.Gend()
	canvas.End()

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("chart: write svg: %w", err)
	}
	return nil
}

func writeLayer(canvas *svg.SVG, s *Scene, l Layer, opts SVGOptions) {
	canvas.Group(attr("class", string(l)))
	for i, e := range s.Elements(l) {
		id := makeID(opts.ID, fmt.Sprintf("%s-%d", l, i))
		writeElement(canvas, e, id, opts.Now)
	}
	canvas.Gend()
}

func writeElement(canvas *svg.SVG, e *Element, id string, now time.Time) {
	a := e.At(now)
	class := e.Class
	if e.Selected {
		class += " selected"
	}
	canvas.Group(attr("class", class), attr("data-key", e.Key))
	if e.Title != "" {
		canvas.Title(e.Title)
	}
	opacity := fmt.Sprintf(`opacity="%.3g"`, a.Opacity)
	switch e.Kind {
	case KindRect:
		canvas.Rect(px(a.X), px(a.Y), px(a.W), px(a.H), attr("id", id), attr("fill", a.Fill), opacity)
	case KindText:
		writeText(canvas, a.X, a.Y, a, attr("id", id), opacity)
	case KindPolygon:
		xs := make([]int, len(a.Points))
		ys := make([]int, len(a.Points))
		for i, p := range a.Points {
			xs[i], ys[i] = px(p.X), px(p.Y)
		}
		canvas.Polygon(xs, ys, attr("id", id), attr("fill", a.Fill), opacity)
	case KindLine:
		canvas.Line(px(a.X), px(a.Y), px(a.X2), px(a.Y2), attr("id", id), attr("stroke", a.Stroke), opacity)
	case KindTick:
		canvas.Line(px(a.X), px(a.Y), px(a.X2), px(a.Y2), attr("id", id), attr("stroke", a.Stroke), opacity)
		if a.Text != "" {
			writeText(canvas, a.TextX, a.TextY, a, opacity)
		}
	case KindSwatch:
		canvas.Rect(px(a.X), px(a.Y), px(a.W), px(a.H), attr("id", id), attr("fill", a.Fill), opacity)
		label := a
		label.Anchor = AnchorStart
		label.Rotation = 0
		label.Fill = axisColor
		writeText(canvas, a.X+a.W+legendGap, a.Y+a.H*0.85, label, opacity)
	}
	if !e.Done(now) {
		writeAnimation(canvas, e, id, a, now)
	}
	canvas.Gend()
}

func writeText(canvas *svg.SVG, x, y float64, a Attrs, extra ...string) {
	s := []string{
		attr("font-size", fmt.Sprintf("%.3g", a.FontSize)),
		attr("fill", a.Fill),
		attr("text-anchor", fallback(string(a.Anchor), string(AnchorStart))),
	}
	if a.Rotation != 0 {
		s = append(s, fmt.Sprintf(`transform="rotate(%.3g %d %d)"`, a.Rotation, px(x), px(y)))
	}
	canvas.Text(px(x), px(y), a.Text, append(s, extra...)...)
}

// writeAnimation emits the remainder of a running transition.
func writeAnimation(canvas *svg.SVG, e *Element, id string, cur Attrs, now time.Time) {
	tm := e.Timing()
	target := e.Target()
	p := e.Progress(now)
	remaining := time.Duration(float64(tm.Duration) * (1 - p))
	wait := tm.Delay - now.Sub(e.Started())
	if wait < 0 {
		wait = 0
	}
	dur := math.Max(remaining.Seconds(), 0.001)
	begin := fmt.Sprintf(`begin="%.3gs"`, wait.Seconds())
	freeze := `fill="freeze"`

	ints := map[string][2]int{}
	switch e.Kind {
	case KindRect, KindSwatch:
		ints["x"] = [2]int{px(cur.X), px(target.X)}
		ints["y"] = [2]int{px(cur.Y), px(target.Y)}
		ints["width"] = [2]int{px(cur.W), px(target.W)}
		ints["height"] = [2]int{px(cur.H), px(target.H)}
	case KindText:
		if cur.Rotation == 0 && target.Rotation == 0 {
			ints["x"] = [2]int{px(cur.X), px(target.X)}
			ints["y"] = [2]int{px(cur.Y), px(target.Y)}
		}
	case KindLine, KindTick:
		ints["x1"] = [2]int{px(cur.X), px(target.X)}
		ints["y1"] = [2]int{px(cur.Y), px(target.Y)}
		ints["x2"] = [2]int{px(cur.X2), px(target.X2)}
		ints["y2"] = [2]int{px(cur.Y2), px(target.Y2)}
	}
	for _, name := range []string{"x", "y", "width", "height", "x1", "y1", "x2", "y2"} {
		v, ok := ints[name]
		if !ok || v[0] == v[1] {
			continue
		}
		canvas.Animate("#"+id, name, v[0], v[1], dur, 1, begin, freeze)
	}
	if cur.Opacity != target.Opacity {
		fmt.Fprintf(canvas.Writer, `<animate xlink:href="#%s" attributeName="opacity" from="%.3g" to="%.3g" dur="%.3gs" %s %s />`+"\n",
			id, cur.Opacity, target.Opacity, dur, begin, freeze)
	}
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, template.HTMLEscapeString(value))
}

func px(v float64) int {
	return int(math.Round(finite(v)))
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}
