package chart

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Box is the measured extent of a string.
type Box struct {
	W float64
	H float64
}

// TextMeasurer measures strings at a font size, like an off-screen text node.
type TextMeasurer interface {
	Measure(text string, size float64) Box
	// Reset drops cached state; the planner calls it on every layout.
	Reset()
}

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	regularErr  error
)

func loadRegular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// FontMeasurer measures text with the Go Regular font.
type FontMeasurer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewFontMeasurer parses the embedded font once and returns a measurer.
func NewFontMeasurer() (*FontMeasurer, error) {
	f, err := loadRegular()
	if err != nil {
		return nil, fmt.Errorf("chart: parse font: %w", err)
	}
	return &FontMeasurer{font: f, faces: map[float64]font.Face{}}, nil
}

// Measure returns the advance width and line height of text.
func (m *FontMeasurer) Measure(text string, size float64) Box {
	if size <= 0 || text == "" {
		return Box{H: nonNegative(size)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(size)
	if err != nil {
		return approxBox(text, size)
	}
	adv := font.MeasureString(face, text)
	metrics := face.Metrics()
	return Box{
		W: float64(adv) / 64,
		H: float64(metrics.Ascent+metrics.Descent) / 64,
	}
}

// Reset closes cached faces.
func (m *FontMeasurer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.faces {
		_ = f.Close()
	}
	m.faces = map[float64]font.Face{}
}

// face returns the cached face for size. The caller holds mu.
func (m *FontMeasurer) face(size float64) (font.Face, error) {
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// approxBox estimates an extent when no face is available.
func approxBox(text string, size float64) Box {
	return Box{W: float64(len([]rune(text))) * size * 0.55, H: size * 1.2}
}

// FixedMeasurer treats every rune as CharWidth × size wide. It is useful for
// deterministic layouts.
type FixedMeasurer struct {
	CharWidth float64
}

// Measure implements TextMeasurer.
func (f FixedMeasurer) Measure(text string, size float64) Box {
	cw := f.CharWidth
	if cw <= 0 {
		cw = 0.6
	}
	return Box{W: float64(len([]rune(text))) * cw * size, H: size}
}

// Reset implements TextMeasurer.
func (FixedMeasurer) Reset() {}
