package chart

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Orientation selects column (vertical) or row (horizontal) bars.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// LegendPosition places the legend block around the plot.
type LegendPosition string

const (
	LegendTop    LegendPosition = "T"
	LegendRight  LegendPosition = "R"
	LegendBottom LegendPosition = "B"
	LegendLeft   LegendPosition = "L"
)

// Size is the shared wide/medium/narrow enumeration used by margins and legends.
type Size string

const (
	SizeWide   Size = "W"
	SizeMedium Size = "M"
	SizeNarrow Size = "N"
)

// AxisDisplay controls which parts of an axis are drawn.
type AxisDisplay string

const (
	AxisBoth   AxisDisplay = "both"
	AxisLabels AxisDisplay = "labels"
	AxisTitle  AxisDisplay = "title"
	AxisNone   AxisDisplay = "none"
)

// LabelStyle controls the category axis label arrangement.
type LabelStyle string

const (
	LabelHorizontal LabelStyle = "horizontal"
	LabelStaggered  LabelStyle = "staggered"
	LabelTilted     LabelStyle = "tilted"
)

// NumberFormat selects the tick and total label formatter.
type NumberFormat string

const (
	FormatAuto    NumberFormat = "auto"
	FormatNumber  NumberFormat = "number"
	FormatPercent NumberFormat = "percent"
	FormatSI      NumberFormat = "si"
	FormatCustom  NumberFormat = "custom"
)

// TextMode selects which in-bar texts are drawn.
type TextMode string

const (
	TextNone  TextMode = "none"
	TextBars  TextMode = "bars"
	TextTotal TextMode = "total"
	TextBoth  TextMode = "both"
)

// Content selects what a bar or total label displays.
type Content string

const (
	ContentMeasure   Content = "measure"
	ContentDimension Content = "dimension"
	ContentPercent   Content = "percent"
)

// SizePolicy selects fixed or band-proportional label font size.
type SizePolicy string

const (
	SizeFixed        SizePolicy = "fixed"
	SizeProportional SizePolicy = "proportional"
)

// Align is a label alignment inside a bar.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
	AlignTop    Align = "top"
	AlignBottom Align = "bottom"
)

// SelectionMode controls how clicks turn into selections.
type SelectionMode string

const (
	SelectImmediate SelectionMode = "immediate"
	SelectConfirm   SelectionMode = "confirm"
)

// AutoColor lets the engine pick a contrasting label color.
const AutoColor = "Auto"

// Config is the display configuration of one chart.
type Config struct {
	Orientation Orientation `json:"orientation" yaml:"orientation" validate:"oneof=vertical horizontal"`
	Normalized  bool        `json:"normalized" yaml:"normalized"`
	ShowDeltas  bool        `json:"showDeltas" yaml:"showDeltas"`
	BarGap      float64     `json:"barGap" yaml:"barGap" validate:"gte=0,lte=1"`
	OuterGap    float64     `json:"outerGap" yaml:"outerGap" validate:"gte=0,lte=1"`
	GridHeight  float64     `json:"gridHeight" yaml:"gridHeight" validate:"gte=0"`

	ColorScheme string  `json:"colorScheme" yaml:"colorScheme"`
	SingleColor bool    `json:"singleColor" yaml:"singleColor"`
	Color       string  `json:"color" yaml:"color"`
	FontSize    float64 `json:"fontSize" yaml:"fontSize" validate:"gte=0"`

	Legend       LegendConfig  `json:"legend" yaml:"legend"`
	DimAxis      AxisConfig    `json:"dimAxis" yaml:"dimAxis"`
	MeasureAxis  AxisConfig    `json:"measureAxis" yaml:"measureAxis"`
	Text         TextConfig    `json:"text" yaml:"text"`
	Transition   Transition    `json:"transition" yaml:"transition"`
	Selection    SelectionMode `json:"selection" yaml:"selection" validate:"oneof=immediate confirm"`
	DeltaOpacity float64       `json:"deltaOpacity" yaml:"deltaOpacity" validate:"gte=0,lte=1"`

	// EditMode and Export describe the hosting context, not the chart.
	EditMode bool `json:"editMode" yaml:"editMode"`
	Export   bool `json:"export" yaml:"export"`
}

// LegendConfig configures the legend block.
type LegendConfig struct {
	Show     bool           `json:"show" yaml:"show"`
	Position LegendPosition `json:"position" yaml:"position" validate:"oneof=T R B L"`
	Size     Size           `json:"size" yaml:"size" validate:"oneof=W M N"`
	Spacing  Size           `json:"spacing" yaml:"spacing" validate:"oneof=W M N"`
}

// AxisConfig configures one axis.
type AxisConfig struct {
	Title        string       `json:"title" yaml:"title"`
	Display      AxisDisplay  `json:"display" yaml:"display" validate:"oneof=both labels title none"`
	LabelStyle   LabelStyle   `json:"labelStyle" yaml:"labelStyle" validate:"oneof=horizontal staggered tilted"`
	Gridlines    bool         `json:"gridlines" yaml:"gridlines"`
	Margin       Size         `json:"margin" yaml:"margin" validate:"oneof=W M N"`
	Ticks        int          `json:"ticks" yaml:"ticks" validate:"gte=0,lte=50"`
	Format       NumberFormat `json:"format" yaml:"format" validate:"oneof=auto number percent si custom"`
	FormatString string       `json:"formatString" yaml:"formatString" validate:"required_if=Format custom"`
}

// TextConfig configures in-bar and total labels.
type TextConfig struct {
	Mode       TextMode   `json:"mode" yaml:"mode" validate:"oneof=none bars total both"`
	Bar        Content    `json:"bar" yaml:"bar" validate:"oneof=measure dimension percent"`
	Total      Content    `json:"total" yaml:"total" validate:"oneof=measure dimension"`
	PadH       float64    `json:"padH" yaml:"padH" validate:"gte=0"`
	PadV       float64    `json:"padV" yaml:"padV" validate:"gte=0"`
	SizePolicy SizePolicy `json:"sizePolicy" yaml:"sizePolicy" validate:"oneof=fixed proportional"`
	FontSize   float64    `json:"fontSize" yaml:"fontSize" validate:"gte=0"`
	MaxSize    float64    `json:"maxSize" yaml:"maxSize" validate:"gte=0"`
	Color      string     `json:"color" yaml:"color"`
	AlignH     Align      `json:"alignH" yaml:"alignH" validate:"oneof=left center right"`
	AlignV     Align      `json:"alignV" yaml:"alignV" validate:"oneof=top center bottom"`
	Rotate     bool       `json:"rotate" yaml:"rotate"`
	NoEllipsis bool       `json:"noEllipsis" yaml:"noEllipsis"`
}

// Transition configures animated updates.
type Transition struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Delay    int    `json:"delay" yaml:"delay" validate:"gte=0"`
	Duration int    `json:"duration" yaml:"duration" validate:"gte=0"`
	Ease     string `json:"ease" yaml:"ease"`
}

// DefaultConfig returns the configuration used when a field is left empty.
func DefaultConfig() Config {
	return Config{
		Orientation: Vertical,
		BarGap:      0.2,
		OuterGap:    0.1,
		GridHeight:  1.1,
		ColorScheme: "category10",
		Color:       "#4477aa",
		FontSize:    11,
		Legend: LegendConfig{
			Show:     true,
			Position: LegendRight,
			Size:     SizeMedium,
			Spacing:  SizeMedium,
		},
		DimAxis: AxisConfig{
			Display:    AxisBoth,
			LabelStyle: LabelHorizontal,
			Margin:     SizeMedium,
			Format:     FormatAuto,
		},
		MeasureAxis: AxisConfig{
			Display:    AxisLabels,
			LabelStyle: LabelHorizontal,
			Gridlines:  true,
			Margin:     SizeMedium,
			Ticks:      5,
			Format:     FormatAuto,
		},
		Text: TextConfig{
			Mode:       TextNone,
			Bar:        ContentMeasure,
			Total:      ContentMeasure,
			PadH:       3,
			PadV:       3,
			SizePolicy: SizeFixed,
			FontSize:   11,
			MaxSize:    14,
			Color:      AutoColor,
			AlignH:     AlignCenter,
			AlignV:     AlignCenter,
		},
		Transition: Transition{
			Enabled:  true,
			Delay:    0,
			Duration: 750,
			Ease:     "cubic",
		},
		Selection:    SelectImmediate,
		DeltaOpacity: 0.5,
	}
}

// WithDefaults fills empty enumerations from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Orientation == "" {
		c.Orientation = def.Orientation
	}
	if c.ColorScheme == "" {
		c.ColorScheme = def.ColorScheme
	}
	if c.Color == "" {
		c.Color = def.Color
	}
	if c.FontSize <= 0 {
		c.FontSize = def.FontSize
	}
	if c.Legend.Position == "" {
		c.Legend.Position = def.Legend.Position
	}
	if c.Legend.Size == "" {
		c.Legend.Size = def.Legend.Size
	}
	if c.Legend.Spacing == "" {
		c.Legend.Spacing = def.Legend.Spacing
	}
	c.DimAxis = c.DimAxis.withDefaults(def.DimAxis)
	c.MeasureAxis = c.MeasureAxis.withDefaults(def.MeasureAxis)
	if c.Text.Mode == "" {
		c.Text.Mode = def.Text.Mode
	}
	if c.Text.Bar == "" {
		c.Text.Bar = def.Text.Bar
	}
	if c.Text.Total == "" {
		c.Text.Total = def.Text.Total
	}
	if c.Text.SizePolicy == "" {
		c.Text.SizePolicy = def.Text.SizePolicy
	}
	if c.Text.FontSize <= 0 {
		c.Text.FontSize = def.Text.FontSize
	}
	if c.Text.MaxSize <= 0 {
		c.Text.MaxSize = def.Text.MaxSize
	}
	if c.Text.Color == "" {
		c.Text.Color = def.Text.Color
	}
	if c.Text.AlignH == "" {
		c.Text.AlignH = def.Text.AlignH
	}
	if c.Text.AlignV == "" {
		c.Text.AlignV = def.Text.AlignV
	}
	if c.Transition.Ease == "" {
		c.Transition.Ease = def.Transition.Ease
	}
	if c.Selection == "" {
		c.Selection = def.Selection
	}
	return c
}

func (a AxisConfig) withDefaults(def AxisConfig) AxisConfig {
	if a.Display == "" {
		a.Display = def.Display
	}
	if a.LabelStyle == "" {
		a.LabelStyle = def.LabelStyle
	}
	if a.Margin == "" {
		a.Margin = def.Margin
	}
	if a.Format == "" {
		a.Format = def.Format
	}
	if a.Ticks <= 0 {
		a.Ticks = def.Ticks
	}
	return a
}

// ShowLabels reports whether axis labels are drawn.
func (a AxisConfig) ShowLabels() bool {
	return a.Display == AxisBoth || a.Display == AxisLabels
}

// ShowTitle reports whether the axis title is drawn.
func (a AxisConfig) ShowTitle() bool {
	return (a.Display == AxisBoth || a.Display == AxisTitle) && strings.TrimSpace(a.Title) != ""
}

// BarLabels reports whether in-bar labels are requested.
func (t TextConfig) BarLabels() bool {
	return t.Mode == TextBars || t.Mode == TextBoth
}

// TotalLabels reports whether total labels are requested.
func (t TextConfig) TotalLabels() bool {
	return t.Mode == TextTotal || t.Mode == TextBoth
}

var configValidator = validator.New()

// Validate checks enumerations and numeric ranges.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
