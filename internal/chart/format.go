package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders a tick or total value.
type Formatter func(float64) string

var printer = message.NewPrinter(language.English)

var formatters = map[NumberFormat]func(spec string) Formatter{
	FormatAuto:    func(string) Formatter { return formatSI },
	FormatNumber:  func(string) Formatter { return formatNumber },
	FormatPercent: func(string) Formatter { return formatPercent },
	FormatSI:      func(string) Formatter { return formatSI },
	FormatCustom:  customFormatter,
}

// NewFormatter returns the formatter registered for the given mode.
func NewFormatter(mode NumberFormat, spec string) Formatter {
	build, ok := formatters[mode]
	if !ok {
		return formatSI
	}
	return build(spec)
}

func formatNumber(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

func formatPercent(v float64) string {
	return printer.Sprint(number.Percent(v, number.MaxFractionDigits(1)))
}

var siPrefixes = []string{"y", "z", "a", "f", "p", "n", "µ", "m", "", "k", "M", "G", "T", "P", "E", "Z", "Y"}

// formatSI uses three significant digits and a metric suffix, trimming zeros.
func formatSI(v float64) string {
	return siDigits(v, 3)
}

func siDigits(v float64, digits int) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	exp := int(math.Floor(math.Log10(math.Abs(v))))
	group := int(math.Floor(float64(exp) / 3))
	if group < -8 {
		group = -8
	}
	if group > 8 {
		group = 8
	}
	scaled := v / math.Pow(10, float64(3*group))
	s := strconv.FormatFloat(scaled, 'f', sigDecimals(scaled, digits), 64)
	// 999.96k rounds up to the next prefix.
	if r, err := strconv.ParseFloat(s, 64); err == nil && math.Abs(r) >= 1000 && group < 8 {
		group++
		scaled /= 1000
		s = strconv.FormatFloat(scaled, 'f', sigDecimals(scaled, digits), 64)
	}
	return trimZeros(s) + siPrefixes[group+8]
}

func sigDecimals(v float64, digits int) int {
	d := digits - 1 - int(math.Floor(math.Log10(math.Abs(v))))
	if d < 0 {
		return 0
	}
	return d
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// customFormatter parses "[$][,][.precision][type]" where type is one of
// f, d, %, s or e. Unknown specs fall back to the SI formatter.
func customFormatter(spec string) Formatter {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return formatSI
	}
	currency := strings.HasPrefix(spec, "$")
	spec = strings.TrimPrefix(spec, "$")
	group := strings.HasPrefix(spec, ",")
	spec = strings.TrimPrefix(spec, ",")

	precision := -1
	if strings.HasPrefix(spec, ".") {
		end := 1
		for end < len(spec) && spec[end] >= '0' && spec[end] <= '9' {
			end++
		}
		p, err := strconv.Atoi(spec[1:end])
		if err != nil {
			return formatSI
		}
		precision = p
		spec = spec[end:]
	}
	kind := spec
	if kind == "" {
		kind = "f"
	}

	var base Formatter
	switch kind {
	case "f":
		p := precision
		if p < 0 {
			p = 2
		}
		base = fixedFormatter(p, group)
	case "d":
		base = fixedFormatter(0, group)
	case "%":
		p := precision
		if p < 0 {
			p = 0
		}
		inner := fixedFormatter(p, group)
		base = func(v float64) string { return inner(v*100) + "%" }
	case "s":
		p := precision
		if p <= 0 {
			p = 3
		}
		base = func(v float64) string { return siDigits(v, p) }
	case "e":
		p := precision
		if p < 0 {
			p = 2
		}
		base = func(v float64) string { return strconv.FormatFloat(v, 'e', p, 64) }
	default:
		return formatSI
	}
	if !currency {
		return base
	}
	return func(v float64) string {
		if v < 0 {
			return "-$" + base(-v)
		}
		return "$" + base(v)
	}
}

func fixedFormatter(precision int, group bool) Formatter {
	if !group {
		return func(v float64) string { return strconv.FormatFloat(v, 'f', precision, 64) }
	}
	return func(v float64) string {
		return printer.Sprint(number.Decimal(v,
			number.MinFractionDigits(precision),
			number.MaxFractionDigits(precision)))
	}
}

// formatTotal renders a category total for a total label.
func formatTotal(v float64, normalized bool) string {
	if normalized {
		return formatPct(v)
	}
	return formatNumber(v)
}

// describe is used by tooltips.
func describe(seg *Segment) string {
	if seg.TextPct != "" {
		return fmt.Sprintf("%s, %s: %s (%s)", seg.Dim1, seg.Dim2, seg.Text, seg.TextPct)
	}
	if seg.Dim1 == seg.Dim2 {
		return fmt.Sprintf("%s: %s", seg.Dim1, seg.Text)
	}
	return fmt.Sprintf("%s, %s: %s", seg.Dim1, seg.Dim2, seg.Text)
}
