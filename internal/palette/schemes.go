// Package palette resolves color schemes for charts.
package palette

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownScheme is returned when neither a stored theme nor a built-in
// scheme matches the requested name.
var ErrUnknownScheme = errors.New("palette: unknown scheme")

var builtin = map[string][]string{
	"category10": {"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf"},
	"tableau10":  {"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f", "#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab"},
	"set2":       {"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#a6d854", "#ffd92f", "#e5c494", "#b3b3b3"},
	"dark2":      {"#1b9e77", "#d95f02", "#7570b3", "#e7298a", "#66a61e", "#e6ab02", "#a6761d", "#666666"},
	"pastel1":    {"#fbb4ae", "#b3cde3", "#ccebc5", "#decbe4", "#fed9a6", "#ffffcc", "#e5d8bd", "#fddaec", "#f2f2f2"},
	"greys":      {"#252525", "#525252", "#737373", "#969696", "#bdbdbd", "#d9d9d9"},
}

// Builtin returns a copy of a built-in scheme.
func Builtin(name string) ([]string, error) {
	colors, ok := builtin[normalizeName(name)]
	if !ok {
		return nil, ErrUnknownScheme
	}
	return append([]string(nil), colors...), nil
}

// Names lists the built-in schemes.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
