package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/stackchart/internal/chart"
	"github.com/odyssey-erp/stackchart/internal/palette"
	"github.com/odyssey-erp/stackchart/internal/source"
)

// RenderOptions defines the flags of the render command.
type RenderOptions struct {
	Input      string
	Sheet      string
	Dimensions int
	Measures   int
	ConfigPath string
	Width      float64
	Height     float64
	Output     string
	Animate    bool
	FontMetric bool
	Verbose    bool
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

func newRenderCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := RenderOptions{Stdin: os.Stdin, Stdout: stdout, Stderr: stderr}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart from JSON or xlsx input to SVG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitCode(RenderCommand(cmd.Context(), opts))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", "-", "input file (.json or .xlsx, - for stdin JSON)")
	f.StringVar(&opts.Sheet, "sheet", "", "worksheet name for xlsx input (default first sheet)")
	f.IntVar(&opts.Dimensions, "dims", 2, "dimension columns in xlsx input")
	f.IntVar(&opts.Measures, "measures", 1, "measure columns in xlsx input")
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "chart configuration file (YAML or JSON)")
	f.Float64Var(&opts.Width, "width", 800, "container width in pixels")
	f.Float64Var(&opts.Height, "height", 500, "container height in pixels")
	f.StringVarP(&opts.Output, "output", "o", "-", "output SVG file (- for stdout)")
	f.BoolVar(&opts.Animate, "animate", false, "keep enter transitions in the SVG")
	f.BoolVar(&opts.FontMetric, "font-metrics", true, "measure label text with the embedded font")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "log chart engine decisions")
	return cmd
}

// RenderCommand renders one chart and returns the exit code.
func RenderCommand(ctx context.Context, opts RenderOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{Level: level}))

	in, err := readInput(opts)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
		return 1
	}
	cfg, err := readConfig(opts.ConfigPath)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
		return 1
	}
	if !opts.Animate {
		cfg.Export = true
	}

	chartOpts := []chart.Option{
		chart.WithID("barsctl"),
		chart.WithLogger(logger),
		chart.WithPalette(palette.NewProvider(nil, 0, logger)),
	}
	if opts.FontMetric {
		m, err := chart.NewFontMeasurer()
		if err != nil {
			logger.Warn("font metrics unavailable, using estimates", slog.Any("error", err))
		} else {
			chartOpts = append(chartOpts, chart.WithMeasurer(m))
		}
	}

	c := chart.New(chartOpts...)
	if !c.Load(in) {
		_, _ = fmt.Fprintf(opts.Stderr, "render: rows do not match %d dimensions and %d measures\n", in.Dimensions, in.Measures)
		return 2
	}
	if err := c.Refresh(ctx, cfg, opts.Width, opts.Height); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
		return 1
	}

	out := opts.Stdout
	if opts.Output != "" && opts.Output != "-" {
		file, err := os.Create(opts.Output)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
			return 1
		}
		defer func() { _ = file.Close() }()
		out = file
	}
	if err := c.WriteSVG(out); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: write svg: %v\n", err)
		return 1
	}
	return 0
}

func readInput(opts RenderOptions) (chart.Input, error) {
	if opts.Input == "" || opts.Input == "-" {
		if opts.Stdin == nil {
			return chart.Input{}, fmt.Errorf("no input")
		}
		return source.ReadJSON(opts.Stdin)
	}
	file, err := os.Open(opts.Input)
	if err != nil {
		return chart.Input{}, err
	}
	defer func() { _ = file.Close() }()
	switch strings.ToLower(filepath.Ext(opts.Input)) {
	case ".xlsx", ".xlsm":
		return source.ReadXLSX(file, opts.Sheet, opts.Dimensions, opts.Measures)
	default:
		return source.ReadJSON(file)
	}
}

// readConfig overlays a YAML (or JSON) file on the default configuration.
func readConfig(path string) (chart.Config, error) {
	cfg := chart.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
