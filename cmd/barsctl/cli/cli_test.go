package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordsInput = `{
	"dimensions": 2,
	"measures": 1,
	"columns": ["Region", "Quarter", "Sales"],
	"records": [["North", "Q1", 10], ["North", "Q2", 5], ["South", "Q1", 7]]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root := NewRootCommand(stdout, stderr)
	root.SetIn(strings.NewReader(stdin))
	code := 0
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		code = 1
		if exit, ok := err.(exitError); ok {
			code = exit.code
		}
	}
	return code, stdout.String(), stderr.String()
}

func TestRenderCommandWritesSVG(t *testing.T) {
	input := writeFile(t, "sales.json", recordsInput)
	config := writeFile(t, "chart.yaml", "orientation: horizontal\ncolorScheme: set2\ndimAxis:\n  title: Sales by region\n")
	output := filepath.Join(t.TempDir(), "out.svg")

	stderr := new(bytes.Buffer)
	code := RenderCommand(context.Background(), RenderOptions{
		Input:      input,
		ConfigPath: config,
		Width:      640,
		Height:     400,
		Output:     output,
		Stderr:     stderr,
	})
	require.Equal(t, 0, code, stderr.String())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	svg := string(raw)
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "Sales by region")
	assert.Contains(t, svg, `data-key="g1|North|Q1"`)
	assert.NotContains(t, svg, "<animate")
}

func TestRenderCommandFromStdin(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := RenderCommand(context.Background(), RenderOptions{
		Input:   "-",
		Stdin:   strings.NewReader(recordsInput),
		Width:   400,
		Height:  300,
		Animate: true,
		Stdout:  stdout,
		Stderr:  new(bytes.Buffer),
	})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "<animate")
}

func TestRenderCommandShapeMismatch(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := RenderCommand(context.Background(), RenderOptions{
		Input:  "-",
		Stdin:  strings.NewReader(`{"dimensions":2,"measures":1,"rows":[[{"elementId":0,"displayText":"A"}]]}`),
		Width:  400,
		Height: 300,
		Stdout: new(bytes.Buffer),
		Stderr: stderr,
	})
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "rows do not match")
}

func TestRenderCommandBadConfig(t *testing.T) {
	input := writeFile(t, "sales.json", recordsInput)
	config := writeFile(t, "chart.yaml", "barGap: 3\n")
	stderr := new(bytes.Buffer)
	code := RenderCommand(context.Background(), RenderOptions{
		Input:      input,
		ConfigPath: config,
		Width:      400,
		Height:     300,
		Stdout:     new(bytes.Buffer),
		Stderr:     stderr,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid config")
}

func TestRenderFlagsThroughCobra(t *testing.T) {
	input := writeFile(t, "sales.json", recordsInput)
	code, stdout, _ := run(t, "", "render", "-i", input, "--width", "500", "--font-metrics=false")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "<?xml"))
}

func TestPaletteCommands(t *testing.T) {
	code, stdout, _ := run(t, "", "palette", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "category10")

	mr := miniredis.RunT(t)
	code, _, _ = run(t, "", "palette", "--redis", mr.Addr(), "set", "brand", "#112233", "#445566")
	require.Equal(t, 0, code)

	code, stdout, _ = run(t, "", "palette", "--redis", mr.Addr(), "show", "brand")
	require.Equal(t, 0, code)
	assert.Equal(t, "#112233\n#445566\n", stdout)

	code, _, _ = run(t, "", "palette", "--redis", mr.Addr(), "set", "brand", "blue")
	assert.Equal(t, 1, code)

	code, _, _ = run(t, "", "palette", "--redis", mr.Addr(), "delete", "brand")
	require.Equal(t, 0, code)
	code, _, _ = run(t, "", "palette", "--redis", mr.Addr(), "show", "brand")
	assert.Equal(t, 1, code)
}

func TestTriggerExportNeedsChartID(t *testing.T) {
	c, err := NewJobsCLI("127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	_, err = c.TriggerExport(context.Background(), "", "")
	assert.Error(t, err)
}

func TestExecuteReportsUnknownCommand(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := Execute(context.Background(), []string{"nope"}, new(bytes.Buffer), stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "barsctl:")
}
