package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/stackchart/internal/palette"
)

// PaletteCLI manages color schemes stored in Redis.
type PaletteCLI struct {
	client   *redis.Client
	provider *palette.Provider
}

// NewPaletteCLI connects the helper to redisAddr. An empty address serves
// built-in schemes only.
func NewPaletteCLI(redisAddr string) *PaletteCLI {
	if redisAddr == "" {
		return &PaletteCLI{provider: palette.NewProvider(nil, 0, nil)}
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	return &PaletteCLI{client: client, provider: palette.NewProvider(client, 0, nil)}
}

// Close releases the Redis connection.
func (c *PaletteCLI) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Show prints the colors of scheme, one per line.
func (c *PaletteCLI) Show(ctx context.Context, out io.Writer, scheme string) error {
	colors, err := c.provider.Resolve(ctx, scheme)
	if err != nil {
		return err
	}
	for _, color := range colors {
		_, _ = fmt.Fprintln(out, color)
	}
	return nil
}

// Set stores a custom scheme.
func (c *PaletteCLI) Set(ctx context.Context, scheme string, colors []string) error {
	return c.provider.SaveTheme(ctx, scheme, colors)
}

// Delete removes a custom scheme.
func (c *PaletteCLI) Delete(ctx context.Context, scheme string) error {
	return c.provider.DeleteTheme(ctx, scheme)
}

func newPaletteCommand(stdout, stderr io.Writer) *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Inspect and manage color schemes",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address holding custom schemes")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in schemes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range palette.Names() {
				_, _ = fmt.Fprintln(stdout, name)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <scheme>",
		Short: "Print the colors of a scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := NewPaletteCLI(redisAddr)
			defer func() { _ = p.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return p.Show(ctx, stdout, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <scheme> <color>...",
		Short: "Store a custom scheme",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := NewPaletteCLI(redisAddr)
			defer func() { _ = p.Close() }()
			if err := p.Set(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stderr, "stored %s (%s)\n", args[0], strings.Join(args[1:], " "))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <scheme>",
		Short: "Remove a custom scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := NewPaletteCLI(redisAddr)
			defer func() { _ = p.Close() }()
			return p.Delete(cmd.Context(), args[0])
		},
	})
	return cmd
}
