package palette

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/stackchart/internal/chart"
)

const (
	themeKeyPrefix = "stackchart:palette:"
	defaultTimeout = 5 * time.Second
)

var colorValidator = validator.New()

// Provider resolves schemes from themes stored in Redis and falls back to
// the built-in schemes. Concurrent lookups of one scheme share a single
// Redis round trip.
type Provider struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// NewProvider constructs a provider. A nil client serves built-in schemes only.
func NewProvider(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, ttl: ttl, timeout: defaultTimeout, logger: logger}
}

// Fetch starts resolving scheme and returns immediately.
func (p *Provider) Fetch(scheme string) chart.PaletteFuture {
	f := newFuture()
	name := normalizeName(scheme)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		ch := p.group.DoChan(name, func() (interface{}, error) {
			return p.lookup(ctx, name)
		})
		select {
		case <-ctx.Done():
			f.resolve(nil, ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				f.resolve(nil, res.Err)
				return
			}
			f.resolve(res.Val.([]string), nil)
		}
	}()
	return f
}

// Resolve is the blocking form of Fetch.
func (p *Provider) Resolve(ctx context.Context, scheme string) ([]string, error) {
	return p.Fetch(scheme).Await(ctx)
}

func (p *Provider) lookup(ctx context.Context, name string) ([]string, error) {
	if p.client != nil {
		raw, err := p.client.Get(ctx, themeKeyPrefix+name).Bytes()
		switch {
		case err == nil:
			var colors []string
			if err := json.Unmarshal(raw, &colors); err != nil {
				return nil, fmt.Errorf("palette: decode theme %q: %w", name, err)
			}
			return colors, nil
		case !errors.Is(err, redis.Nil):
			p.logger.Warn("palette theme lookup failed, using built-in", slog.String("scheme", name), slog.Any("error", err))
		}
	}
	colors, err := Builtin(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, name)
	}
	return colors, nil
}

// SaveTheme stores a custom scheme. Every color must be a hex color.
func (p *Provider) SaveTheme(ctx context.Context, scheme string, colors []string) error {
	if p.client == nil {
		return errors.New("palette: theme storage not configured")
	}
	name := normalizeName(scheme)
	if name == "" || len(colors) == 0 {
		return fmt.Errorf("palette: theme needs a name and at least one color")
	}
	for _, c := range colors {
		if err := colorValidator.Var(c, "hexcolor"); err != nil {
			return fmt.Errorf("palette: color %q: %w", c, err)
		}
	}
	raw, err := json.Marshal(colors)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, themeKeyPrefix+name, raw, p.ttl).Err()
}

// DeleteTheme removes a custom scheme so the built-in one applies again.
func (p *Provider) DeleteTheme(ctx context.Context, scheme string) error {
	if p.client == nil {
		return nil
	}
	return p.client.Del(ctx, themeKeyPrefix+normalizeName(scheme)).Err()
}
