// Package selection delivers chart selections to the host.
package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/stackchart/internal/chart"
)

// DefaultChannel is the pub/sub channel selections are published on.
const DefaultChannel = "stackchart:selections"

// Event is one "select these values" request.
type Event struct {
	Chart  string    `json:"chart"`
	Dim    int       `json:"dim"`
	IDs    []int     `json:"ids"`
	Toggle bool      `json:"toggle"`
	At     time.Time `json:"at"`
}

// Publisher publishes selections of one chart over Redis pub/sub.
type Publisher struct {
	client  *redis.Client
	channel string
	chartID string
	now     func() time.Time
}

// NewPublisher constructs a publisher for chartID. An empty channel uses
// DefaultChannel.
func NewPublisher(client *redis.Client, channel, chartID string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel, chartID: chartID, now: func() time.Time { return time.Now().UTC() }}
}

// SelectValues implements chart.Selector.
func (p *Publisher) SelectValues(ctx context.Context, dim int, ids []int, toggle bool) error {
	raw, err := json.Marshal(Event{Chart: p.chartID, Dim: dim, IDs: ids, Toggle: toggle, At: p.now()})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("selection: publish: %w", err)
	}
	return nil
}

// Subscribe streams decoded events from channel until ctx ends.
func Subscribe(ctx context.Context, client *redis.Client, channel string) (<-chan Event, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("selection: subscribe: %w", err)
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Logger records selections in the log.
type Logger struct {
	logger  *slog.Logger
	chartID string
}

// NewLogger constructs a logging selector.
func NewLogger(logger *slog.Logger, chartID string) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, chartID: chartID}
}

// SelectValues implements chart.Selector.
func (l *Logger) SelectValues(_ context.Context, dim int, ids []int, toggle bool) error {
	l.logger.Info("select values",
		slog.String("chart", l.chartID),
		slog.Int("dim", dim),
		slog.Any("ids", ids),
		slog.Bool("toggle", toggle))
	return nil
}

// Fanout forwards selections to every selector and stops at the first error.
type Fanout []chart.Selector

// SelectValues implements chart.Selector.
func (f Fanout) SelectValues(ctx context.Context, dim int, ids []int, toggle bool) error {
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.SelectValues(ctx, dim, ids, toggle); err != nil {
			return err
		}
	}
	return nil
}
