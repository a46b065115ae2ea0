// Package store persists chart state in Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/stackchart/internal/chart"
)

const (
	stateKeyPrefix  = "stackchart:chart:"
	exportKeyPrefix = "stackchart:export:"
)

// ErrNotFound is returned when no state or export exists for an id.
var ErrNotFound = errors.New("store: not found")

// State is everything needed to rebuild a chart: the raw input, the display
// configuration and the container size.
type State struct {
	ID        string       `json:"id"`
	Input     chart.Input  `json:"input"`
	Config    chart.Config `json:"config"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Store reads and writes chart state.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// New constructs a store. A zero ttl keeps state until deleted.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// NewID returns a fresh chart id.
func NewID() string {
	return uuid.NewString()
}

// Save writes state, assigning an id when it has none.
func (s *Store) Save(ctx context.Context, st *State) error {
	if st == nil {
		return errors.New("store: nil state")
	}
	if st.ID == "" {
		st.ID = NewID()
	}
	st.UpdatedAt = s.now()
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", st.ID, err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+st.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store: save %s: %w", st.ID, err)
	}
	return nil
}

// Load returns the state saved under id.
func (s *Store) Load(ctx context.Context, id string) (*State, error) {
	raw, err := s.client.Get(ctx, stateKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: chart %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", id, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return &st, nil
}

// Delete removes a chart and its export.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, stateKeyPrefix+id, exportKeyPrefix+id).Err()
}

// SaveExport stores a rendered document for id.
func (s *Store) SaveExport(ctx context.Context, id string, doc []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, exportKeyPrefix+id, doc, ttl).Err(); err != nil {
		return fmt.Errorf("store: save export %s: %w", id, err)
	}
	return nil
}

// LoadExport returns the rendered document stored for id.
func (s *Store) LoadExport(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.client.Get(ctx, exportKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: export %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load export %s: %w", id, err)
	}
	return doc, nil
}

// ExportKey is the Redis key holding the export of id.
func ExportKey(id string) string {
	return exportKeyPrefix + id
}

// Build reconstructs a rendered chart from the state.
func (st *State) Build(ctx context.Context, opts ...chart.Option) (*chart.Chart, error) {
	c := chart.New(append([]chart.Option{chart.WithID(st.ID)}, opts...)...)
	c.Load(st.Input)
	if err := c.Refresh(ctx, st.Config, st.Width, st.Height); err != nil {
		return nil, err
	}
	return c, nil
}
