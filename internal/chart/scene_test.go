package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var timeZero = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func linear100() Timing {
	return Timing{Duration: 100 * time.Millisecond, Ease: Ease("linear")}
}

func TestReconcileCreatesFromEnterState(t *testing.T) {
	s := NewScene()
	stats := s.Reconcile(LayerBars, []Desired{{Key: "a", Kind: KindRect, Attrs: Attrs{X: 10, Opacity: 1}}}, timeZero, linear100())
	assert.Equal(t, ReconcileStats{Created: 1}, stats)

	e, ok := s.Get(LayerBars, "a")
	require.True(t, ok)
	mid := e.At(timeZero.Add(50 * time.Millisecond))
	assert.InDelta(t, 0.5, mid.Opacity, 1e-9)
	assert.InDelta(t, 10, mid.X, 1e-9)
	assert.True(t, e.Done(timeZero.Add(100*time.Millisecond)))
}

func TestReconcileRetargetsFromCurrentState(t *testing.T) {
	s := NewScene()
	s.Reconcile(LayerBars, []Desired{{Key: "a", Kind: KindRect, Attrs: Attrs{X: 10, Opacity: 1}}}, timeZero, linear100())

	half := timeZero.Add(50 * time.Millisecond)
	stats := s.Reconcile(LayerBars, []Desired{{Key: "a", Kind: KindRect, Attrs: Attrs{X: 20, Opacity: 1}}}, half, linear100())
	assert.Equal(t, ReconcileStats{Updated: 1}, stats)

	e, _ := s.Get(LayerBars, "a")
	assert.InDelta(t, 0.5, e.Source().Opacity, 1e-9, "new transition starts where the old one was")
	now := e.At(half.Add(50 * time.Millisecond))
	assert.InDelta(t, 15, now.X, 1e-9)
	assert.InDelta(t, 0.75, now.Opacity, 1e-9)
	assert.Equal(t, 20.0, e.At(half.Add(time.Second)).X)
}

func TestReconcileRemovesAfterExit(t *testing.T) {
	s := NewScene()
	s.Reconcile(LayerBars, []Desired{{Key: "a", Kind: KindRect, Attrs: Attrs{Opacity: 1}}}, timeZero, Timing{})
	start := timeZero.Add(time.Second)
	stats := s.Reconcile(LayerBars, nil, start, linear100())
	assert.Equal(t, ReconcileStats{Removed: 1}, stats)

	e, ok := s.Get(LayerBars, "a")
	require.True(t, ok)
	assert.True(t, e.Exiting())

	assert.Equal(t, 0, s.Sweep(start.Add(50*time.Millisecond)))
	assert.Equal(t, 1, s.Sweep(start.Add(100*time.Millisecond)))
	assert.Equal(t, 0, s.Len(LayerBars))
}

func TestReconcileRevivesExitingElement(t *testing.T) {
	s := NewScene()
	d := Desired{Key: "a", Kind: KindRect, Attrs: Attrs{Opacity: 1}}
	s.Reconcile(LayerBars, []Desired{d}, timeZero, Timing{})
	s.Reconcile(LayerBars, nil, timeZero, linear100())
	stats := s.Reconcile(LayerBars, []Desired{d}, timeZero.Add(50*time.Millisecond), linear100())
	assert.Equal(t, 1, stats.Updated)
	e, _ := s.Get(LayerBars, "a")
	assert.False(t, e.Exiting())
}

func TestReconcileImmediateDropsAtOnce(t *testing.T) {
	s := NewScene()
	s.Reconcile(LayerLegend, []Desired{{Key: "P"}, {Key: "Q"}}, timeZero, Timing{})
	require.Equal(t, 2, s.Len(LayerLegend))
	s.Reconcile(LayerLegend, []Desired{{Key: "Q"}}, timeZero, Timing{})
	assert.Equal(t, 1, s.Len(LayerLegend))
	_, ok := s.Get(LayerLegend, "P")
	assert.False(t, ok)
}

func TestTransitionDelay(t *testing.T) {
	s := NewScene()
	tm := Timing{Delay: 20 * time.Millisecond, Duration: 100 * time.Millisecond, Ease: Ease("linear")}
	s.Reconcile(LayerBars, []Desired{{Key: "a", Attrs: Attrs{Opacity: 1}}}, timeZero, tm)
	e, _ := s.Get(LayerBars, "a")
	assert.Equal(t, 0.0, e.At(timeZero.Add(10*time.Millisecond)).Opacity)
	assert.InDelta(t, 0.5, e.At(timeZero.Add(70*time.Millisecond)).Opacity, 1e-9)
	assert.False(t, s.Settled(timeZero.Add(70*time.Millisecond)))
	assert.True(t, s.Settled(timeZero.Add(120*time.Millisecond)))
}

func TestFramePaintOrder(t *testing.T) {
	s := NewScene()
	s.Reconcile(LayerLegend, []Desired{{Key: "l"}}, timeZero, Timing{})
	s.Reconcile(LayerBars, []Desired{{Key: "b"}}, timeZero, Timing{})
	s.Reconcile(LayerAxes, []Desired{{Key: "x"}}, timeZero, Timing{})
	frame := s.Frame(timeZero)
	require.Len(t, frame, 3)
	assert.Equal(t, "x", frame[0].Element.Key)
	assert.Equal(t, "b", frame[1].Element.Key)
	assert.Equal(t, "l", frame[2].Element.Key)
}

func TestLerpColor(t *testing.T) {
	assert.Equal(t, "#808080", lerpColor("#000000", "#ffffff", 0.5))
	assert.Equal(t, "red", lerpColor("#000000", "red", 0.5))
}
