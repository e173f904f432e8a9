package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every published value.
type recordingSink struct {
	mu     sync.Mutex
	stages []string
	values []float64
}

func (r *recordingSink) Publish(stageID string, percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stageID)
	r.values = append(r.values, percent)
}

func TestAccumulator_NeverRegresses(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(sink, "run-1")

	acc.Publish(10)
	acc.Publish(40)
	acc.Publish(25)
	acc.Publish(60)

	assert.Equal(t, []float64{10, 40, 40, 60}, sink.values)
	assert.Equal(t, 60.0, acc.Last())
}

func TestAccumulator_ClampsRange(t *testing.T) {
	sink := &recordingSink{}
	acc := NewAccumulator(sink, "run-1")

	acc.Publish(-5)
	acc.Publish(150)

	assert.Equal(t, []float64{0, 100}, sink.values)
}

func TestAccumulator_NilSink(t *testing.T) {
	acc := NewAccumulator(nil, "run-1")
	acc.Publish(50)
	assert.Equal(t, 50.0, acc.Last())
}

func TestAccumulator_StageIDForwarded(t *testing.T) {
	sink := &recordingSink{}
	NewAccumulator(sink, "abc").Publish(1)
	require.Len(t, sink.stages, 1)
	assert.Equal(t, "abc", sink.stages[0])
}

func TestTracker_SectionBudgetSplitEvenly(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(NewAccumulator(sink, "r"), 0.8, 4)

	tracker.Section(0, 1)
	tracker.Section(1, 0.5)
	tracker.Section(3, 1)

	// 80% split over 4 sections = 20 points each.
	assert.InDelta(t, 20, sink.values[0], 1e-9)
	assert.InDelta(t, 30, sink.values[1], 1e-9)
	assert.InDelta(t, 80, sink.values[2], 1e-9)
}

func TestTracker_ReviewUsesRemainder(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(NewAccumulator(sink, "r"), 0.8, 2)

	tracker.Section(1, 1)
	tracker.Review(0.5)
	tracker.Done()

	assert.InDelta(t, 80, sink.values[0], 1e-9)
	assert.InDelta(t, 90, sink.values[1], 1e-9)
	assert.Equal(t, 100.0, sink.values[2])
}

func TestTracker_InvalidShareFallsBackToDefault(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(NewAccumulator(sink, "r"), 1.7, 1)

	tracker.Section(0, 1)
	assert.InDelta(t, 100*DefaultSectionShare, sink.values[0], 1e-9)
}

func TestTracker_FractionClamped(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(NewAccumulator(sink, "r"), 0.8, 2)

	tracker.Section(0, 2.5)
	assert.InDelta(t, 40, sink.values[0], 1e-9)
}
