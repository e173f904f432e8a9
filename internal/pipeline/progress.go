package pipeline

import "sync"

// DefaultSectionShare is the fraction of the progress budget spent on
// per-section work; the remainder covers the cross-section review pass.
const DefaultSectionShare = 0.8

// Accumulator owns the single published progress value of one run. The
// externally visible value is clamped so it never regresses across
// retries or extra improvement iterations. One Accumulator exists per
// run, so concurrent runs never share progress state.
type Accumulator struct {
	mu      sync.Mutex
	last    float64
	stageID string
	sink    ProgressSink
}

// NewAccumulator creates an accumulator publishing to sink under stageID.
func NewAccumulator(sink ProgressSink, stageID string) *Accumulator {
	return &Accumulator{sink: sink, stageID: stageID}
}

// Publish clamps percent to [0,100] and to the maximum seen so far, then
// forwards the clamped value to the sink.
func (a *Accumulator) Publish(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	a.mu.Lock()
	if percent < a.last {
		percent = a.last
	}
	a.last = percent
	sink := a.sink
	a.mu.Unlock()

	if sink != nil {
		sink.Publish(a.stageID, percent)
	}
}

// Last returns the highest value published so far.
func (a *Accumulator) Last() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Tracker maps nested pipeline stages onto the run's composite progress
// budget: sectionShare is divided evenly across the N sections, and the
// remainder belongs to the whole-script review pass.
type Tracker struct {
	acc          *Accumulator
	sectionShare float64
	sections     int
}

// NewTracker creates a tracker for a run of n sections.
func NewTracker(acc *Accumulator, sectionShare float64, n int) *Tracker {
	if sectionShare <= 0 || sectionShare > 1 {
		sectionShare = DefaultSectionShare
	}
	if n < 1 {
		n = 1
	}
	return &Tracker{acc: acc, sectionShare: sectionShare, sections: n}
}

// Section publishes progress for section i (0-based) at fraction frac
// (0..1) of that section's own work.
func (t *Tracker) Section(i int, frac float64) {
	done := (float64(i) + clampFrac(frac)) / float64(t.sections)
	t.acc.Publish(100 * t.sectionShare * done)
}

// Review publishes progress for the cross-section review pass at fraction
// frac (0..1) of its work.
func (t *Tracker) Review(frac float64) {
	t.acc.Publish(100 * (t.sectionShare + (1-t.sectionShare)*clampFrac(frac)))
}

// Done publishes run completion.
func (t *Tracker) Done() {
	t.acc.Publish(100)
}

func clampFrac(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
