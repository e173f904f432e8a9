// Package pipeline provides the generate/verify/improve control loop and
// the high-level orchestration for podcast script generation.
package pipeline

import (
	"context"

	"github.com/google/uuid"
)

// ProgressSink receives monotonic progress updates for a run stage.
type ProgressSink interface {
	Publish(stageID string, percent float64)
}

// Notifier receives user-facing run notifications.
type Notifier interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

// ArtifactStore persists per-run artifacts. The orchestrator treats the
// store as optional: save failures degrade to notifications, never abort
// a run.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(stageID string, percent float64)

// Publish implements ProgressSink.
func (f ProgressFunc) Publish(stageID string, percent float64) { f(stageID, percent) }

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Info implements Notifier.
func (NopNotifier) Info(string) {}

// Success implements Notifier.
func (NopNotifier) Success(string) {}

// Error implements Notifier.
func (NopNotifier) Error(string) {}
