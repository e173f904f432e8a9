package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/podcast-scripter/internal/llm"
	"github.com/jonathan/podcast-scripter/internal/retry"
	"github.com/jonathan/podcast-scripter/internal/scoring"
	"github.com/jonathan/podcast-scripter/internal/types"
	"github.com/jonathan/podcast-scripter/internal/verification"
)

// DefaultMaxAttempts bounds the generate/verify/improve loop per unit.
const DefaultMaxAttempts = 3

// StageShares splits one unit's progress across its stages.
type StageShares struct {
	Generate float64
	Verify   float64
	Improve  float64
}

// DefaultStageShares returns the standard 60/30/10 split.
func DefaultStageShares() StageShares {
	return StageShares{Generate: 0.6, Verify: 0.3, Improve: 0.1}
}

// Unit describes one piece of content driven through the state machine: a
// script section, the outline, or the whole assembled script during the
// cross-section pass.
type Unit struct {
	// ID names the unit in logs and notifications, e.g. "section 3.1".
	ID string
	// Seed, when non-empty, becomes attempt 1 directly instead of a
	// generation call. The cross-section pass seeds the machine with the
	// assembled script.
	Seed string
	// MaxAttempts bounds the loop; 0 means DefaultMaxAttempts.
	MaxAttempts int
	// Shares maps loop stages onto the unit's progress fraction; the zero
	// value means DefaultStageShares.
	Shares StageShares

	GenerateTier llm.ModelTier
	VerifyTier   llm.ModelTier
	Temperature  *float32

	// BuildGenerate produces the messages for the first draft. Unused
	// when Seed is set.
	BuildGenerate func() []llm.Message
	// BuildVerify produces the verification messages for a draft.
	BuildVerify func(draft string) []llm.Message
	// BuildImprove produces the revision messages for a draft and its
	// structured feedback.
	BuildImprove func(draft string, feedback *types.VerificationResult) []llm.Message
}

// SectionPipeline runs the GENERATE → VERIFY → DECIDE → (IMPROVE → VERIFY
// → DECIDE)* → DONE state machine for one unit of content.
type SectionPipeline struct {
	Client   llm.Client
	Retry    *retry.Executor
	Notifier Notifier
	// OnProgress receives the unit's cumulative completion fraction (0..1).
	OnProgress func(frac float64)
	// Usage, when non-nil, accumulates token usage across all calls.
	Usage *llm.Usage
}

// Run drives the unit to DONE and selects the best candidate over all
// recorded attempts. The attempt list is never empty once Run returns
// successfully: the first generation always exists, and verification or
// improvement failures fall open instead of discarding it. Cancellation
// is polled at the top of each state and after every call; it propagates
// as ctx.Err(), never as a generation failure.
func (p *SectionPipeline) Run(ctx context.Context, unit Unit) (*types.PipelineOutcome, error) {
	maxAttempts := unit.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	shares := unit.Shares
	if shares.Generate == 0 && shares.Verify == 0 && shares.Improve == 0 {
		shares = DefaultStageShares()
	}

	// GENERATE
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current := unit.Seed
	if current == "" {
		resp, err := p.complete(ctx, llm.Request{
			Tier:        unit.GenerateTier,
			Messages:    unit.BuildGenerate(),
			Temperature: unit.Temperature,
		}, false)
		if err != nil {
			return nil, err
		}
		current = resp.Text
	}
	p.progress(shares.Generate)

	var attempts []types.GenerationAttempt
	for attempt := 1; ; attempt++ {
		// VERIFY
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := p.verifyDraft(ctx, unit, current)
		if err != nil {
			return nil, err
		}

		attempts = append(attempts, types.GenerationAttempt{
			Index:        attempt,
			Text:         current,
			Verification: result,
			Score:        scoring.Score(result),
		})
		p.progress(verifyFrac(shares, attempt, maxAttempts))

		// DECIDE
		if result.IsValid || attempt == maxAttempts {
			break
		}

		// IMPROVE
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.complete(ctx, llm.Request{
			Tier:        unit.GenerateTier,
			Messages:    unit.BuildImprove(current, result),
			Temperature: unit.Temperature,
		}, false)
		if err != nil {
			if isCancellation(err) {
				return nil, err
			}
			// Fail open: keep the attempts recorded so far and let
			// selection pick the best of them.
			p.notify(fmt.Sprintf("%s: improvement call failed (%v); keeping best existing draft", unit.ID, err))
			break
		}
		current = resp.Text
	}

	best, _ := scoring.SelectBest(attempts)
	p.progress(1)

	return &types.PipelineOutcome{
		ChosenText:    best.Text,
		ChosenScore:   best.Score,
		ChosenAttempt: best.Index,
		Attempts:      attempts,
		TotalAttempts: len(attempts),
	}, nil
}

// verifyDraft runs one verification call. Call failures and unusable
// responses fall open to a passing result with a descriptive summary, so
// a transient verifier outage never blocks content production. Only
// cancellation propagates as an error.
func (p *SectionPipeline) verifyDraft(ctx context.Context, unit Unit, draft string) (*types.VerificationResult, error) {
	lowTemp := float32(0.1)
	resp, err := p.complete(ctx, llm.Request{
		Tier:        unit.VerifyTier,
		Messages:    unit.BuildVerify(draft),
		Temperature: &lowTemp,
	}, true)
	if err != nil {
		if isCancellation(err) {
			return nil, err
		}
		p.notify(fmt.Sprintf("%s: verification call failed (%v); accepting draft as-is", unit.ID, err))
		return &types.VerificationResult{
			IsValid:  true,
			Summary:  fmt.Sprintf("verification unavailable: %v", err),
			Fallback: true,
		}, nil
	}
	return verification.Parse(resp.Text), nil
}

func (p *SectionPipeline) complete(ctx context.Context, req llm.Request, wantJSON bool) (*llm.Response, error) {
	var resp *llm.Response
	err := p.Retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		if wantJSON {
			resp, callErr = p.Client.CompleteJSON(ctx, req)
		} else {
			resp, callErr = p.Client.Complete(ctx, req)
		}
		return callErr
	}, llm.IsRetryable)
	if err != nil {
		return nil, err
	}
	if p.Usage != nil {
		p.Usage.Add(resp.Usage)
	}
	return resp, nil
}

func (p *SectionPipeline) progress(frac float64) {
	if p.OnProgress != nil {
		p.OnProgress(frac)
	}
}

func (p *SectionPipeline) notify(message string) {
	if p.Notifier != nil {
		p.Notifier.Error(message)
	}
}

// verifyFrac maps the k-th verification completion onto the unit's
// cumulative fraction: the first verify completes the verify share, later
// ones advance through the improve share.
func verifyFrac(shares StageShares, attempt, maxAttempts int) float64 {
	frac := shares.Generate + shares.Verify
	if attempt > 1 && maxAttempts > 1 {
		frac += shares.Improve * float64(attempt-1) / float64(maxAttempts-1)
	}
	if frac > 1 {
		frac = 1
	}
	return frac
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
