package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/podcast-scripter/internal/llm"
	"github.com/jonathan/podcast-scripter/internal/outline"
	"github.com/jonathan/podcast-scripter/internal/prompts"
	"github.com/jonathan/podcast-scripter/internal/retry"
	"github.com/jonathan/podcast-scripter/internal/types"
	"github.com/jonathan/podcast-scripter/internal/verification"
)

// Artifact step and category names used with the ArtifactStore.
const (
	CategoryOutline    = "outline"
	CategoryScript     = "script"
	CategoryContinuity = "continuity"
	CategoryReview     = "review"

	StepOutline     = "outline"
	StepContinuity  = "continuity"
	StepScriptDraft = "script_draft"
	StepScriptFinal = "script_final"
)

// wordsPerMinute converts a section's duration target into a word target
// for prompts. Conversational English runs around 150 words a minute.
const wordsPerMinute = 150

// Config assembles an Orchestrator.
type Config struct {
	Client      llm.Client
	RetryPolicy retry.Policy
	Notifier    Notifier
	Progress    ProgressSink
	// Store is optional; nil disables artifact persistence.
	Store ArtifactStore
	RunID uuid.UUID
	// MaxAttempts bounds each unit's improve loop; 0 means the default.
	MaxAttempts int
	// SectionShare is the progress budget fraction for per-section work.
	SectionShare float64
	HostA        string
	HostB        string
}

// OutlineBrief describes what the episode should cover.
type OutlineBrief struct {
	Topic         string
	Material      string
	TargetMinutes int
}

// SectionResult pairs a section with its pipeline outcome.
type SectionResult struct {
	Section types.Section          `json:"section"`
	Outcome *types.PipelineOutcome `json:"outcome"`
}

// ScriptResult is the outcome of a full script run.
type ScriptResult struct {
	Script        string                  `json:"script"`
	Sections      []SectionResult         `json:"sections"`
	Review        *types.PipelineOutcome  `json:"review,omitempty"`
	Continuity    types.ContinuityContext `json:"continuity"`
	TotalAttempts int                     `json:"total_attempts"`
	Usage         llm.Usage               `json:"usage"`
}

// Orchestrator sequences one SectionPipeline per leaf section strictly in
// document order, maintains the run's continuity context, and finishes
// with a single cross-section pass over the assembled script. Sections
// are never pipelined concurrently: each depends on the previous
// section's finalized text and summary.
type Orchestrator struct {
	cfg      Config
	executor *retry.Executor
	notifier Notifier
	buffer   *ScriptBuffer
	usage    llm.Usage
}

// New creates an orchestrator for one run.
func New(cfg Config) *Orchestrator {
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.HostA == "" {
		cfg.HostA = "Alex"
	}
	if cfg.HostB == "" {
		cfg.HostB = "Sam"
	}
	if cfg.SectionShare <= 0 || cfg.SectionShare > 1 {
		cfg.SectionShare = DefaultSectionShare
	}
	return &Orchestrator{
		cfg:      cfg,
		executor: retry.New(cfg.RetryPolicy),
		notifier: cfg.Notifier,
		buffer:   NewScriptBuffer(),
	}
}

// Buffer exposes the evolving output buffer for read-only observation.
func (o *Orchestrator) Buffer() *ScriptBuffer {
	return o.buffer
}

// Usage reports token consumption accumulated so far.
func (o *Orchestrator) Usage() llm.Usage {
	return o.usage
}

// GenerateOutline drives the outline through the same generate/verify/
// improve loop as every other content stage, then parses the chosen text
// into leaf sections.
func (o *Orchestrator) GenerateOutline(ctx context.Context, brief OutlineBrief) (*outline.Outline, string, error) {
	if brief.TargetMinutes <= 0 {
		brief.TargetMinutes = 20
	}
	material := brief.Material
	if material == "" {
		material = "(none provided)"
	}
	minutes := strconv.Itoa(brief.TargetMinutes)

	unit := Unit{
		ID:           "outline",
		MaxAttempts:  o.cfg.MaxAttempts,
		GenerateTier: llm.TierAdvanced,
		VerifyTier:   llm.TierStandard,
		BuildGenerate: func() []llm.Message {
			return []llm.Message{
				o.systemMessage("outline.json"),
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("outline.json", "generate-outline"), map[string]string{
					"Topic":         brief.Topic,
					"Material":      material,
					"TargetMinutes": minutes,
				})},
			}
		},
		BuildVerify: func(draft string) []llm.Message {
			return []llm.Message{
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("outline.json", "verify-outline"), map[string]string{
					"Draft":         draft,
					"TargetMinutes": minutes,
				})},
			}
		},
		BuildImprove: func(draft string, feedback *types.VerificationResult) []llm.Message {
			return []llm.Message{
				o.systemMessage("outline.json"),
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("outline.json", "improve-outline"), map[string]string{
					"Draft":    draft,
					"Feedback": feedbackText(feedback),
				})},
			}
		},
	}

	outcome, err := o.runUnit(ctx, unit, nil)
	if err != nil {
		return nil, "", err
	}

	parsed, err := outline.Parse(outcome.ChosenText)
	if err != nil {
		return nil, outcome.ChosenText, err
	}

	o.saveText(ctx, StepOutline, CategoryOutline, outcome.ChosenText)
	o.save(ctx, StepOutline+"_sections", CategoryOutline, parsed)
	return parsed, outcome.ChosenText, nil
}

// GenerateSection runs the pipeline for a single leaf section against the
// given continuity context. previousTail carries the closing lines of the
// preceding section so the dialogue picks up smoothly.
func (o *Orchestrator) GenerateSection(ctx context.Context, section types.Section, continuity *types.ContinuityContext, previousTail string, onProgress func(frac float64)) (*types.PipelineOutcome, error) {
	return o.runUnit(ctx, o.sectionUnit(section, continuity, previousTail), onProgress)
}

// GenerateScript runs the full document flow: one pipeline per section in
// order, continuity bookkeeping between sections, then the cross-section
// review pass over the assembled script. Partial output committed to the
// buffer is preserved when a later stage fails.
func (o *Orchestrator) GenerateScript(ctx context.Context, sections []types.Section) (*ScriptResult, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections to generate")
	}

	acc := NewAccumulator(o.cfg.Progress, o.cfg.RunID.String())
	tracker := NewTracker(acc, o.cfg.SectionShare, len(sections))

	result := &ScriptResult{}
	continuity := &types.ContinuityContext{}
	previousTail := ""

	for i, section := range sections {
		o.notifier.Info(fmt.Sprintf("Section %d/%d: %s", i+1, len(sections), section.Label()))

		idx := i
		outcome, err := o.GenerateSection(ctx, section, continuity, previousTail, func(frac float64) {
			tracker.Section(idx, frac)
		})
		if err != nil {
			result.Usage = o.usage
			return result, err
		}

		o.buffer.Append(section, outcome.ChosenText)
		result.Sections = append(result.Sections, SectionResult{Section: section, Outcome: outcome})
		result.TotalAttempts += outcome.TotalAttempts
		previousTail = tailLines(outcome.ChosenText, 4)
		o.save(ctx, "section_"+section.Number, CategoryScript, outcome)

		// The final section needs no synopsis: nothing follows it.
		if i < len(sections)-1 {
			o.recordContinuity(ctx, section, outcome.ChosenText, continuity)
		}
	}

	assembled := o.buffer.Script()
	o.saveText(ctx, StepScriptDraft, CategoryScript, assembled)

	o.notifier.Info("Reviewing assembled script for cross-section issues...")
	review, err := o.runUnit(ctx, o.reviewUnit(assembled, sections), func(frac float64) {
		tracker.Review(frac)
	})
	if err != nil {
		result.Script = assembled
		result.Continuity = *continuity
		result.Usage = o.usage
		return result, err
	}

	result.Script = review.ChosenText
	result.Review = review
	result.Continuity = *continuity
	result.TotalAttempts += review.TotalAttempts
	result.Usage = o.usage

	o.saveText(ctx, StepScriptFinal, CategoryScript, result.Script)
	o.save(ctx, StepContinuity, CategoryContinuity, continuity)
	tracker.Done()
	o.notifier.Success(fmt.Sprintf("Script complete: %d sections, %d attempts", len(sections), result.TotalAttempts))
	return result, nil
}

// runUnit wires one SectionPipeline instance with the orchestrator's
// shared collaborators.
func (o *Orchestrator) runUnit(ctx context.Context, unit Unit, onProgress func(frac float64)) (*types.PipelineOutcome, error) {
	p := &SectionPipeline{
		Client:     o.cfg.Client,
		Retry:      o.executor,
		Notifier:   o.notifier,
		OnProgress: onProgress,
		Usage:      &o.usage,
	}
	return p.Run(ctx, unit)
}

func (o *Orchestrator) sectionUnit(section types.Section, continuity *types.ContinuityContext, previousTail string) Unit {
	targetWords := strconv.Itoa(int(section.DurationMinutes * wordsPerMinute))
	brief := sectionBrief(section)
	if previousTail == "" {
		previousTail = "(this is the opening section)"
	}

	return Unit{
		ID:           "section " + section.Number,
		MaxAttempts:  o.cfg.MaxAttempts,
		GenerateTier: llm.TierAdvanced,
		VerifyTier:   llm.TierStandard,
		BuildGenerate: func() []llm.Message {
			return []llm.Message{
				o.systemMessage("script.json"),
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("script.json", "generate-section"), map[string]string{
					"Number":          section.Number,
					"Title":           section.Title,
					"DurationMinutes": formatMinutes(section.DurationMinutes),
					"TargetWords":     targetWords,
					"Overview":        orNone(section.Overview),
					"KeyFacts":        orNone(section.KeyFacts),
					"UniqueFocus":     orNone(section.UniqueFocus),
					"Carryover":       orNone(section.Carryover),
					"Continuity":      continuity.PromptBlock(),
					"PreviousTail":    previousTail,
				})},
			}
		},
		BuildVerify: func(draft string) []llm.Message {
			return []llm.Message{
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("script.json", "verify-section"), map[string]string{
					"HostA":           o.cfg.HostA,
					"HostB":           o.cfg.HostB,
					"DurationMinutes": formatMinutes(section.DurationMinutes),
					"TargetWords":     targetWords,
					"Brief":           brief,
					"Continuity":      continuity.PromptBlock(),
					"Draft":           draft,
				})},
			}
		},
		BuildImprove: func(draft string, feedback *types.VerificationResult) []llm.Message {
			return []llm.Message{
				o.systemMessage("script.json"),
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("script.json", "improve-section"), map[string]string{
					"Draft":    draft,
					"Feedback": feedbackText(feedback),
				})},
			}
		},
	}
}

// reviewUnit builds the whole-script pass: the same state machine, seeded
// with the assembled script and scoped to cross-section issues only. The
// remainder of the progress budget is split between reviewing and the
// improvement loop.
func (o *Orchestrator) reviewUnit(assembled string, sections []types.Section) Unit {
	var durations strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&durations, "- %s %s: %s minutes\n", s.Number, s.Title, formatMinutes(s.DurationMinutes))
	}

	return Unit{
		ID:          "cross-section review",
		Seed:        assembled,
		MaxAttempts: o.cfg.MaxAttempts,
		Shares:      StageShares{Generate: 0, Verify: 0.6, Improve: 0.4},
		VerifyTier:  llm.TierAdvanced,
		BuildVerify: func(draft string) []llm.Message {
			return []llm.Message{
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("script.json", "verify-review"), map[string]string{
					"Durations": durations.String(),
					"Draft":     draft,
				})},
			}
		},
		BuildImprove: func(draft string, feedback *types.VerificationResult) []llm.Message {
			return []llm.Message{
				o.systemMessage("script.json"),
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("script.json", "improve-review"), map[string]string{
					"Draft":    draft,
					"Feedback": feedbackText(feedback),
				})},
			}
		},
	}
}

// recordContinuity derives a synopsis and topic list for a finalized
// section and appends them to the run's continuity context. Failures
// degrade to a locally-derived summary; continuity still grows.
func (o *Orchestrator) recordContinuity(ctx context.Context, section types.Section, text string, continuity *types.ContinuityContext) {
	lowTemp := float32(0.2)
	var resp *llm.Response
	err := o.executor.Do(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = o.cfg.Client.CompleteJSON(ctx, llm.Request{
			Tier:        llm.TierLite,
			Temperature: &lowTemp,
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: prompts.Format(prompts.MustGet("script.json", "continuity-summary"), map[string]string{
					"Number": section.Number,
					"Title":  section.Title,
					"Draft":  text,
				})},
			},
		})
		return callErr
	}, llm.IsRetryable)

	if err == nil {
		o.usage.Add(resp.Usage)
		var payload struct {
			Summary string   `json:"summary"`
			Topics  []string `json:"topics"`
		}
		raw := verification.ExtractJSONBlock(llm.CleanJSONBlock(resp.Text))
		if raw == "" {
			raw = resp.Text
		}
		if jsonErr := json.Unmarshal([]byte(raw), &payload); jsonErr == nil && payload.Summary != "" {
			continuity.Append(section, payload.Summary, payload.Topics)
			return
		}
	}

	o.notifier.Error(fmt.Sprintf("section %s: continuity summary unavailable; using closing lines", section.Number))
	continuity.Append(section, tailLines(text, 2), nil)
}

func (o *Orchestrator) systemMessage(file string) llm.Message {
	return llm.Message{
		Role: llm.RoleSystem,
		Content: prompts.Format(prompts.MustGet(file, "system"), map[string]string{
			"HostA": o.cfg.HostA,
			"HostB": o.cfg.HostB,
		}),
	}
}

func (o *Orchestrator) save(ctx context.Context, step, category string, content any) {
	if o.cfg.Store == nil || o.cfg.RunID == uuid.Nil {
		return
	}
	if err := o.cfg.Store.SaveArtifact(ctx, o.cfg.RunID, step, category, content); err != nil {
		o.notifier.Error(fmt.Sprintf("failed to save artifact %s: %v", step, err))
	}
}

func (o *Orchestrator) saveText(ctx context.Context, step, category, text string) {
	if o.cfg.Store == nil || o.cfg.RunID == uuid.Nil {
		return
	}
	if err := o.cfg.Store.SaveTextArtifact(ctx, o.cfg.RunID, step, category, text); err != nil {
		o.notifier.Error(fmt.Sprintf("failed to save artifact %s: %v", step, err))
	}
}

// feedbackText renders structured verification feedback for improvement
// prompts.
func feedbackText(result *types.VerificationResult) string {
	if result == nil {
		return "(no feedback available)"
	}
	var sb strings.Builder
	if result.Summary != "" {
		sb.WriteString(result.Summary)
		sb.WriteString("\n")
	}
	for _, issue := range result.Issues {
		sb.WriteString("- [")
		sb.WriteString(issue.Severity)
		if issue.Category != "" {
			sb.WriteString("/")
			sb.WriteString(issue.Category)
		}
		sb.WriteString("] ")
		sb.WriteString(issue.Description)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return "(no feedback available)"
	}
	return strings.TrimSpace(sb.String())
}

func sectionBrief(section types.Section) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Section %s: %s\n", section.Number, section.Title)
	if section.Overview != "" {
		fmt.Fprintf(&sb, "Overview: %s\n", section.Overview)
	}
	if section.KeyFacts != "" {
		fmt.Fprintf(&sb, "Key facts: %s\n", section.KeyFacts)
	}
	if section.UniqueFocus != "" {
		fmt.Fprintf(&sb, "Unique focus: %s\n", section.UniqueFocus)
	}
	if section.Carryover != "" {
		fmt.Fprintf(&sb, "Carryover: %s\n", section.Carryover)
	}
	return sb.String()
}

// tailLines returns the last n non-empty lines of text.
func tailLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			kept = append([]string{lines[i]}, kept...)
		}
	}
	return strings.Join(kept, "\n")
}

func formatMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not specified)"
	}
	return s
}
