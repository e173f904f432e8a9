package types

// GenerationAttempt is one generated-and-verified candidate produced during
// a pipeline run. Attempts live only for the duration of the run; only the
// chosen text survives into the assembled script.
type GenerationAttempt struct {
	// Index is 1-based: the first generation is attempt 1.
	Index        int                 `json:"index"`
	Text         string              `json:"text"`
	Verification *VerificationResult `json:"verification,omitempty"`
	Score        int                 `json:"score"`
}

// PipelineOutcome is the result of one section pipeline run.
type PipelineOutcome struct {
	ChosenText    string              `json:"chosen_text"`
	ChosenScore   int                 `json:"chosen_score"`
	ChosenAttempt int                 `json:"chosen_attempt"`
	Attempts      []GenerationAttempt `json:"attempts"`
	TotalAttempts int                 `json:"total_attempts"`
}
