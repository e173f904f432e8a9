// Package verification decodes verifier responses into structured results.
// Responses are expected to be JSON but the verifier is an LLM: JSON may
// arrive embedded in prose, malformed, or missing entirely. Decoding is
// strict first (schema-validated), then falls back through balanced-brace
// extraction and a positive-sentiment keyword scan. Callers treat a total
// decode failure as a passing result (fail-open) so a flaky verifier never
// blocks content production.
package verification

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/podcast-scripter/internal/llm"
	"github.com/jonathan/podcast-scripter/internal/types"
)

// resultSchema validates the verifier's JSON shape before decoding.
const resultSchema = `{
  "type": "object",
  "required": ["isValid"],
  "properties": {
    "isValid": {"type": "boolean"},
    "issues": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "severity": {"type": "string"},
          "category": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "summary": {"type": "string"},
    "feedback": {"type": "string"}
  }
}`

// rawResult mirrors the verifier's wire shape. Some prompts say "summary",
// older ones said "feedback"; both are accepted.
type rawResult struct {
	IsValid  bool                      `json:"isValid"`
	Issues   []types.VerificationIssue `json:"issues"`
	Summary  string                    `json:"summary"`
	Feedback string                    `json:"feedback"`
}

var positiveKeywords = []string{
	"looks good",
	"no issues",
	"no problems",
	"well done",
	"approved",
	"is valid",
	"excellent",
	"meets the requirements",
	"ready to publish",
}

// Parse decodes a verifier response. The raw text is tried as strict JSON,
// then the first balanced {...} block is extracted from surrounding prose,
// then a keyword heuristic judges the plain text. Parse never returns an
// error for content it can read at all; it returns a fail-open valid
// result with a descriptive summary when nothing usable is found.
func Parse(text string) *types.VerificationResult {
	cleaned := llm.CleanJSONBlock(text)

	if result := decodeStrict(cleaned); result != nil {
		return result
	}
	if block := ExtractJSONBlock(cleaned); block != "" {
		if result := decodeStrict(block); result != nil {
			result.Fallback = true
			return result
		}
	}
	if result := keywordScan(cleaned); result != nil {
		return result
	}

	return &types.VerificationResult{
		IsValid:  true,
		Summary:  "verification response was unusable; accepting draft as-is",
		Fallback: true,
	}
}

// decodeStrict validates against the schema and unmarshals. Returns nil
// when the text is not a schema-conforming result object.
func decodeStrict(text string) *types.VerificationResult {
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return nil
	}

	schemaLoader := gojsonschema.NewStringLoader(resultSchema)
	documentLoader := gojsonschema.NewStringLoader(text)
	checked, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil || !checked.Valid() {
		return nil
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}

	result := &types.VerificationResult{
		IsValid: raw.IsValid,
		Issues:  raw.Issues,
		Summary: raw.Summary,
	}
	if result.Summary == "" {
		result.Summary = raw.Feedback
	}
	for i := range result.Issues {
		result.Issues[i].Severity = types.NormalizeSeverity(result.Issues[i].Severity)
	}
	return result
}

// ExtractJSONBlock returns the first balanced {...} block in text,
// respecting string literals and escapes. Returns "" when none exists.
func ExtractJSONBlock(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

// keywordScan judges a plain-prose response by sentiment. A positive
// phrase means the verifier approved; any other non-empty prose is taken
// as free-text criticism and becomes one unclassified issue.
func keywordScan(text string) *types.VerificationResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	lower := strings.ToLower(trimmed)
	for _, keyword := range positiveKeywords {
		if strings.Contains(lower, keyword) {
			return &types.VerificationResult{
				IsValid:  true,
				Summary:  snippet(trimmed),
				Fallback: true,
			}
		}
	}

	return &types.VerificationResult{
		IsValid: false,
		Issues: []types.VerificationIssue{{
			Severity:    types.SeverityUnknown,
			Category:    "freeform",
			Description: snippet(trimmed),
		}},
		Summary:  snippet(trimmed),
		Fallback: true,
	}
}

func snippet(text string) string {
	const max = 280
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
