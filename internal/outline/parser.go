// Package outline parses free outline text into an ordered list of leaf
// sections with explicit durations. This numbered-heading format is the
// one textual convention the core owns: blocks separated by horizontal
// rules, "N[.N]*. Title" headings, and "Duration:" fields in minutes.
package outline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/podcast-scripter/internal/types"
)

// Outline is the parsed result: ordered leaf sections plus the run-wide
// pacing target.
type Outline struct {
	Sections []types.Section `json:"sections"`
	// TotalMinutes is the sum of all leaf durations.
	TotalMinutes float64 `json:"total_minutes"`
}

var (
	ruleRe    = regexp.MustCompile(`(?m)^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
	headingRe = regexp.MustCompile(`^\s*(\d{1,3}(?:\.\d{1,3})*)[.)]?\s+(\S.*?)\s*$`)
	// Duration values are minutes unless a seconds unit is present.
	durationRe = regexp.MustCompile(`(?i)^\s*duration:\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

	fieldRes = map[string]*regexp.Regexp{
		"overview":    regexp.MustCompile(`(?i)^\s*overview:\s*(.+?)\s*$`),
		"keyFacts":    regexp.MustCompile(`(?i)^\s*key\s*facts:\s*(.+?)\s*$`),
		"uniqueFocus": regexp.MustCompile(`(?i)^\s*unique\s*focus:\s*(.+?)\s*$`),
		"carryover":   regexp.MustCompile(`(?i)^\s*carryover:\s*(.+?)\s*$`),
	}
)

// Parse extracts the ordered leaf sections from outline text.
// Within each block, headings followed by their slice of text are located;
// headings whose number prefixes another heading's number are parents and
// never become sections, and slices without an explicit duration are
// dropped. The surviving set is then re-filtered globally so parent/child
// relationships spanning blocks are caught too.
func Parse(text string) (*Outline, error) {
	blocks := splitBlocks(text)

	var candidates []types.Section
	for i, block := range blocks {
		candidates = append(candidates, parseBlock(block, i+1)...)
	}

	sections := filterLeaves(candidates)
	if len(sections) == 0 {
		return nil, &ParseError{Message: "no sections with explicit durations found"}
	}

	return &Outline{
		Sections:     sections,
		TotalMinutes: types.TotalDuration(sections),
	}, nil
}

// splitBlocks separates outline text on horizontal-rule lines, dropping
// empty blocks.
func splitBlocks(text string) []string {
	parts := ruleRe.Split(text, -1)
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

// parseBlock extracts candidate leaf sections from one block. ordinal is
// the block's 1-based position, used to number synthetic sections.
func parseBlock(block string, ordinal int) []types.Section {
	lines := strings.Split(block, "\n")

	// Locate heading lines.
	type heading struct {
		line   int
		number string
		title  string
	}
	var headings []heading
	for i, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			headings = append(headings, heading{line: i, number: m[1], title: m[2]})
		}
	}

	// A block with no headings but an explicit duration becomes one
	// synthetic leaf section.
	if len(headings) == 0 {
		if minutes, ok := findDuration(lines); ok {
			return []types.Section{syntheticSection(block, lines, ordinal, minutes)}
		}
		return nil
	}

	// Exclude parents regardless of whether they carry a duration.
	parents := make(map[string]bool)
	for _, h := range headings {
		for _, other := range headings {
			if other.number != h.number && strings.HasPrefix(other.number, h.number+".") {
				parents[h.number] = true
				break
			}
		}
	}

	var sections []types.Section
	for i, h := range headings {
		if parents[h.number] {
			continue
		}

		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].line
		}
		slice := lines[h.line:end]

		// A slice lacking an explicit duration is dropped, not promoted.
		minutes, ok := findDuration(slice)
		if !ok {
			continue
		}

		section := types.Section{
			Number:          h.number,
			Title:           h.title,
			DurationMinutes: minutes,
			Content:         strings.TrimSpace(strings.Join(slice, "\n")),
		}
		fillFields(&section, slice)
		sections = append(sections, section)
	}
	return sections
}

// filterLeaves applies the parent/child prefix rule across the whole
// candidate set, catching relationships that span blocks.
func filterLeaves(candidates []types.Section) []types.Section {
	leaves := make([]types.Section, 0, len(candidates))
	for _, c := range candidates {
		isParent := false
		for _, other := range candidates {
			if other.Number != c.Number && strings.HasPrefix(other.Number, c.Number+".") {
				isParent = true
				break
			}
		}
		if !isParent {
			leaves = append(leaves, c)
		}
	}
	return leaves
}

// findDuration scans lines for a "Duration:" field. Values are minutes;
// when a seconds unit is present the value is divided by 60.
func findDuration(lines []string) (float64, bool) {
	for _, line := range lines {
		m := durationRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		unit := strings.ToLower(m[2])
		if strings.HasPrefix(unit, "s") {
			value /= 60
		}
		return value, true
	}
	return 0, false
}

// fillFields populates the optional labeled fields from a section slice.
func fillFields(section *types.Section, lines []string) {
	for _, line := range lines {
		if m := fieldRes["overview"].FindStringSubmatch(line); m != nil && section.Overview == "" {
			section.Overview = m[1]
		}
		if m := fieldRes["keyFacts"].FindStringSubmatch(line); m != nil && section.KeyFacts == "" {
			section.KeyFacts = m[1]
		}
		if m := fieldRes["uniqueFocus"].FindStringSubmatch(line); m != nil && section.UniqueFocus == "" {
			section.UniqueFocus = m[1]
		}
		if m := fieldRes["carryover"].FindStringSubmatch(line); m != nil && section.Carryover == "" {
			section.Carryover = m[1]
		}
	}
}

// syntheticSection builds the single leaf for a heading-less block.
func syntheticSection(block string, lines []string, ordinal int, minutes float64) types.Section {
	title := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || durationRe.MatchString(line) || isLabeledField(line) {
			continue
		}
		title = trimmed
		break
	}
	if title == "" {
		title = "Segment " + strconv.Itoa(ordinal)
	}

	section := types.Section{
		Number:          strconv.Itoa(ordinal),
		Title:           title,
		DurationMinutes: minutes,
		Content:         strings.TrimSpace(block),
	}
	fillFields(&section, lines)
	return section
}

func isLabeledField(line string) bool {
	for _, re := range fieldRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
