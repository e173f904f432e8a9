// Package types provides type definitions for structured data used throughout the podcast-scripter system.
package types

import "strings"

// Section is one leaf entry of the parsed outline. Sections are immutable
// once parsed; the orchestrator consumes them in document order.
type Section struct {
	// Number is the dot-delimited outline number, e.g. "3.1".
	Number string `json:"number"`
	// Title is the heading text without the number prefix.
	Title string `json:"title"`
	// DurationMinutes is the explicit pacing target for this section.
	DurationMinutes float64 `json:"duration_minutes"`
	// Overview is the optional "Overview:" field from the outline block.
	Overview string `json:"overview,omitempty"`
	// KeyFacts is the optional "Key facts:" field from the outline block.
	KeyFacts string `json:"key_facts,omitempty"`
	// UniqueFocus is the optional "Unique focus:" field from the outline block.
	UniqueFocus string `json:"unique_focus,omitempty"`
	// Carryover is the optional "Carryover:" field describing what this
	// section inherits from the previous one.
	Carryover string `json:"carryover,omitempty"`
	// Content is the raw outline slice this section was parsed from.
	Content string `json:"content,omitempty"`
}

// Label returns "3.1 Title" for logs and prompts.
func (s Section) Label() string {
	if s.Number == "" {
		return s.Title
	}
	return s.Number + " " + s.Title
}

// IsChildOf reports whether the section's number is nested under parent's
// number ("3.1" is a child of "3", but "31" is not).
func (s Section) IsChildOf(parent string) bool {
	return strings.HasPrefix(s.Number, parent+".")
}

// TotalDuration sums the duration of all sections in minutes.
func TotalDuration(sections []Section) float64 {
	total := 0.0
	for _, s := range sections {
		total += s.DurationMinutes
	}
	return total
}
