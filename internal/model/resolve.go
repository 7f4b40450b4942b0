package model

import (
	"strconv"
	"strings"
)

// Tone selects the register of a generated reminder.
type Tone string

const (
	ToneChat  Tone = "chat"
	ToneEmail Tone = "email"
)

// ResolveType selects which kind of draft the resolve copilot produces.
type ResolveType string

const (
	ResolveCopy      ResolveType = "copy"
	ResolveChecklist ResolveType = "checklist"
	ResolveBlog      ResolveType = "blog"
	ResolveDecision  ResolveType = "decision"
)

// ResolveTypes returns all resolve types in display order.
func ResolveTypes() []ResolveType {
	return []ResolveType{ResolveCopy, ResolveChecklist, ResolveBlog, ResolveDecision}
}

// IsValid reports whether r is a known resolve type.
func (r ResolveType) IsValid() bool {
	for _, known := range ResolveTypes() {
		if r == known {
			return true
		}
	}
	return false
}

// ResolveOutput is the structured draft returned by the resolve copilot.
// Only the sections relevant to the requested ResolveType are populated.
type ResolveOutput struct {
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	IsEstimated        bool     `json:"isEstimated"`
	BasisSummary       string   `json:"basisSummary"`
	ChatMessages       []string `json:"chatMessages,omitempty"`
	EmailMessages      []string `json:"emailMessages,omitempty"`
	Checklist          []string `json:"checklist,omitempty"`
	BlogOutline        []string `json:"blogOutline,omitempty"`
	DecisionTable      []string `json:"decisionTable,omitempty"`
	NextFifteenMinutes []string `json:"nextFifteenMinutes"`
	DoneCriteria       string   `json:"doneCriteria"`
}

type outputSection struct {
	heading string
	items   []string
	ordered bool
}

func (o ResolveOutput) sections() []outputSection {
	return []outputSection{
		{"Chat messages", o.ChatMessages, false},
		{"Email messages", o.EmailMessages, false},
		{"Checklist", o.Checklist, false},
		{"Blog outline", o.BlogOutline, true},
		{"Decision table", o.DecisionTable, false},
		{"Next 15 minutes", o.NextFifteenMinutes, true},
	}
}

// Markdown renders the output as a Markdown document.
func (o ResolveOutput) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# " + o.Title + "\n\n")
	if o.Summary != "" {
		sb.WriteString("> " + o.Summary + "\n\n")
	}
	if o.IsEstimated {
		sb.WriteString("_Estimated: parts of this draft are inferred, verify before sending._\n\n")
	}
	if o.BasisSummary != "" {
		sb.WriteString("**Basis:** " + o.BasisSummary + "\n\n")
	}

	for _, sec := range o.sections() {
		if len(sec.items) == 0 {
			continue
		}
		sb.WriteString("## " + sec.heading + "\n\n")
		for i, item := range sec.items {
			if sec.ordered {
				sb.WriteString(strconv.Itoa(i+1) + ". " + item + "\n")
			} else {
				sb.WriteString("- " + item + "\n")
			}
		}
		sb.WriteString("\n")
	}

	if o.DoneCriteria != "" {
		sb.WriteString("## Done when\n\n" + o.DoneCriteria + "\n")
	}
	return sb.String()
}

// CopyText renders the output as plain text for pasting into chat or mail.
func (o ResolveOutput) CopyText() string {
	var parts []string
	parts = append(parts, o.Title)
	if o.Summary != "" {
		parts = append(parts, o.Summary)
	}
	for _, sec := range o.sections() {
		if len(sec.items) == 0 {
			continue
		}
		lines := []string{"[" + sec.heading + "]"}
		for _, item := range sec.items {
			lines = append(lines, "- "+item)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if o.DoneCriteria != "" {
		parts = append(parts, "[Done when]\n"+o.DoneCriteria)
	}
	return strings.Join(parts, "\n\n")
}
