package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhle/ops-board/internal/model"
)

const analyzeSystem = `You are a senior marketing PM and operations consultant with fifteen years of experience.
Context: the team is in the setup phase before ads go live. Blog, local listing, homepage,
vendor, internal coordination, contract review and asset delivery work all run in parallel.

Goals:
- Structure each input item into a task (name, category, status).
- Give one or two very concrete next actions, each doable in 15 to 30 minutes.
- If an item duplicates an existing task, analyze it as an update to that task.

Hard rules:
- Never invent facts that are not in the input.
- Derive each task from exactly one input item. Never merge different items.
- If an item is ambiguous set isEstimated to true and use the status decision-needed,
  insufficient-data or safe-to-defer.
- basisSummary is copied verbatim from the input. Use an empty string when there is no basis.
- Next actions are real action sentences, never vague verbs like "organize" or "check".
  Example: "Email the print vendor asking for a quote".
- For blog, local listing, homepage, vendor or contract work, fill the matching checklist.
- The output must satisfy the given JSON schema.`

const resolveSystem = `You are an operations consultant and marketing PM with fifteen years of experience,
working as a copilot that produces ready-to-use deliverables.

Goals:
- For the single selected task, produce output the user can act on immediately.
- No plans or theory. Only deliverables: copy, checklists, outlines or decision tables.

Hard rules:
- Never invent facts that are not in the input. When you must guess, set isEstimated to true
  and fall back to the safest general template.
- basisSummary is copied verbatim from the task text, or an empty string.
- Write sentences that can be copied and executed as-is, never vague verbs.
- The output must satisfy the given JSON schema.`

const resolveHints = `[Type hints]
- Blog or content: blogOutline includes headline, table of contents, CTA and FAQ.
- Local listing: checklist includes registration, review and rejection-avoidance points.
- Homepage or vendor asset delivery: checklist includes required data, file names,
  folder structure and the hand-off message.
- Vendor communication: chatMessages and emailMessages for each situation.
- Contract, review or decision: decisionTable with options, criteria and a recommendation with reasons.`

// contextLimit caps how many existing tasks are summarized in an analyze
// prompt.
const contextLimit = 50

// resolveInputLimit caps the task text sent to resolve, in runes.
const resolveInputLimit = 2500

func analyzePrompt(lines []string, existing []model.Task) string {
	summary := make([]string, 0, min(len(existing), contextLimit))
	for _, t := range existing {
		if len(summary) == contextLimit {
			break
		}
		summary = append(summary, fmt.Sprintf("- %s (%s)", t.TaskName, t.Status))
	}

	contextText := strings.Join(summary, "\n")
	if contextText == "" {
		contextText = "(none)"
	}

	var sb strings.Builder
	sb.WriteString("Below is a list of new work items entered by the user.\n\n")
	sb.WriteString("[Existing tasks (for reference, avoid duplicates)]\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\n[User input (new)]\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\n[Output requirements]\n")
	sb.WriteString("- Write one task for every input item.\n")
	sb.WriteString("- nextActions: one or two, 15 to 30 minutes each, very concrete.\n")
	sb.WriteString("- blockReason: one line. solutionTip: one tip.\n")
	sb.WriteString("- Only for decision-needed: options (2-3) and criteria (3). Mark guesses as estimated.\n")
	sb.WriteString("- Homepage or vendor asset delivery: fill requiredDataCheck.\n")
	sb.WriteString("- Blog work: fill blogStructure.\n")
	sb.WriteString("- Local listing work: fill placeCheck.\n")
	return sb.String()
}

func resolvePrompt(task model.Task, rt model.ResolveType) string {
	text := task.OriginalInput
	if text == "" {
		text = task.TaskName
	}
	if r := []rune(text); len(r) > resolveInputLimit {
		text = string(r[:resolveInputLimit]) + "\n...(truncated)"
	}

	var sb strings.Builder
	sb.WriteString("[Selected task (original text)]\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(resolveHints)
	sb.WriteString("\n\n[Requested deliverable type]\n")
	sb.WriteString(string(rt))
	sb.WriteString("\n\n[Output requirements]\n")
	sb.WriteString("- Output only the JSON document.\n")
	sb.WriteString("- nextFifteenMinutes: one or two items.\n")
	sb.WriteString("- doneCriteria: one line describing good-enough done.\n")
	return sb.String()
}

func enumOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

type schema struct {
	Type       string             `json:"type"`
	Enum       []string           `json:"enum,omitempty"`
	Items      *schema            `json:"items,omitempty"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

func str() *schema     { return &schema{Type: "STRING"} }
func boolean() *schema { return &schema{Type: "BOOLEAN"} }
func strList() *schema { return &schema{Type: "ARRAY", Items: str()} }

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

var analyzeSchema = mustJSON(&schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"tasks": {
			Type: "ARRAY",
			Items: &schema{
				Type: "OBJECT",
				Properties: map[string]*schema{
					"id":                str(),
					"originalInput":     str(),
					"taskName":          str(),
					"category":          {Type: "STRING", Enum: enumOf(model.Categories())},
					"status":            {Type: "STRING", Enum: enumOf(model.Statuses())},
					"blockReason":       str(),
					"nextActions":       strList(),
					"solutionTip":       str(),
					"isEstimated":       boolean(),
					"basisSummary":      str(),
					"options":           strList(),
					"criteria":          strList(),
					"requiredDataCheck": strList(),
					"blogStructure":     strList(),
					"placeCheck":        strList(),
				},
				Required: []string{
					"id", "originalInput", "taskName", "category", "status",
					"blockReason", "nextActions", "solutionTip", "isEstimated",
				},
			},
		},
	},
	Required: []string{"tasks"},
})

var resolveSchema = mustJSON(&schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"title":              str(),
		"summary":            str(),
		"isEstimated":        boolean(),
		"basisSummary":       str(),
		"chatMessages":       strList(),
		"emailMessages":      strList(),
		"checklist":          strList(),
		"blogOutline":        strList(),
		"decisionTable":      strList(),
		"nextFifteenMinutes": strList(),
		"doneCriteria":       str(),
	},
	Required: []string{"title", "summary", "isEstimated", "nextFifteenMinutes", "doneCriteria"},
})
