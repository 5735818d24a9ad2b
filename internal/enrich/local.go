package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"incidentflow/internal/domain"
)

// LocalEnricher fills the _AI suggestion fields directly through the
// Anthropic API when the backend pipeline endpoints are unreachable. It
// writes suggestions only; manual fields are never touched, so the copy
// step stays the single place where suggestions become data.
type LocalEnricher struct {
	client anthropic.Client
	model  string
}

func NewLocalEnricher(apiKey, model string) *LocalEnricher {
	return &LocalEnricher{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

type localSuggestion struct {
	IncidentNumber string `json:"incidentNumber"`
	Summary        string `json:"summary"`
	System         string `json:"system"`
	Issue          string `json:"issue"`
	RootCause      string `json:"root_cause"`
	DuplicateGroup string `json:"duplicate_group"`
}

const localSystemPrompt = `You analyze incident ticket activities. For each activity:
- summary: one-sentence summary of the issue
- system: the affected system or component
- issue: short issue label
- root_cause: most likely root cause, or "" if the description is too thin
- duplicate_group: if two or more of the listed activities describe the same underlying incident, set the same "[INCa, INCb]" group value on each member; otherwise "NO_DUPLICATE"

Respond with JSON only (no markdown):
[{"incidentNumber": "INC1", "summary": "...", "system": "...", "issue": "...", "root_cause": "...", "duplicate_group": "NO_DUPLICATE"}, ...]`

// Enrich returns a copy of records with AI suggestion fields filled for
// every activity the model answered for. Activities the model skipped come
// back unchanged.
func (e *LocalEnricher) Enrich(ctx context.Context, records []domain.ActivityRecord) ([]domain.ActivityRecord, error) {
	if len(records) == 0 {
		return records, nil
	}

	var lines strings.Builder
	for _, rec := range records {
		lines.WriteString(fmt.Sprintf("%s | group: %s | priority: %s | %s\n",
			rec.IncidentNumber, rec.AssignedGroup, rec.Priority, strings.TrimSpace(rec.LongDescription)))
	}
	userPrompt := "Analyze these activities:\n\n" + lines.String()

	log.Printf("enrich local model=%s items=%d", e.model, len(records))
	message, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: localSystemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	responseText := ""
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text content in Anthropic response")
	}

	suggestions, err := parseLocalSuggestions(responseText)
	if err != nil {
		return nil, err
	}
	return applySuggestions(records, suggestions), nil
}

func parseLocalSuggestions(responseText string) (map[string]localSuggestion, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var parsed []localSuggestion
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, fmt.Errorf("parsing enrichment response: %w (response: %s)", err, responseText)
	}

	out := make(map[string]localSuggestion, len(parsed))
	for _, s := range parsed {
		key := strings.TrimSpace(s.IncidentNumber)
		if key != "" {
			out[key] = s
		}
	}
	return out, nil
}

func applySuggestions(records []domain.ActivityRecord, suggestions map[string]localSuggestion) []domain.ActivityRecord {
	out := make([]domain.ActivityRecord, len(records))
	copy(out, records)
	for i := range out {
		s, ok := suggestions[strings.TrimSpace(out[i].IncidentNumber)]
		if !ok {
			continue
		}
		setSuggestion(&out[i].SummaryIssueAI, s.Summary)
		setSuggestion(&out[i].SystemAI, s.System)
		setSuggestion(&out[i].IssueAI, s.Issue)
		setSuggestion(&out[i].RootCauseAI, s.RootCause)
		setSuggestion(&out[i].DuplicateAI, s.DuplicateGroup)
	}
	return out
}

func setSuggestion(dst **string, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*dst = &value
}
