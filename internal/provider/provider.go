// Package provider implements streaming adapters for the vendor chat
// completion APIs.
package provider

import (
	"context"
	"fmt"

	"github.com/roundtable-ai/collaboration-platform/internal/model"
)

// StreamCallback is called for each visible text fragment as it arrives.
type StreamCallback func(text string) error

// Request carries everything one adapter invocation needs. History is a
// snapshot owned by the orchestrator; adapters must not mutate it.
type Request struct {
	Participant model.Participant
	History     []model.Turn

	// System is the participant's fully built system prompt.
	System string

	// Prefill is non-empty only for the final participant of a run. The
	// adapter injects it as a synthetic leading assistant turn and echoes
	// it as the first content chunk before the vendor stream opens.
	Prefill string

	// Request-level extended thinking defaults; participant options
	// override them.
	ExtendedThinking bool
	BudgetTokens     int
}

// Result is the outcome of a completed adapter stream.
type Result struct {
	Content    string
	TokensIn   int
	TokensOut  int
	StopReason string
}

// Adapter streams one participant's reply from a vendor API, relaying
// incremental text through the callback and returning the accumulated
// reply for attribution.
type Adapter interface {
	Stream(ctx context.Context, req *Request, onDelta StreamCallback) (*Result, error)
	Provider() model.Provider
	Models() []string
}

// Factory builds an adapter for a provider bound to an API key.
type Factory func(prov model.Provider, apiKey string) (Adapter, error)

// New is the default adapter factory.
func New(prov model.Provider, apiKey string) (Adapter, error) {
	switch prov {
	case model.ProviderOpenAI:
		return NewOpenAIAdapter(apiKey)
	case model.ProviderAnthropic:
		return NewAnthropicAdapter(apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider %q", prov)
	}
}

// Models returns the known model identifiers for a provider.
func Models(prov model.Provider) []string {
	switch prov {
	case model.ProviderOpenAI:
		return openAIModels()
	case model.ProviderAnthropic:
		return anthropicModels()
	default:
		return nil
	}
}

const (
	defaultMaxTokens = 4096

	// Extended thinking budget: when unset at both participant and
	// request level, the budget is the lesser of this fallback and the
	// participant's token ceiling minus a small reserve for visible text.
	defaultThinkingBudget = 8192
	thinkingBudgetReserve = 1024
)

func resolveMaxTokens(p model.Participant) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return defaultMaxTokens
}

// resolveThinking layers the participant's thinking options over the
// request-level defaults and clamps the budget into the vendor's valid
// range relative to maxTokens. Validation guarantees maxTokens exceeds
// model.MinThinkingBudget whenever thinking is enabled, so the floored
// budget always stays below maxTokens.
func resolveThinking(req *Request, maxTokens int) (enabled bool, budget int) {
	if !req.Participant.ThinkingEnabled(req.ExtendedThinking) {
		return false, 0
	}

	budget = req.BudgetTokens
	if opts := req.Participant.AnthropicOptions; opts != nil && opts.BudgetTokens > 0 {
		budget = opts.BudgetTokens
	}

	if budget <= 0 {
		budget = defaultThinkingBudget
		if ceiling := maxTokens - thinkingBudgetReserve; ceiling < budget {
			budget = ceiling
		}
	}
	if budget >= maxTokens {
		budget = maxTokens - thinkingBudgetReserve
	}
	if budget < model.MinThinkingBudget {
		budget = model.MinThinkingBudget
	}

	return true, budget
}

// attributedContent renders an assistant turn for inclusion in another
// participant's view of the transcript. Turns attributed to a different
// participant are prefixed so models can tell peers apart; the current
// participant's own turns pass through as its continuation.
func attributedContent(t model.Turn, current string) string {
	if t.Role == model.RoleAssistant && t.ParticipantName != "" && t.ParticipantName != current {
		return "[" + t.ParticipantName + "]: " + t.Content
	}
	return t.Content
}

// flattenUserText folds text attachments into a user turn's text body.
// Image attachments are handled per vendor by the adapters.
func flattenUserText(t model.Turn) string {
	text := t.Content
	for _, a := range t.Attachments {
		if !a.IsText() {
			continue
		}
		if text != "" {
			text += "\n\n"
		}
		text += fmt.Sprintf("--- file: %s ---\n%s", a.Name, a.Data)
	}
	return text
}
