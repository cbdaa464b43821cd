package model

import (
	"errors"
	"fmt"
)

// RunRequest is the inbound body for a collaboration run. History is
// caller-owned: the server holds no conversation state between requests.
type RunRequest struct {
	Messages     []Turn        `json:"messages"`
	Participants []Participant `json:"participants"`

	// Pass-through vendor credentials. When absent, the server-configured
	// fallback key for the provider is used instead.
	OpenAIKey    string `json:"openaiKey,omitempty"`
	AnthropicKey string `json:"anthropicKey,omitempty"`

	// SystemPrompt is a shared base instruction appended to every
	// participant's system prompt.
	SystemPrompt string `json:"systemPrompt,omitempty"`

	// Request-level extended thinking defaults for Anthropic participants.
	ExtendedThinking bool `json:"extendedThinking,omitempty"`
	BudgetTokens     int  `json:"budgetTokens,omitempty"`

	// PrefillContent is injected as a synthetic leading assistant turn for
	// the final participant only.
	PrefillContent string `json:"prefillContent,omitempty"`
}

// Validate checks structural validity and resolves per-participant option
// bags. It does not check credentials; key presence depends on server
// config and is enforced by the handler.
func (r *RunRequest) Validate() error {
	if len(r.Participants) == 0 {
		return errors.New("at least one participant is required")
	}

	for i := range r.Participants {
		p := &r.Participants[i]
		if p.Name == "" {
			return fmt.Errorf("participant %d: name is required", i)
		}
		if p.Model == "" {
			return fmt.Errorf("participant %q: model is required", p.Name)
		}
		if !p.Provider.Valid() {
			return fmt.Errorf("participant %q: unsupported provider %q", p.Name, p.Provider)
		}
		if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
			return fmt.Errorf("participant %q: temperature must be within [0, 2]", p.Name)
		}
		if p.MaxTokens < 0 {
			return fmt.Errorf("participant %q: maxTokens must not be negative", p.Name)
		}
		if err := p.ResolveOptions(); err != nil {
			return err
		}
		if p.Provider == ProviderAnthropic && p.MaxTokens > 0 &&
			p.MaxTokens <= MinThinkingBudget && p.ThinkingEnabled(r.ExtendedThinking) {
			return fmt.Errorf("participant %q: maxTokens must exceed %d when extended thinking is enabled", p.Name, MinThinkingBudget)
		}
	}

	for i, t := range r.Messages {
		if !t.Role.Valid() {
			return fmt.Errorf("message %d: invalid role %q", i, t.Role)
		}
		if t.Role == RoleAssistant && len(t.Attachments) > 0 {
			return fmt.Errorf("message %d: attachments are only allowed on user turns", i)
		}
	}

	if r.BudgetTokens < 0 {
		return errors.New("budgetTokens must not be negative")
	}

	return nil
}

// Providers returns the distinct providers used by the participant list,
// in first-use order.
func (r *RunRequest) Providers() []Provider {
	seen := make(map[Provider]bool, 2)
	var out []Provider
	for _, p := range r.Participants {
		if !seen[p.Provider] {
			seen[p.Provider] = true
			out = append(out, p.Provider)
		}
	}
	return out
}
