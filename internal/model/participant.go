// Package model defines data structures for the collaboration platform.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Provider identifies which vendor chat API a participant runs against.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Valid reports whether the provider is one of the supported vendors.
func (p Provider) Valid() bool {
	return p == ProviderOpenAI || p == ProviderAnthropic
}

// OpenAIOptions are the OpenAI-specific participant options.
type OpenAIOptions struct {
	ReasoningEffort string `json:"reasoningEffort,omitempty"`
}

// AnthropicOptions are the Anthropic-specific participant options.
// ExtendedThinking and BudgetTokens override the request-level defaults
// when set.
type AnthropicOptions struct {
	ExtendedThinking *bool `json:"extendedThinking,omitempty"`
	BudgetTokens     int   `json:"budgetTokens,omitempty"`
}

// MinThinkingBudget is the smallest extended thinking budget the vendor
// accepts. The budget must also stay strictly below the participant's
// maxTokens, so thinking needs maxTokens above this floor.
const MinThinkingBudget = 1024

// Participant is one configured model endpoint taking part in a run.
// It is immutable for the duration of a request.
type Participant struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     Provider `json:"provider"`
	Model        string   `json:"model"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"maxTokens,omitempty"`
	Instructions string   `json:"instructions,omitempty"`

	// Options is the raw per-provider option bag. It is decoded strictly
	// into the variant matching Provider; unknown keys are rejected.
	Options json.RawMessage `json:"options,omitempty"`

	// Populated by ResolveOptions.
	OpenAIOptions    *OpenAIOptions    `json:"-"`
	AnthropicOptions *AnthropicOptions `json:"-"`
}

// ResolveOptions decodes the raw option bag into the typed variant for the
// participant's provider. Unknown keys fail the decode so misdirected or
// misspelled options never pass through silently.
func (p *Participant) ResolveOptions() error {
	if len(p.Options) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(p.Options))
	dec.DisallowUnknownFields()

	switch p.Provider {
	case ProviderOpenAI:
		opts := &OpenAIOptions{}
		if err := dec.Decode(opts); err != nil {
			return fmt.Errorf("invalid openai options for participant %q: %w", p.Name, err)
		}
		if err := validateReasoningEffort(opts.ReasoningEffort); err != nil {
			return fmt.Errorf("participant %q: %w", p.Name, err)
		}
		p.OpenAIOptions = opts
	case ProviderAnthropic:
		opts := &AnthropicOptions{}
		if err := dec.Decode(opts); err != nil {
			return fmt.Errorf("invalid anthropic options for participant %q: %w", p.Name, err)
		}
		if opts.BudgetTokens < 0 {
			return fmt.Errorf("participant %q: budgetTokens must not be negative", p.Name)
		}
		p.AnthropicOptions = opts
	default:
		return fmt.Errorf("participant %q: unsupported provider %q", p.Name, p.Provider)
	}

	return nil
}

// ThinkingEnabled reports whether extended thinking applies to this
// participant, layering its own option over the request-level default.
func (p *Participant) ThinkingEnabled(requestDefault bool) bool {
	if p.AnthropicOptions != nil && p.AnthropicOptions.ExtendedThinking != nil {
		return *p.AnthropicOptions.ExtendedThinking
	}
	return requestDefault
}

func validateReasoningEffort(effort string) error {
	switch effort {
	case "", "low", "medium", "high":
		return nil
	default:
		return fmt.Errorf("invalid reasoningEffort %q", effort)
	}
}
