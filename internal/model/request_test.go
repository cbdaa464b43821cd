package model

import (
	"strings"
	"testing"
)

func validRequest() RunRequest {
	return RunRequest{
		Messages: []Turn{{Role: RoleUser, Content: "hi"}},
		Participants: []Participant{
			{ID: "p1", Name: "Ada", Provider: ProviderOpenAI, Model: "gpt-4o"},
			{ID: "p2", Name: "Grace", Provider: ProviderAnthropic, Model: "claude-sonnet-4-20250514"},
		},
	}
}

func TestValidateOK(t *testing.T) {
	req := validRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	temp := 3.5
	tests := []struct {
		name   string
		mutate func(*RunRequest)
		want   string
	}{
		{
			name:   "empty participants",
			mutate: func(r *RunRequest) { r.Participants = nil },
			want:   "at least one participant",
		},
		{
			name:   "missing name",
			mutate: func(r *RunRequest) { r.Participants[0].Name = "" },
			want:   "name is required",
		},
		{
			name:   "missing model",
			mutate: func(r *RunRequest) { r.Participants[0].Model = "" },
			want:   "model is required",
		},
		{
			name:   "bad provider",
			mutate: func(r *RunRequest) { r.Participants[0].Provider = "gemini" },
			want:   "unsupported provider",
		},
		{
			name:   "temperature out of range",
			mutate: func(r *RunRequest) { r.Participants[0].Temperature = &temp },
			want:   "temperature",
		},
		{
			name:   "bad role",
			mutate: func(r *RunRequest) { r.Messages[0].Role = "system" },
			want:   "invalid role",
		},
		{
			name: "attachment on assistant turn",
			mutate: func(r *RunRequest) {
				r.Messages = append(r.Messages, Turn{
					Role:        RoleAssistant,
					Content:     "x",
					Attachments: []Attachment{{Name: "a", MediaType: "text/plain", Data: "x"}},
				})
			},
			want: "only allowed on user turns",
		},
		{
			name:   "negative budget",
			mutate: func(r *RunRequest) { r.BudgetTokens = -1 },
			want:   "budgetTokens",
		},
		{
			name: "thinking with maxTokens at the budget floor",
			mutate: func(r *RunRequest) {
				r.ExtendedThinking = true
				r.Participants[1].MaxTokens = MinThinkingBudget
			},
			want: "extended thinking",
		},
		{
			name: "participant-enabled thinking with small maxTokens",
			mutate: func(r *RunRequest) {
				r.Participants[1].MaxTokens = 512
				r.Participants[1].Options = []byte(`{"extendedThinking":true}`)
			},
			want: "extended thinking",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidateThinkingMaxTokens(t *testing.T) {
	req := validRequest()
	req.ExtendedThinking = true
	if err := req.Validate(); err != nil {
		t.Errorf("unset maxTokens must pass with thinking: %v", err)
	}

	// A participant that opts out is exempt from the floor.
	req = validRequest()
	req.ExtendedThinking = true
	req.Participants[1].MaxTokens = 512
	req.Participants[1].Options = []byte(`{"extendedThinking":false}`)
	if err := req.Validate(); err != nil {
		t.Errorf("opted-out participant must pass: %v", err)
	}
}

func TestProvidersDistinctInOrder(t *testing.T) {
	req := RunRequest{Participants: []Participant{
		{Name: "a", Provider: ProviderAnthropic},
		{Name: "b", Provider: ProviderOpenAI},
		{Name: "c", Provider: ProviderAnthropic},
	}}

	got := req.Providers()
	if len(got) != 2 || got[0] != ProviderAnthropic || got[1] != ProviderOpenAI {
		t.Errorf("Providers() = %v", got)
	}
}
