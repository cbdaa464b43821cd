package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roundtable-ai/collaboration-platform/internal/model"
	"github.com/roundtable-ai/collaboration-platform/internal/orchestrator"
	"github.com/roundtable-ai/collaboration-platform/internal/provider"
	"github.com/roundtable-ai/collaboration-platform/pkg/logger"
)

type scriptedAdapter struct {
	chunks []string
	err    error
}

func (s *scriptedAdapter) Provider() model.Provider { return model.ProviderOpenAI }
func (s *scriptedAdapter) Models() []string         { return nil }

func (s *scriptedAdapter) Stream(ctx context.Context, req *provider.Request, onDelta provider.StreamCallback) (*provider.Result, error) {
	var content string
	for _, c := range s.chunks {
		if err := onDelta(c); err != nil {
			return nil, err
		}
		content += c
	}
	if s.err != nil {
		return nil, s.err
	}
	return &provider.Result{Content: content}, nil
}

func newTestHandler(adapter provider.Adapter, fallback FallbackKeys) *ChatHandler {
	factory := func(prov model.Provider, apiKey string) (provider.Adapter, error) {
		return adapter, nil
	}
	orch := orchestrator.New(factory, nil, logger.NewNop())
	return NewChatHandler(orch, fallback, logger.NewNop())
}

func postChat(t *testing.T, h *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Stream(rec, req)
	return rec
}

func decodeEvents(t *testing.T, body string) []model.StreamEvent {
	t.Helper()
	var evs []model.StreamEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev model.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		evs = append(evs, ev)
	}
	return evs
}

const validBody = `{
	"messages": [{"role": "user", "content": "hi"}],
	"participants": [
		{"id": "p1", "name": "Ada", "provider": "openai", "model": "gpt-4o"}
	],
	"openaiKey": "sk-test"
}`

func TestChatStreamHappyPath(t *testing.T) {
	h := newTestHandler(&scriptedAdapter{chunks: []string{"Hel", "lo"}}, FallbackKeys{})

	rec := postChat(t, h, validBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	evs := decodeEvents(t, rec.Body.String())
	if len(evs) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(evs), evs)
	}
	for i, want := range []string{"Hel", "lo"} {
		if evs[i].Type != model.EventTypeContentDelta || evs[i].Content != want || evs[i].Participant != "Ada" {
			t.Errorf("event %d = %+v", i, evs[i])
		}
	}
	if evs[2].Type != model.EventTypeComplete {
		t.Errorf("terminal event = %+v, want complete", evs[2])
	}
}

func TestChatStreamValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "malformed json",
			body: `{`,
			want: "invalid request body",
		},
		{
			name: "no participants",
			body: `{"messages":[],"participants":[]}`,
			want: "at least one participant",
		},
		{
			name: "unknown provider",
			body: `{"participants":[{"id":"p1","name":"Ada","provider":"grok","model":"x"}]}`,
			want: "unsupported provider",
		},
		{
			name: "missing key for provider in use",
			body: `{"participants":[{"id":"p1","name":"Ada","provider":"openai","model":"gpt-4o"}]}`,
			want: `missing API key for provider "openai"`,
		},
		{
			name: "unknown option key rejected",
			body: `{"participants":[{"id":"p1","name":"Ada","provider":"openai","model":"gpt-4o","options":{"bogus":1}}],"openaiKey":"sk"}`,
			want: "invalid openai options",
		},
		{
			name: "anthropic options on openai participant rejected",
			body: `{"participants":[{"id":"p1","name":"Ada","provider":"openai","model":"gpt-4o","options":{"extendedThinking":true}}],"openaiKey":"sk"}`,
			want: "invalid openai options",
		},
		{
			name: "oversized message content",
			body: `{"messages":[{"role":"user","content":"` + strings.Repeat("a", 200001) + `"}],` +
				`"participants":[{"id":"p1","name":"Ada","provider":"openai","model":"gpt-4o"}],"openaiKey":"sk"}`,
			want: "content exceeds maximum length",
		},
		{
			name: "overlong participant name",
			body: `{"participants":[{"id":"p1","name":"` + strings.Repeat("n", 65) + `","provider":"openai","model":"gpt-4o"}],"openaiKey":"sk"}`,
			want: "participant name exceeds",
		},
		{
			name: "thinking budget floor above maxTokens",
			body: `{"extendedThinking":true,"participants":[{"id":"p1","name":"Ada","provider":"anthropic","model":"claude-sonnet-4-20250514","maxTokens":1024}],"anthropicKey":"sk"}`,
			want: "extended thinking",
		},
	}

	h := newTestHandler(&scriptedAdapter{}, FallbackKeys{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want JSON error body", ct)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body not JSON: %s", rec.Body.String())
			}
			if !strings.Contains(resp["error"], tt.want) {
				t.Errorf("error = %q, want substring %q", resp["error"], tt.want)
			}
		})
	}
}

func TestChatStreamFallbackKey(t *testing.T) {
	h := newTestHandler(&scriptedAdapter{chunks: []string{"ok"}}, FallbackKeys{OpenAI: "sk-env"})

	body := `{"messages":[],"participants":[{"id":"p1","name":"Ada","provider":"openai","model":"gpt-4o"}]}`
	rec := postChat(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d with fallback key configured; body = %s", rec.Code, rec.Body.String())
	}
}

func TestChatStreamParticipantErrorInBand(t *testing.T) {
	h := newTestHandler(&scriptedAdapter{err: errors.New("vendor down")}, FallbackKeys{})

	rec := postChat(t, h, validBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, runtime errors must stay in-band", rec.Code)
	}

	evs := decodeEvents(t, rec.Body.String())
	if len(evs) != 2 {
		t.Fatalf("got %d events, want error + complete: %+v", len(evs), evs)
	}
	if evs[0].Type != model.EventTypeError || evs[0].Participant != "Ada" {
		t.Errorf("first event = %+v, want error naming Ada", evs[0])
	}
	if !strings.Contains(evs[0].Message, "vendor down") {
		t.Errorf("error message = %q", evs[0].Message)
	}
	if evs[1].Type != model.EventTypeComplete {
		t.Errorf("terminal event = %+v, want complete", evs[1])
	}
}

func TestChatStreamEventOrderTwoProviders(t *testing.T) {
	// One shared scripted adapter serves both providers; attribution in
	// the emitted events is what distinguishes the participants.
	h := newTestHandler(&scriptedAdapter{chunks: []string{"x", "y"}}, FallbackKeys{})

	body := `{
		"messages": [{"role": "user", "content": "hi"}],
		"participants": [
			{"id": "p1", "name": "Ada", "provider": "openai", "model": "gpt-5"},
			{"id": "p2", "name": "Grace", "provider": "anthropic", "model": "claude-sonnet-4-20250514"}
		],
		"openaiKey": "sk-1",
		"anthropicKey": "sk-2"
	}`
	rec := postChat(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	evs := decodeEvents(t, rec.Body.String())
	var order []string
	for _, ev := range evs {
		if ev.Type == model.EventTypeContentDelta {
			order = append(order, ev.Participant)
		}
	}
	want := []string{"Ada", "Ada", "Grace", "Grace"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("delta order = %v, want %v", order, want)
	}
	if evs[len(evs)-1].Type != model.EventTypeComplete {
		t.Errorf("terminal event = %+v", evs[len(evs)-1])
	}
}
