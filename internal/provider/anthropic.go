package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/roundtable-ai/collaboration-platform/internal/model"
)

// Markers wrapping relayed extended-thinking text so clients can
// distinguish it from the visible reply.
const (
	thinkingOpenMarker  = "\n[thinking]\n"
	thinkingCloseMarker = "\n[/thinking]\n"
)

// AnthropicAdapter streams completions from the Anthropic Messages API.
type AnthropicAdapter struct {
	client anthropic.Client
}

// NewAnthropicAdapter creates an adapter bound to an API key.
func NewAnthropicAdapter(apiKey string) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	return &AnthropicAdapter{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

// Provider returns the provider name.
func (a *AnthropicAdapter) Provider() model.Provider {
	return model.ProviderAnthropic
}

// Models returns the known model identifiers.
func (a *AnthropicAdapter) Models() []string {
	return anthropicModels()
}

func anthropicModels() []string {
	return []string{
		"claude-opus-4-20250514",
		"claude-sonnet-4-20250514",
		"claude-3-7-sonnet-latest",
		"claude-3-5-haiku-latest",
	}
}

// Stream opens a streaming message, echoes the prefill first when present,
// relays text deltas as content and thinking deltas wrapped in markers,
// and returns the accumulated visible reply. Thinking text is relayed but
// never enters the accumulator, so attribution history stays clean.
func (a *AnthropicAdapter) Stream(ctx context.Context, req *Request, onDelta StreamCallback) (*Result, error) {
	p := req.Participant
	maxTokens := resolveMaxTokens(p)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.Model),
		MaxTokens: int64(maxTokens),
		Messages:  buildAnthropicMessages(req),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	thinking, budget := resolveThinking(req, maxTokens)
	if thinking {
		// Temperature must stay at the vendor default with thinking on.
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(budget))
	} else if p.Temperature != nil {
		params.Temperature = anthropic.Float(*p.Temperature)
	}

	var content string
	if req.Prefill != "" {
		content = req.Prefill
		if err := onDelta(req.Prefill); err != nil {
			return nil, err
		}
	}

	stream := a.client.Messages.NewStreaming(ctx, params)

	var tokensIn, tokensOut int
	var stopReason string
	inThinking := false

	closeThinking := func() error {
		if !inThinking {
			return nil
		}
		inThinking = false
		return onDelta(thinkingCloseMarker)
	}

	for stream.Next() {
		event := stream.Current()

		switch ev := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			tokensIn = int(ev.Message.Usage.InputTokens)

		case anthropic.ContentBlockDeltaEvent:
			switch d := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if err := closeThinking(); err != nil {
					return nil, err
				}
				content += d.Text
				if err := onDelta(d.Text); err != nil {
					return nil, err
				}
			case anthropic.ThinkingDelta:
				if !inThinking {
					inThinking = true
					if err := onDelta(thinkingOpenMarker); err != nil {
						return nil, err
					}
				}
				if err := onDelta(d.Thinking); err != nil {
					return nil, err
				}
			}

		case anthropic.MessageDeltaEvent:
			stopReason = string(ev.Delta.StopReason)
			tokensOut = int(ev.Usage.OutputTokens)
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}
	if err := closeThinking(); err != nil {
		return nil, err
	}

	return &Result{
		Content:    content,
		TokensIn:   tokensIn,
		TokensOut:  tokensOut,
		StopReason: stopReason,
	}, nil
}

// buildAnthropicMessages maps the canonical transcript into Anthropic
// message shape. Consecutive same-role turns are coalesced into one
// message because the vendor requires alternating roles; the prefill is
// appended as a trailing assistant turn to continue from.
func buildAnthropicMessages(req *Request) []anthropic.MessageParam {
	var msgs []anthropic.MessageParam

	appendBlocks := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, blocks...)
			return
		}
		switch role {
		case anthropic.MessageParamRoleUser:
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		case anthropic.MessageParamRoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		}
	}

	for _, t := range req.History {
		switch t.Role {
		case model.RoleUser:
			appendBlocks(anthropic.MessageParamRoleUser, anthropicUserBlocks(t))
		case model.RoleAssistant:
			content := attributedContent(t, req.Participant.Name)
			if content == "" {
				continue
			}
			appendBlocks(anthropic.MessageParamRoleAssistant, []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(content),
			})
		}
	}

	if req.Prefill != "" {
		appendBlocks(anthropic.MessageParamRoleAssistant, []anthropic.ContentBlockParamUnion{
			anthropic.NewTextBlock(req.Prefill),
		})
	}

	return msgs
}

func anthropicUserBlocks(t model.Turn) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion

	if text := flattenUserText(t); text != "" {
		blocks = append(blocks, anthropic.NewTextBlock(text))
	}
	for _, a := range t.Attachments {
		if a.IsImage() {
			blocks = append(blocks, anthropic.NewImageBlockBase64(a.MediaType, a.Data))
		}
	}

	return blocks
}
