package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/roundtable-ai/collaboration-platform/internal/model"
)

// OpenAIAdapter streams completions from the OpenAI chat completions API.
type OpenAIAdapter struct {
	client *openai.Client
}

// NewOpenAIAdapter creates an adapter bound to an API key.
func NewOpenAIAdapter(apiKey string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAIAdapter{client: openai.NewClient(apiKey)}, nil
}

// Provider returns the provider name.
func (a *OpenAIAdapter) Provider() model.Provider {
	return model.ProviderOpenAI
}

// Models returns the known model identifiers.
func (a *OpenAIAdapter) Models() []string {
	return openAIModels()
}

func openAIModels() []string {
	return []string{
		"gpt-5",
		"gpt-5-mini",
		"gpt-4.1",
		"gpt-4o",
		"gpt-4o-mini",
		"o3",
		"o4-mini",
	}
}

// Stream opens a streaming chat completion, echoes the prefill first when
// present, relays each content delta, and returns the accumulated reply.
func (a *OpenAIAdapter) Stream(ctx context.Context, req *Request, onDelta StreamCallback) (*Result, error) {
	p := req.Participant

	ccr := openai.ChatCompletionRequest{
		Model:    p.Model,
		Messages: buildOpenAIMessages(req),
		Stream:   true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}

	maxTokens := resolveMaxTokens(p)
	if effort := reasoningEffort(p); effort != "" {
		// Reasoning models reject max_tokens.
		ccr.ReasoningEffort = effort
		ccr.MaxCompletionTokens = maxTokens
	} else {
		ccr.MaxTokens = maxTokens
	}

	if p.Temperature != nil {
		ccr.Temperature = float32(*p.Temperature)
	}

	var content string
	if req.Prefill != "" {
		content = req.Prefill
		if err := onDelta(req.Prefill); err != nil {
			return nil, err
		}
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, ccr)
	if err != nil {
		return nil, fmt.Errorf("openai stream open: %w", err)
	}
	defer stream.Close()

	var stopReason string
	var tokensIn, tokensOut int

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("openai stream recv: %w", err)
		}

		if response.Usage != nil {
			tokensIn = response.Usage.PromptTokens
			tokensOut = response.Usage.CompletionTokens
		}

		if len(response.Choices) == 0 {
			continue
		}
		choice := response.Choices[0]

		if delta := choice.Delta.Content; delta != "" {
			content += delta
			if err := onDelta(delta); err != nil {
				return nil, err
			}
		}
		if choice.FinishReason != "" {
			stopReason = string(choice.FinishReason)
		}
	}

	return &Result{
		Content:    content,
		TokensIn:   tokensIn,
		TokensOut:  tokensOut,
		StopReason: stopReason,
	}, nil
}

func reasoningEffort(p model.Participant) string {
	if p.OpenAIOptions == nil {
		return ""
	}
	return p.OpenAIOptions.ReasoningEffort
}

// buildOpenAIMessages maps the canonical transcript into OpenAI message
// shape: system prompt first, attributed assistant turns prefixed for
// peers, attachments folded or mapped to image parts, and the prefill
// appended as a trailing assistant turn.
func buildOpenAIMessages(req *Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)

	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, t := range req.History {
		switch t.Role {
		case model.RoleUser:
			msgs = append(msgs, openAIUserMessage(t))
		case model.RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: attributedContent(t, req.Participant.Name),
			})
		}
	}

	if req.Prefill != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: req.Prefill,
		})
	}

	return msgs
}

func openAIUserMessage(t model.Turn) openai.ChatCompletionMessage {
	var images []model.Attachment
	for _, a := range t.Attachments {
		if a.IsImage() {
			images = append(images, a)
		}
	}

	text := flattenUserText(t)
	if len(images) == 0 {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		}
	}

	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	if text != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: text,
		})
	}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", img.MediaType, img.Data),
			},
		})
	}

	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}
