package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/roundtable-ai/collaboration-platform/internal/middleware"
	"github.com/roundtable-ai/collaboration-platform/internal/model"
	"github.com/roundtable-ai/collaboration-platform/internal/orchestrator"
	"github.com/roundtable-ai/collaboration-platform/pkg/logger"
	"github.com/roundtable-ai/collaboration-platform/pkg/metrics"
)

// FallbackKeys are server-configured vendor keys used when a request does
// not carry its own.
type FallbackKeys struct {
	OpenAI    string
	Anthropic string
}

// ChatHandler handles the collaboration run endpoint.
type ChatHandler struct {
	orchestrator *orchestrator.Orchestrator
	fallback     FallbackKeys
	logger       *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orch *orchestrator.Orchestrator, fallback FallbackKeys, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orch,
		fallback:     fallback,
		logger:       log,
	}
}

// Stream handles POST /api/v1/chat. It validates the request, then fans
// the conversation out to each participant in order, relaying incremental
// output as SSE. Validation failures are plain HTTP errors; once streaming
// has begun, failures surface as in-band error events.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, t := range req.Messages {
		if err := middleware.ValidateMessageContent(t.Content); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	for _, p := range req.Participants {
		if err := middleware.ValidateParticipantName(p.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	creds, err := h.resolveCredentials(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sw, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	if err := h.orchestrator.Run(ctx, &req, creds, sw.WriteEvent); err != nil {
		if ctx.Err() != nil {
			h.logger.Info("client disconnected mid-run",
				logger.String("correlation_id", middleware.GetCorrelationID(ctx)),
				logger.String("user_id", middleware.GetUserID(ctx)),
			)
			return
		}
		// Fatal outside the per-participant scope: report and close.
		h.logger.Error("run failed", logger.Err(err))
		_ = sw.WriteEvent(model.ErrorEvent("", err.Error()))
	}
}

// resolveCredentials merges request keys over server fallbacks and
// requires a key for every provider the participant list uses.
func (h *ChatHandler) resolveCredentials(req *model.RunRequest) (orchestrator.Credentials, error) {
	creds := orchestrator.Credentials{}

	for _, prov := range req.Providers() {
		var key string
		switch prov {
		case model.ProviderOpenAI:
			key = req.OpenAIKey
			if key == "" {
				key = h.fallback.OpenAI
			}
		case model.ProviderAnthropic:
			key = req.AnthropicKey
			if key == "" {
				key = h.fallback.Anthropic
			}
		}
		if key == "" {
			return nil, fmt.Errorf("missing API key for provider %q", prov)
		}
		creds[prov] = key
	}

	return creds, nil
}
