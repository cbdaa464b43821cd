// Package orchestrator runs multi-participant collaboration requests.
//
// Participants are processed strictly one at a time, in list order. This is
// intentional, not a missing optimization: each participant must see every
// earlier participant's completed reply in its transcript, so progression
// gates on stream completion rather than fanning out concurrently.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roundtable-ai/collaboration-platform/internal/events"
	"github.com/roundtable-ai/collaboration-platform/internal/model"
	"github.com/roundtable-ai/collaboration-platform/internal/provider"
	"github.com/roundtable-ai/collaboration-platform/pkg/logger"
	"github.com/roundtable-ai/collaboration-platform/pkg/metrics"
)

// Credentials maps each provider in use to its resolved API key.
type Credentials map[model.Provider]string

// Emitter receives every stream event the run produces, in order.
type Emitter func(event model.StreamEvent) error

// Orchestrator owns the per-request run loop.
type Orchestrator struct {
	newAdapter provider.Factory
	publisher  *events.Publisher
	logger     *logger.Logger
	tracer     trace.Tracer
}

// New creates an orchestrator. The publisher may be nil when run auditing
// is not configured.
func New(factory provider.Factory, publisher *events.Publisher, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		newAdapter: factory,
		publisher:  publisher,
		logger:     log,
		tracer:     otel.Tracer("collaboration-platform/orchestrator"),
	}
}

// Run executes one collaboration run: for each participant in order it
// builds the system prompt naming the other participants, streams the
// reply through emit, and appends the completed reply to its own history
// copy with attribution. A participant failure is reported in-band and the
// loop continues; exactly one complete event follows the last participant.
// A canceled context stops further dispatch and emission.
func (o *Orchestrator) Run(ctx context.Context, req *model.RunRequest, creds Credentials, emit Emitter) error {
	runID := uuid.Must(uuid.NewV7()).String()
	participants := req.Participants

	history := make([]model.Turn, len(req.Messages))
	copy(history, req.Messages)

	o.publish(ctx, model.RunEvent{RunID: runID, Type: model.RunEventStarted})
	metrics.RunsTotal.Inc()

	for i, p := range participants {
		if err := ctx.Err(); err != nil {
			return err
		}

		prefill := ""
		if i == len(participants)-1 {
			prefill = req.PrefillContent
		}

		adapterReq := &provider.Request{
			Participant:      p,
			History:          history,
			System:           provider.BuildSystemPrompt(p, otherParticipants(participants, i), req.SystemPrompt),
			Prefill:          prefill,
			ExtendedThinking: req.ExtendedThinking,
			BudgetTokens:     req.BudgetTokens,
		}

		result, err := o.streamParticipant(ctx, runID, adapterReq, creds, emit)
		if err != nil {
			if ctx.Err() != nil {
				// Client is gone; nothing left to emit.
				return ctx.Err()
			}
			o.logger.Warn("participant stream failed",
				logger.String("run_id", runID),
				logger.String("participant", p.Name),
				logger.String("provider", string(p.Provider)),
				logger.Err(err),
			)
			if emitErr := emit(model.ErrorEvent(p.Name, err.Error())); emitErr != nil {
				return emitErr
			}
			continue
		}

		// An empty reply appends nothing, so downstream participants see
		// the same history whether a peer failed or produced no text.
		if result.Content != "" {
			history = append(history, model.Turn{
				Role:            model.RoleAssistant,
				Content:         result.Content,
				ParticipantName: p.Name,
			})
		}
	}

	if err := emit(model.CompleteEvent()); err != nil {
		return err
	}
	o.publish(ctx, model.RunEvent{RunID: runID, Type: model.RunEventCompleted})

	return nil
}

func (o *Orchestrator) streamParticipant(ctx context.Context, runID string, req *provider.Request, creds Credentials, emit Emitter) (*provider.Result, error) {
	p := req.Participant

	ctx, span := o.tracer.Start(ctx, "participant.stream", trace.WithAttributes(
		attribute.String("participant", p.Name),
		attribute.String("provider", string(p.Provider)),
		attribute.String("model", p.Model),
	))
	defer span.End()

	adapter, err := o.newAdapter(p.Provider, creds[p.Provider])
	if err != nil {
		o.recordOutcome(ctx, runID, p, "error", 0, nil, err)
		return nil, err
	}

	start := time.Now()
	result, err := adapter.Stream(ctx, req, func(text string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return emit(model.ContentDelta(p, text))
	})
	elapsed := time.Since(start)

	if err != nil {
		o.recordOutcome(ctx, runID, p, "error", elapsed, nil, err)
		return nil, err
	}

	o.recordOutcome(ctx, runID, p, "success", elapsed, result, nil)
	return result, nil
}

func (o *Orchestrator) recordOutcome(ctx context.Context, runID string, p model.Participant, status string, elapsed time.Duration, result *provider.Result, cause error) {
	metrics.ParticipantsTotal.WithLabelValues(string(p.Provider), status).Inc()
	metrics.ParticipantStreamDuration.WithLabelValues(string(p.Provider), p.Model, status).Observe(elapsed.Seconds())

	ev := model.RunEvent{
		RunID:       runID,
		Participant: p.Name,
		Provider:    p.Provider,
		Model:       p.Model,
	}
	if cause != nil {
		ev.Type = model.RunEventParticipantFailed
		ev.Reason = cause.Error()
	} else {
		ev.Type = model.RunEventParticipantCompleted
		metrics.RecordTokens(string(p.Provider), p.Model, result.TokensIn, result.TokensOut)
	}
	o.publish(ctx, ev)
}

// publish is fire-and-forget: audit events never fail a run.
func (o *Orchestrator) publish(ctx context.Context, ev model.RunEvent) {
	if o.publisher == nil {
		return
	}
	ev.ID = uuid.Must(uuid.NewV7()).String()
	ev.CreatedAt = time.Now()
	// Audit events still publish when the client has gone away.
	if err := o.publisher.Publish(context.WithoutCancel(ctx), &ev); err != nil {
		o.logger.Warn("failed to publish run event",
			logger.String("run_id", ev.RunID),
			logger.String("type", string(ev.Type)),
			logger.Err(err),
		)
	}
}

func otherParticipants(all []model.Participant, i int) []model.Participant {
	others := make([]model.Participant, 0, len(all)-1)
	others = append(others, all[:i]...)
	return append(others, all[i+1:]...)
}
