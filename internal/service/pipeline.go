package service

import (
	"context"
	"errors"
	"time"

	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/metrics"
	"github.com/windoze95/amitbot-api/internal/models"
	"github.com/windoze95/amitbot-api/internal/repository"
	"github.com/windoze95/amitbot-api/internal/util"
	"go.uber.org/zap"
)

// State is a pipeline stage.
type State string

const (
	StateReceived       State = "received"
	StateModalityBranch State = "modality_branch"
	StateTranscribing   State = "transcribing"
	StateClassifying    State = "classifying"
	StateRouting        State = "routing"
	StateDispatching    State = "dispatching"
	StateSynthesizing   State = "synthesizing"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)

// Stage collaborators. The concrete types in this package satisfy them.
type (
	Acquirer interface {
		Acquire(ctx context.Context, msg models.InboundMessage) (models.StorageRef, error)
	}
	Transcriber interface {
		Transcribe(ctx context.Context, ref models.StorageRef, timeout time.Duration) (string, error)
	}
	Resolver interface {
		Resolve(ctx context.Context, text, sessionID string) (*models.Intent, error)
	}
	Router interface {
		Route(intent *models.Intent) *models.DomainQuery
		Clarification(q *models.DomainQuery) string
		Dispatch(ctx context.Context, q *models.DomainQuery) (string, error)
	}
	Synthesizer interface {
		Synthesize(ctx context.Context, chatID int64, text string, modality models.Modality) models.ReplyPayload
	}
)

// Outcome is the terminal result of one pipeline. Reply is always set;
// when State is StateFailed it is the apology and Err carries the typed
// failure.
type Outcome struct {
	State    State
	Reply    models.ReplyPayload
	Err      error
	Intent   *models.Intent
	Query    *models.DomainQuery
	Trace    []State
	Duration time.Duration
}

// Orchestrator runs the reply pipeline for one inbound message at a time
// per call; calls for different messages are independent.
type Orchestrator struct {
	Acquirer    Acquirer
	Transcriber Transcriber
	Resolver    Resolver
	Router      Router
	Synthesizer Synthesizer
	Store       ObjectStore

	// Recorder and Queue are optional.
	Recorder repository.InteractionRepo
	Queue    *ChatQueue

	Budget            time.Duration
	TranscribeTimeout time.Duration
}

// pipelineRun is the mutable state of one Handle call.
type pipelineRun struct {
	msg       models.InboundMessage
	requestID string
	log       *zap.Logger
	start     time.Time
	trace     []State
	uploaded  models.StorageRef
	intent    *models.Intent
	query     *models.DomainQuery
}

func (p *pipelineRun) enter(s State) {
	for _, seen := range p.trace {
		if seen == s {
			p.log.Error("pipeline state revisited", zap.String("state", string(s)))
			return
		}
	}
	p.trace = append(p.trace, s)
	p.log.Debug("pipeline state", zap.String("state", string(s)))
}

// Handle runs msg through the pipeline within the overall budget and
// always returns an Outcome carrying exactly one reply.
func (o *Orchestrator) Handle(ctx context.Context, msg models.InboundMessage) *Outcome {
	requestID := util.RequestIDFrom(ctx)
	run := &pipelineRun{
		msg:       msg,
		requestID: requestID,
		log:       logger.ForChat(msg.ChatID(), requestID),
		start:     time.Now(),
	}
	run.enter(StateReceived)

	budgetCtx, cancel := context.WithTimeout(ctx, o.Budget)
	defer cancel()

	if o.Queue != nil {
		release, err := o.Queue.Acquire(budgetCtx, msg.ChatID())
		if err != nil {
			return o.finish(budgetCtx, ctx, run, models.ReplyPayload{}, StateReceived, err)
		}
		defer release()
	}

	reply, stage, err := o.run(budgetCtx, run)
	return o.finish(budgetCtx, ctx, run, reply, stage, err)
}

// run walks the stages and returns the reply, or the error and the stage
// it happened in.
func (o *Orchestrator) run(ctx context.Context, run *pipelineRun) (models.ReplyPayload, State, error) {
	msg := run.msg
	run.enter(StateModalityBranch)

	text := msg.RawText()
	if msg.Modality() == models.ModalityVoice {
		run.enter(StateTranscribing)
		ref, err := o.Acquirer.Acquire(ctx, msg)
		if err != nil {
			return models.ReplyPayload{}, StateTranscribing, err
		}
		run.uploaded = ref

		text, err = o.Transcriber.Transcribe(ctx, ref, o.TranscribeTimeout)
		if err != nil {
			return models.ReplyPayload{}, StateTranscribing, err
		}
		run.log.Info("voice transcribed", zap.String("transcript", text))
	}

	run.enter(StateClassifying)
	intent, err := o.Resolver.Resolve(ctx, text, msg.SessionID())
	if err != nil {
		return models.ReplyPayload{}, StateClassifying, err
	}
	run.intent = intent
	metrics.IntentsTotal.WithLabelValues(string(intent.Name)).Inc()

	answer := UnknownIntentReply
	if intent.Name != models.IntentUnknown {
		run.enter(StateRouting)
		q := o.Router.Route(intent)
		run.query = q

		if q != nil && q.Complete() {
			run.enter(StateDispatching)
			answer, err = o.Router.Dispatch(ctx, q)
			if err != nil {
				return models.ReplyPayload{}, StateDispatching, err
			}
		} else {
			answer = o.Router.Clarification(q)
			run.log.Info("asking for missing slots", zap.Any("missing", missingSlots(q)))
		}
	}

	run.enter(StateSynthesizing)
	return o.Synthesizer.Synthesize(ctx, msg.ChatID(), answer, msg.Modality()), StateSynthesizing, nil
}

// finish turns the stage result into the terminal Outcome.
func (o *Orchestrator) finish(budgetCtx, parent context.Context, run *pipelineRun, reply models.ReplyPayload, stage State, err error) *Outcome {
	out := &Outcome{Intent: run.intent, Query: run.query}

	if err == nil {
		run.enter(StateCompleted)
		out.State = StateCompleted
		out.Reply = reply
	} else {
		run.enter(StateFailed)
		out.State = StateFailed
		out.Reply = models.NewTextReply(ApologyReply)
		out.Err = apperr.WithChat(o.classify(budgetCtx, parent, err, stage), run.msg.ChatID())
		o.cleanup(run)
	}

	out.Trace = run.trace
	out.Duration = time.Since(run.start)
	o.observe(run, out)
	return out
}

// classify gives every failure a taxonomy kind. Running out of budget wins
// over whatever the interrupted stage reported.
func (o *Orchestrator) classify(budgetCtx, parent context.Context, err error, stage State) error {
	if errors.Is(budgetCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return apperr.New(apperr.KindPipelineTimeout, string(stage), err)
	}
	if apperr.KindOf(err) != "" {
		return err
	}

	kind := apperr.KindProvider
	switch stage {
	case StateTranscribing:
		kind = apperr.KindTranscription
	case StateClassifying:
		kind = apperr.KindClassification
	case StateReceived:
		kind = apperr.KindPipelineTimeout
	}
	return apperr.New(kind, string(stage), err)
}

// cleanup deletes the uploaded voice object without holding up the reply.
func (o *Orchestrator) cleanup(run *pipelineRun) {
	if run.uploaded.IsZero() || o.Store == nil {
		return
	}
	ref := run.uploaded
	log := run.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.Store.Delete(ctx, ref); err != nil {
			log.Warn("failed to clean up voice object", zap.String("storage_ref", ref.URI()), zap.Error(err))
		}
	}()
}

func (o *Orchestrator) observe(run *pipelineRun, out *Outcome) {
	modality := run.msg.Modality().String()
	metrics.PipelinesTotal.WithLabelValues(modality, string(out.State)).Inc()
	metrics.PipelineDuration.WithLabelValues(modality).Observe(out.Duration.Seconds())

	fields := []zap.Field{
		zap.String("state", string(out.State)),
		zap.String("modality", modality),
		zap.Duration("duration", out.Duration),
	}
	if out.Intent != nil {
		fields = append(fields, zap.String("intent", string(out.Intent.Name)))
	}
	if out.Err != nil {
		kind := apperr.KindOf(out.Err)
		metrics.PipelineFailures.WithLabelValues(string(kind)).Inc()
		run.log.Error("pipeline failed", append(fields, zap.String("error_kind", string(kind)), zap.Error(out.Err))...)
	} else {
		run.log.Info("pipeline completed", append(fields, zap.Bool("degraded", out.Reply.Degraded()))...)
	}

	if o.Recorder != nil {
		o.record(run, out)
	}
}

func (o *Orchestrator) record(run *pipelineRun, out *Outcome) {
	interaction := &models.Interaction{
		ChatID:     run.msg.ChatID(),
		MessageID:  run.msg.MessageID(),
		RequestID:  run.requestID,
		Modality:   run.msg.Modality().String(),
		State:      string(out.State),
		Degraded:   out.Reply.Degraded(),
		DurationMs: out.Duration.Milliseconds(),
	}
	if out.Intent != nil {
		interaction.Intent = string(out.Intent.Name)
		interaction.Confidence = out.Intent.Confidence
	}
	interaction.MissingSlots = missingSlots(out.Query)
	if out.Err != nil {
		interaction.ErrorKind = string(apperr.KindOf(out.Err))
		interaction.ErrorDetail = out.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := o.Recorder.CreateInteraction(ctx, interaction); err != nil {
		run.log.Warn("failed to record interaction", zap.Error(err))
	}
}

func missingSlots(q *models.DomainQuery) []string {
	if q == nil {
		return nil
	}
	return q.MissingRequiredSlots
}
