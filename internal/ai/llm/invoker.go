// Package llm invokes the chat-completion upstream with model selection,
// a per-attempt timeout and bounded retries with jittered exponential backoff.
package llm

import (
	"context"
	"math/rand"
	"time"

	"formgen-workers/internal/common/config"
	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/common/observability"
	"formgen-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options are the invoker's immutable settings.
type Options struct {
	APIKey      string
	Model       string
	VisionModel string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int // total attempts
	BaseDelay   time.Duration
}

// OptionsFromConfig converts the llm config section.
func OptionsFromConfig(cfg config.LLMConfig) Options {
	return Options{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		VisionModel: cfg.VisionModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     config.GetDuration(cfg.Timeout),
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   config.GetDuration(cfg.BaseDelay),
	}
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = config.DefaultModel
	}
	if o.VisionModel == "" {
		o.VisionModel = config.DefaultVisionModel
	}
	if o.Temperature == 0 {
		o.Temperature = config.DefaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = config.DefaultMaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = config.GetDuration(config.DefaultLLMTimeout)
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = config.DefaultMaxRetries
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = config.GetDuration(config.DefaultBaseDelay)
	}
	return o
}

// InvokerDeps are the collaborators; only Client is required.
type InvokerDeps struct {
	Client   Completer
	Observer Observer
	Sleeper  Sleeper
	Rand     func() float64
	Tracer   trace.Tracer
}

// Invoker is safe for concurrent use.
type Invoker struct {
	opts     Options
	client   Completer
	observer Observer
	sleep    Sleeper
	rand     func() float64
	tracer   trace.Tracer
}

func NewInvoker(opts Options, deps InvokerDeps) *Invoker {
	inv := &Invoker{
		opts:     opts.withDefaults(),
		client:   deps.Client,
		observer: deps.Observer,
		sleep:    deps.Sleeper,
		rand:     deps.Rand,
		tracer:   deps.Tracer,
	}
	if inv.observer == nil {
		inv.observer = NopObserver{}
	}
	if inv.sleep == nil {
		inv.sleep = ContextSleep
	}
	if inv.rand == nil {
		inv.rand = rand.Float64
	}
	if inv.tracer == nil {
		inv.tracer = observability.Tracer("formgen-workers/llm")
	}
	return inv
}

// IsConfigured reports whether a usable API key is present.
func (inv *Invoker) IsConfigured() bool {
	return inv.opts.APIKey != "" && inv.opts.APIKey != config.PlaceholderAPIKey
}

// SelectModel returns the vision model when any message carries multimodal parts.
func (inv *Invoker) SelectModel(msgs []models.Message) string {
	for _, m := range msgs {
		if m.Content.Kind == models.ContentParts {
			return inv.opts.VisionModel
		}
	}
	return inv.opts.Model
}

type invokeState int

const (
	stateAttempting invokeState = iota
	stateBackingOff
	stateSucceeded
	stateFailedTerminal
)

// Generate sends msgs to the selected model and returns the raw completion text.
// Auth errors and caller cancellation end immediately; other failures are retried
// up to MaxRetries attempts in total.
func (inv *Invoker) Generate(ctx context.Context, msgs []models.Message) (string, error) {
	model := inv.SelectModel(msgs)
	req := CompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: inv.opts.Temperature,
		MaxTokens:   inv.opts.MaxTokens,
	}

	ctx, span := inv.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.max_attempts", inv.opts.MaxRetries),
	))
	defer span.End()

	var (
		state   = stateAttempting
		attempt int
		result  string
		lastErr error
	)

	for {
		switch state {
		case stateAttempting:
			if err := ctx.Err(); err != nil {
				lastErr = err
				state = stateFailedTerminal
				continue
			}
			attempt++
			inv.observer.OnAttempt(ctx, model, attempt, inv.opts.MaxRetries)

			start := time.Now()
			text, err := inv.attempt(ctx, req)
			if err == nil {
				inv.observer.OnSuccess(ctx, model, attempt, time.Since(start))
				result = text
				state = stateSucceeded
				continue
			}

			kind := Classify(err)
			inv.observer.OnFailure(ctx, model, attempt, kind, err)
			switch {
			case !kind.Retryable():
				lastErr = err
				state = stateFailedTerminal
			case attempt >= inv.opts.MaxRetries:
				lastErr = errors.NewRetriesExhaustedError(attempt, err)
				state = stateFailedTerminal
			default:
				lastErr = err
				state = stateBackingOff
			}

		case stateBackingOff:
			delay := Backoff(inv.opts.BaseDelay, attempt, inv.rand())
			inv.observer.OnBackoff(ctx, attempt, delay)
			if err := inv.sleep(ctx, delay); err != nil {
				lastErr = err
				state = stateFailedTerminal
				continue
			}
			state = stateAttempting

		case stateSucceeded:
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return result, nil

		case stateFailedTerminal:
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			span.RecordError(lastErr)
			span.SetStatus(codes.Error, errors.MessageOf(lastErr))
			return "", lastErr
		}
	}
}

type attemptResult struct {
	text string
	err  error
}

// attempt races one client call against the per-attempt timeout. A client that
// ignores its context is abandoned; its result is discarded.
func (inv *Invoker) attempt(ctx context.Context, req CompletionRequest) (string, error) {
	actx, cancel := context.WithTimeout(ctx, inv.opts.Timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		text, err := inv.client.Complete(actx, req)
		done <- attemptResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if actx.Err() == context.DeadlineExceeded {
			return "", errors.NewLLMTimeoutError(inv.opts.Timeout)
		}
		return "", r.err
	case <-actx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", errors.NewLLMTimeoutError(inv.opts.Timeout)
	}
}
