package llm

import (
	"context"
	"time"

	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/common/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observer receives invoker lifecycle events. Implementations must not block.
type Observer interface {
	OnAttempt(ctx context.Context, model string, attempt, maxAttempts int)
	OnFailure(ctx context.Context, model string, attempt int, kind ErrorKind, err error)
	OnBackoff(ctx context.Context, attempt int, delay time.Duration)
	OnSuccess(ctx context.Context, model string, attempt int, latency time.Duration)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnAttempt(context.Context, string, int, int) {}
func (NopObserver) OnFailure(context.Context, string, int, ErrorKind, error) {}
func (NopObserver) OnBackoff(context.Context, int, time.Duration) {}
func (NopObserver) OnSuccess(context.Context, string, int, time.Duration) {}

// DefaultObserver logs, records Prometheus metrics and adds span events.
type DefaultObserver struct {
	log logger.Logger
}

func NewDefaultObserver(log logger.Logger) *DefaultObserver {
	return &DefaultObserver{log: logger.OrNop(log)}
}

func (o *DefaultObserver) OnAttempt(ctx context.Context, model string, attempt, maxAttempts int) {
	metrics.LLMAttempts.WithLabelValues(model).Inc()
	o.log.Info("Generating with LLM", map[string]interface{}{
		"attempt":     attempt,
		"maxAttempts": maxAttempts,
		"model":       model,
	})
	trace.SpanFromContext(ctx).AddEvent("llm.attempt", trace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.String("model", model),
	))
}

func (o *DefaultObserver) OnFailure(ctx context.Context, model string, attempt int, kind ErrorKind, err error) {
	metrics.LLMFailures.WithLabelValues(model, kind.String()).Inc()
	fields := map[string]interface{}{
		"attempt": attempt,
		"kind":    kind.String(),
		"error":   err,
	}
	if kind.Retryable() {
		o.log.Warn("LLM attempt failed", fields)
	} else {
		o.log.Error("LLM attempt failed with non-retryable error", fields)
	}
	trace.SpanFromContext(ctx).AddEvent("llm.failure", trace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.String("kind", kind.String()),
		attribute.String("error", err.Error()),
	))
}

func (o *DefaultObserver) OnBackoff(ctx context.Context, attempt int, delay time.Duration) {
	metrics.LLMBackoffSeconds.Observe(delay.Seconds())
	o.log.Info("Backing off before retry", map[string]interface{}{
		"attempt": attempt,
		"delayMs": delay.Milliseconds(),
	})
	trace.SpanFromContext(ctx).AddEvent("llm.backoff", trace.WithAttributes(
		attribute.Int64("delay_ms", delay.Milliseconds()),
	))
}

func (o *DefaultObserver) OnSuccess(ctx context.Context, model string, attempt int, latency time.Duration) {
	metrics.LLMLatency.WithLabelValues(model).Observe(latency.Seconds())
	o.log.Info("LLM generation succeeded", map[string]interface{}{
		"attempt":   attempt,
		"model":     model,
		"latencyMs": latency.Milliseconds(),
	})
	trace.SpanFromContext(ctx).AddEvent("llm.success", trace.WithAttributes(
		attribute.Int("attempt", attempt),
	))
}
