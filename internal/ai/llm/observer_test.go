package llm

import (
	"context"
	"testing"
	"time"

	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"
)

func TestDefaultObserver_LogsAndSpanEvents(t *testing.T) {
	log, logs := logger.NewObserved("debug")
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	var calls int32
	inv := NewInvoker(testOptions(), InvokerDeps{
		Client: scripted(&calls,
			attemptResult{err: errors.NewLLMGenerationError("upstream returned 502", nil)},
			attemptResult{text: "ok"},
		),
		Observer: NewDefaultObserver(log),
		Sleeper:  (&recordingSleeper{}).Sleep,
		Rand:     func() float64 { return 0 },
		Tracer:   provider.Tracer("test"),
	})

	_, err := inv.Generate(context.Background(), []models.Message{models.TextMessage(models.RoleUser, "x")})
	require.NoError(t, err)

	assert.Equal(t, 2, logs.FilterMessage("Generating with LLM").Len())
	warn := logs.FilterMessage("LLM attempt failed").All()
	require.Len(t, warn, 1)
	assert.Equal(t, zapcore.WarnLevel, warn[0].Level)
	assert.Equal(t, "transient", warn[0].ContextMap()["kind"])

	backoff := logs.FilterMessage("Backing off before retry").All()
	require.Len(t, backoff, 1)
	assert.EqualValues(t, 1000, backoff[0].ContextMap()["delayMs"])
	assert.Equal(t, 1, logs.FilterMessage("LLM generation succeeded").Len())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "llm.generate", spans[0].Name())

	var names []string
	for _, e := range spans[0].Events() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"llm.attempt", "llm.failure", "llm.backoff", "llm.attempt", "llm.success"}, names)
}

func TestDefaultObserver_NonRetryableLogsError(t *testing.T) {
	log, logs := logger.NewObserved("info")
	obs := NewDefaultObserver(log)

	obs.OnFailure(context.Background(), "m", 1, KindAuth, errors.NewLLMAuthError("unauthorized", nil))

	entries := logs.FilterMessage("LLM attempt failed with non-retryable error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestNopObserver(t *testing.T) {
	var o Observer = NopObserver{}
	o.OnAttempt(context.Background(), "m", 1, 3)
	o.OnBackoff(context.Background(), 1, time.Second)
}
