package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test doubles
// ==========================

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) add(e string) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

func (o *recordingObserver) OnAttempt(_ context.Context, _ string, attempt, _ int) {
	o.add(fmt.Sprintf("attempt:%d", attempt))
}

func (o *recordingObserver) OnFailure(_ context.Context, _ string, attempt int, kind ErrorKind, _ error) {
	o.add(fmt.Sprintf("failure:%d:%s", attempt, kind))
}

func (o *recordingObserver) OnBackoff(_ context.Context, attempt int, _ time.Duration) {
	o.add(fmt.Sprintf("backoff:%d", attempt))
}

func (o *recordingObserver) OnSuccess(_ context.Context, _ string, attempt int, _ time.Duration) {
	o.add(fmt.Sprintf("success:%d", attempt))
}

// scripted returns the given results in order, repeating the last one.
func scripted(calls *int32, results ...attemptResult) CompleterFunc {
	return func(ctx context.Context, req CompletionRequest) (string, error) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		if n >= len(results) {
			n = len(results) - 1
		}
		return results[n].text, results[n].err
	}
}

func testOptions() Options {
	return Options{
		APIKey:     "gsk_test",
		Timeout:    time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

func newTestInvoker(opts Options, client Completer, sleeper *recordingSleeper, obs Observer) *Invoker {
	return NewInvoker(opts, InvokerDeps{
		Client:   client,
		Sleeper:  sleeper.Sleep,
		Rand:     func() float64 { return 0.5 },
		Observer: obs,
	})
}

var transient = errors.NewLLMGenerationError("upstream returned 503", nil)

// ==========================
// Retry state machine
// ==========================

func TestGenerate_FirstAttemptSucceeds(t *testing.T) {
	var calls int32
	sleeper := &recordingSleeper{}
	inv := newTestInvoker(testOptions(), scripted(&calls, attemptResult{text: `{"schema":{}}`}), sleeper, nil)

	out, err := inv.Generate(context.Background(), []models.Message{models.TextMessage(models.RoleUser, "x")})

	require.NoError(t, err)
	assert.Equal(t, `{"schema":{}}`, out)
	assert.EqualValues(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestGenerate_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	sleeper := &recordingSleeper{}
	obs := &recordingObserver{}
	inv := newTestInvoker(testOptions(), scripted(&calls,
		attemptResult{err: transient},
		attemptResult{err: transient},
		attemptResult{text: "ok"},
	), sleeper, obs)

	out, err := inv.Generate(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 3, calls)
	assert.Equal(t, []time.Duration{1125 * time.Millisecond, 2250 * time.Millisecond}, sleeper.delays)
	assert.Equal(t, []string{
		"attempt:1", "failure:1:transient", "backoff:1",
		"attempt:2", "failure:2:transient", "backoff:2",
		"attempt:3", "success:3",
	}, obs.events)
}

func TestGenerate_ExhaustsRetries(t *testing.T) {
	var calls int32
	sleeper := &recordingSleeper{}
	inv := newTestInvoker(testOptions(), scripted(&calls, attemptResult{err: transient}), sleeper, nil)

	_, err := inv.Generate(context.Background(), nil)

	require.Error(t, err)
	assert.EqualValues(t, 3, calls)
	assert.Len(t, sleeper.delays, 2)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLLMRetriesExhausted))
	assert.Equal(t, "Failed to generate schema after 3 attempts: upstream returned 503", errors.MessageOf(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeLLMGenerationFailed))
}

func TestGenerate_NonRetryableStopsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"auth code", errors.NewLLMAuthError("unauthorized", nil)},
		{"invalid api key message", stderrors.New("401: Invalid API Key provided")},
		{"forbidden message", stderrors.New("Forbidden")},
		{"bad request message", stderrors.New("Bad Request: messages must not be empty")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			sleeper := &recordingSleeper{}
			inv := newTestInvoker(testOptions(), scripted(&calls, attemptResult{err: tt.err}), sleeper, nil)

			_, err := inv.Generate(context.Background(), nil)

			assert.Equal(t, tt.err, err)
			assert.EqualValues(t, 1, calls)
			assert.Empty(t, sleeper.delays)
		})
	}
}

func TestGenerate_SingleAttemptBudget(t *testing.T) {
	var calls int32
	opts := testOptions()
	opts.MaxRetries = 1
	sleeper := &recordingSleeper{}
	inv := newTestInvoker(opts, scripted(&calls, attemptResult{err: transient}), sleeper, nil)

	_, err := inv.Generate(context.Background(), nil)

	assert.True(t, errors.HasCode(err, errors.ErrCodeLLMRetriesExhausted))
	assert.EqualValues(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

// ==========================
// Timeout and cancellation
// ==========================

func TestGenerate_TimeoutAbandonsClientIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	var calls int32
	blocking := CompleterFunc(func(ctx context.Context, req CompletionRequest) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "too late", nil
	})

	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond
	opts.MaxRetries = 2
	sleeper := &recordingSleeper{}
	obs := &recordingObserver{}
	inv := newTestInvoker(opts, blocking, sleeper, obs)

	start := time.Now()
	_, err := inv.Generate(context.Background(), nil)

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Equal(t, "Failed to generate schema after 2 attempts: Request timed out", errors.MessageOf(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeLLMTimeout))
	assert.Contains(t, obs.events, "failure:1:timeout")
}

func TestGenerate_TimeoutWhenClientHonoursContext(t *testing.T) {
	var calls int32
	client := CompleterFunc(func(ctx context.Context, req CompletionRequest) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return "", errors.NewLLMGenerationError("chat completion request failed", ctx.Err())
	})

	opts := testOptions()
	opts.Timeout = 10 * time.Millisecond
	opts.MaxRetries = 1
	inv := newTestInvoker(opts, client, &recordingSleeper{}, nil)

	_, err := inv.Generate(context.Background(), nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLLMTimeout))
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerate_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	sleeper := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	inv := NewInvoker(testOptions(), InvokerDeps{
		Client:  scripted(&calls, attemptResult{err: transient}),
		Sleeper: sleeper,
	})

	_, err := inv.Generate(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, calls)
}

func TestGenerate_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	inv := newTestInvoker(testOptions(), scripted(&calls, attemptResult{text: "ok"}), &recordingSleeper{}, nil)

	_, err := inv.Generate(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, calls)
}

// ==========================
// Model selection and configuration
// ==========================

func TestGenerate_SelectsVisionModelForImages(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	client := CompleterFunc(func(ctx context.Context, req CompletionRequest) (string, error) {
		mu.Lock()
		seen = append(seen, req.Model)
		mu.Unlock()
		assert.Equal(t, 0.3, req.Temperature)
		assert.Equal(t, 4000, req.MaxTokens)
		return "ok", nil
	})
	inv := NewInvoker(Options{APIKey: "k"}, InvokerDeps{Client: client})

	text := []models.Message{models.TextMessage(models.RoleUser, "contact form")}
	image := []models.Message{{Role: models.RoleUser, Content: models.PartsContent(
		models.ContentPart{Type: models.PartText, Text: "x"},
		models.ContentPart{Type: models.PartImageURL, ImageURL: &models.ImageURL{URL: "data:image/png;base64,AA"}},
	)}}

	_, err := inv.Generate(context.Background(), text)
	require.NoError(t, err)
	_, err = inv.Generate(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"meta-llama/llama-4-maverick-17b-128e-instruct",
		"meta-llama/llama-4-scout-17b-16e-instruct",
	}, seen)
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewInvoker(Options{APIKey: "gsk_x"}, InvokerDeps{}).IsConfigured())
	assert.False(t, NewInvoker(Options{}, InvokerDeps{}).IsConfigured())
	assert.False(t, NewInvoker(Options{APIKey: "your_groq_api_key_here"}, InvokerDeps{}).IsConfigured())
}
