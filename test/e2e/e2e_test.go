// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgen-workers/internal/common/camunda"
	"formgen-workers/internal/common/config"
	"formgen-workers/internal/common/database"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/forms/generator"
	"formgen-workers/internal/models"
	"formgen-workers/pkg/registry"

	chatreply "formgen-workers/internal/workers/form-generation/chat-reply"
	generatecustomcomponent "formgen-workers/internal/workers/form-generation/generate-custom-component"
	generateform "formgen-workers/internal/workers/form-generation/generate-form"
)

const formReply = "Here is your form:\n```json\n" + `{
  "schema": {
    "display": "form",
    "title": "Contact Us",
    "components": [
      {"type": "textfield", "key": "fullName", "label": "Full Name", "input": true, "validate": {"required": true}},
      {"type": "email", "key": "email", "label": "Email", "input": true, "customConditional": "alert(1)"},
      {"type": "htmlelement", "key": "intro", "label": "Intro", "content": "<p>Hi</p><script>alert(1)</script>"},
      {"type": "iframe", "key": "bad", "label": "Bad"}
    ]
  },
  "css": ".formio-component-email { border: 1px solid; }"
}` + "\n```"

const componentReply = `{"componentCode":"export default class Rating {}\\n","templateCode":"<div class=\"rating\"></div>"}`

// ==========================
// Fake upstream
// ==========================

type upstream struct {
	server *httptest.Server
	calls  int32
}

func newUpstream(t *testing.T, status int, content string) *upstream {
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "upstream down", "type": "server_error"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) Calls() int {
	return int(atomic.LoadInt32(&u.calls))
}

func llmConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "text-model",
		VisionModel: "vision-model",
		Temperature: 0.3,
		MaxTokens:   4000,
		Timeout:     5000,
		MaxRetries:  2,
		BaseDelay:   10,
	}
}

func appConfig(cacheEnabled bool) *config.Config {
	return &config.Config{
		Workers: map[string]config.WorkerConfig{
			generateform.WorkerName:            {Enabled: true, MaxJobsActive: 1, Timeout: 30000},
			generatecustomcomponent.WorkerName: {Enabled: true, MaxJobsActive: 1, Timeout: 30000},
			chatreply.WorkerName:               {Enabled: true, MaxJobsActive: 1, Timeout: 5000},
		},
		Cache: config.CacheConfig{Enabled: cacheEnabled, TTL: 60000, KeyPrefix: "e2e:"},
	}
}

// ==========================
// In-process pipeline
// ==========================

func TestFormPipeline_AIPathWithCache(t *testing.T) {
	up := newUpstream(t, http.StatusOK, formReply)
	mr := miniredis.RunT(t)
	cache, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer cache.Close()

	log := logger.NewTestLogger(t)
	handler, err := generateform.NewHandler(generateform.HandlerOptions{
		AppConfig: appConfig(true),
		Logger:    log,
		Generator: generator.NewFromConfig(llmConfig(up.server.URL), log, nil),
		Cache:     cache,
	})
	require.NoError(t, err)

	input := &generateform.Input{Message: "contact form with name and email"}
	out, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, models.PathAI, out.Metadata.Path)
	assert.Equal(t, "text-model", out.Metadata.Model)
	assert.Equal(t, "Contact Us", out.FormSchema.Title)
	assert.True(t, out.FormSchema.HasSubmitButton())
	_, hasIframe := out.FormSchema.FindComponent("bad")
	assert.False(t, hasIframe)

	email, ok := out.FormSchema.FindComponent("email")
	require.True(t, ok)
	assert.NotContains(t, email.Attributes, "customConditional")

	intro, ok := out.FormSchema.FindComponent("intro")
	require.True(t, ok)
	assert.NotContains(t, intro.StringAttr("content"), "<script>")

	require.NotNil(t, out.CSS)
	assert.Contains(t, *out.CSS, "formio-component-email")

	again, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, again.Metadata.Cached)
	assert.Equal(t, 1, up.Calls())
}

func TestFormPipeline_UpstreamFailureFallsBack(t *testing.T) {
	up := newUpstream(t, http.StatusServiceUnavailable, "")
	log := logger.NewTestLogger(t)
	handler, err := generateform.NewHandler(generateform.HandlerOptions{
		AppConfig: appConfig(false),
		Logger:    log,
		Generator: generator.NewFromConfig(llmConfig(up.server.URL), log, nil),
	})
	require.NoError(t, err)

	out, err := handler.Execute(context.Background(), &generateform.Input{Message: "Feedback form with email and comment, required"})
	require.NoError(t, err)

	assert.Equal(t, models.PathFallback, out.Metadata.Path)
	assert.Equal(t, "keyword-fallback", out.Metadata.Model)
	assert.Equal(t, "Feedback Form", out.FormSchema.Title)
	assert.Nil(t, out.CSS)
	assert.Equal(t, 2, up.Calls())

	email, ok := out.FormSchema.FindComponent("email")
	require.True(t, ok)
	assert.True(t, email.Required())
}

func TestFormPipeline_NotConfigured(t *testing.T) {
	cfg := llmConfig("http://127.0.0.1:1")
	cfg.APIKey = config.PlaceholderAPIKey
	gen := generator.NewFromConfig(cfg, logger.NewNoOpLogger(), nil)
	require.False(t, gen.IsConfigured())

	formHandler, err := generateform.NewHandler(generateform.HandlerOptions{AppConfig: appConfig(false), Generator: gen, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)
	out, err := formHandler.Execute(context.Background(), &generateform.Input{Message: "survey"})
	require.NoError(t, err)
	assert.Equal(t, models.PathFallback, out.Metadata.Path)

	componentHandler, err := generatecustomcomponent.NewHandler(generatecustomcomponent.HandlerOptions{AppConfig: appConfig(false), Generator: gen, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)
	_, err = componentHandler.Execute(context.Background(), &generatecustomcomponent.Input{Message: "rating"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_NOT_CONFIGURED")
}

func TestComponentPipeline(t *testing.T) {
	up := newUpstream(t, http.StatusOK, componentReply)
	log := logger.NewTestLogger(t)
	handler, err := generatecustomcomponent.NewHandler(generatecustomcomponent.HandlerOptions{
		AppConfig: appConfig(false),
		Logger:    log,
		Generator: generator.NewFromConfig(llmConfig(up.server.URL), log, nil),
	})
	require.NoError(t, err)

	out, err := handler.Execute(context.Background(), &generatecustomcomponent.Input{Message: "a star rating field"})
	require.NoError(t, err)

	assert.Equal(t, "export default class Rating {}\n", out.ComponentCode)
	assert.Equal(t, `<div class="rating"></div>`, out.TemplateCode)
	assert.Equal(t, "Custom component generated successfully", out.Message)
}

func TestRegistryMatchesHandlers(t *testing.T) {
	reg := registry.Catalog()
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{generateform.TaskType, generatecustomcomponent.TaskType, chatreply.TaskType} {
		_, ok := reg.Find(taskType)
		assert.True(t, ok, taskType)
	}
}

// ==========================
// Against a live broker
// ==========================

// TestZeebeRegistration needs a running gateway, e.g. ZEEBE_ADDRESS=localhost:26500.
func TestZeebeRegistration(t *testing.T) {
	address := os.Getenv("ZEEBE_ADDRESS")
	if address == "" {
		t.Skip("ZEEBE_ADDRESS not set")
	}

	client, err := camunda.NewClient(address)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.HealthCheck(ctx))

	handler, err := chatreply.NewHandler(chatreply.HandlerOptions{
		AppConfig: appConfig(false),
		Camunda:   client,
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.NoError(t, handler.Register())
	assert.NoError(t, handler.HealthCheck(ctx))
	handler.Close()
}
