// Package generator orchestrates form and custom component generation:
// prompt, model call, extraction and validation, with the keyword fallback
// for forms.
package generator

import (
	"context"
	"encoding/json"
	"time"

	"formgen-workers/internal/ai/extract"
	"formgen-workers/internal/ai/llm"
	"formgen-workers/internal/ai/prompt"
	"formgen-workers/internal/ai/schema"
	"formgen-workers/internal/common/config"
	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/common/metrics"
	"formgen-workers/internal/common/observability"
	"formgen-workers/internal/forms/fallback"
	"formgen-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const notConfiguredMessage = "AI not configured. Set GROQ_API_KEY in .env to enable custom component generation."

// Request is one generation request.
type Request struct {
	Message string
	Image   string
	History []models.ConversationTurn
}

// Invoker is the model-calling side of the pipeline.
type Invoker interface {
	IsConfigured() bool
	SelectModel(msgs []models.Message) string
	Generate(ctx context.Context, msgs []models.Message) (string, error)
}

type Deps struct {
	Invoker       Invoker
	Builder       *prompt.Builder
	Validator     *schema.Validator
	Logger        logger.Logger
	Observability *observability.Observability
	Tracer        trace.Tracer
}

// Generator holds no per-request state and is safe for concurrent use.
type Generator struct {
	invoker   Invoker
	builder   *prompt.Builder
	validator *schema.Validator
	log       logger.Logger
	obs       *observability.Observability
	tracer    trace.Tracer
}

func New(deps Deps) *Generator {
	g := &Generator{
		invoker:   deps.Invoker,
		builder:   deps.Builder,
		validator: deps.Validator,
		log:       logger.OrNop(deps.Logger),
		obs:       deps.Observability,
		tracer:    deps.Tracer,
	}
	if g.builder == nil {
		g.builder = prompt.NewBuilder()
	}
	if g.validator == nil {
		g.validator = schema.NewValidator(g.log)
	}
	if g.tracer == nil {
		g.tracer = observability.Tracer("formgen-workers/generator")
	}
	return g
}

// NewFromConfig wires the HTTP chat client and the invoker from cfg.
func NewFromConfig(cfg config.LLMConfig, log logger.Logger, obs *observability.Observability) *Generator {
	invoker := llm.NewInvoker(llm.OptionsFromConfig(cfg), llm.InvokerDeps{
		Client:   llm.NewChatClient(cfg),
		Observer: llm.NewDefaultObserver(log),
	})
	return New(Deps{
		Invoker:       invoker,
		Logger:        log,
		Observability: obs,
	})
}

// IsConfigured reports whether the AI path is available.
func (g *Generator) IsConfigured() bool {
	return g.invoker != nil && g.invoker.IsConfigured()
}

// GenerateForm tries the AI path and falls back to keyword matching on any
// failure. It only returns an error when ctx is done before the fallback runs.
func (g *Generator) GenerateForm(ctx context.Context, req Request) (*models.GenerationResult, error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "form.generate", trace.WithAttributes(
		attribute.Bool("form.has_image", req.Image != ""),
		attribute.Int("form.history_length", len(req.History)),
	))
	defer span.End()

	if g.IsConfigured() {
		g.log.Info("Attempting AI-powered form generation", map[string]interface{}{
			"withImage": req.Image != "",
		})
		result, err := g.generateWithAI(ctx, req)
		if err == nil {
			g.record(ctx, span, result, start)
			return result, nil
		}
		g.log.Error("AI generation failed", map[string]interface{}{"error": err})
		g.log.Warn("Falling back to keyword matching", nil)
		span.RecordError(err)
	} else {
		g.log.Warn("AI not configured, using keyword matching. Set GROQ_API_KEY in .env to enable AI generation.", nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.log.Info("Generating form with keyword matching", nil)
	result := &models.GenerationResult{
		Schema: fallback.Generate(req.Message),
		Path:   models.PathFallback,
		Model:  fallback.Model,
	}
	g.record(ctx, span, result, start)
	return result, nil
}

func (g *Generator) generateWithAI(ctx context.Context, req Request) (*models.GenerationResult, error) {
	msgs := g.builder.Build(req.Message, models.ToMessages(req.History), req.Image)

	raw, err := g.invoker.Generate(ctx, msgs)
	if err != nil {
		return nil, err
	}
	g.warnIfNotJSON(raw)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(extract.ExtractPayload(raw)), &parsed); err != nil {
		return nil, errors.NewExtractionError("Response is not a JSON object", err)
	}

	var target interface{} = parsed
	if s, ok := parsed["schema"]; ok && s != nil {
		target = s
	}
	validated, err := g.validator.ValidateValue(target)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{
		Schema: validated,
		Path:   models.PathAI,
		Model:  g.invoker.SelectModel(msgs),
	}
	if css, ok := parsed["css"].(string); ok && css != "" {
		result.CSS = &css
	}
	return result, nil
}

func (g *Generator) record(ctx context.Context, span trace.Span, result *models.GenerationResult, start time.Time) {
	components := len(result.Schema.Components)
	metrics.FormsGenerated.WithLabelValues(result.Path).Inc()
	g.obs.RecordGeneration(ctx, result.Path, time.Since(start), components)
	span.SetAttributes(
		attribute.String("form.path", result.Path),
		attribute.Int("form.components", components),
	)
}

// GenerateCustomComponent produces React component and template code. It has
// no fallback; every failure is returned wrapped.
func (g *Generator) GenerateCustomComponent(ctx context.Context, req Request) (*models.CustomComponentResult, error) {
	if !g.IsConfigured() {
		return nil, errors.NewNotConfiguredError(notConfiguredMessage)
	}

	ctx, span := g.tracer.Start(ctx, "form.custom_component")
	defer span.End()

	g.log.Info("Generating custom Form.io component", nil)
	result, err := g.generateCustomComponent(ctx, req)
	if err != nil {
		g.log.Error("Custom component generation failed", map[string]interface{}{"error": err})
		span.RecordError(err)
		return nil, errors.NewCustomComponentError(err)
	}

	g.log.Info("Successfully generated custom component", nil)
	return result, nil
}

func (g *Generator) generateCustomComponent(ctx context.Context, req Request) (*models.CustomComponentResult, error) {
	msgs := g.builder.BuildCustomComponent(req.Message, models.ToMessages(req.History))
	raw, err := g.invoker.Generate(ctx, msgs)
	if err != nil {
		return nil, err
	}
	g.warnIfNotJSON(raw)
	return extract.ExtractCustomComponent(raw)
}

func (g *Generator) warnIfNotJSON(raw string) {
	if extract.LooksLikeJSON(raw) {
		return
	}
	preview := []rune(raw)
	if len(preview) > 200 {
		preview = preview[:200]
	}
	g.log.Warn("Response doesn't start with JSON", map[string]interface{}{
		"preview": string(preview),
	})
}
