package generateform

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"formgen-workers/internal/common/database"
	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/common/metrics"
	"formgen-workers/internal/forms/generator"
	"formgen-workers/internal/models"

	"github.com/google/uuid"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	generator FormGenerator
	cache     *database.RedisClient
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		logger:    logger.OrNop(deps.Logger),
		generator: deps.Generator,
		cache:     deps.Cache,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	requestID := uuid.NewString()

	s.logger.Info("Generating form", map[string]interface{}{
		"requestId": requestID,
		"message":   preview(input.Message, 50),
		"withImage": input.Image != "",
		"history":   len(input.ConversationHistory),
	})

	key := s.cacheKey(input)
	if cached, ok := s.lookup(ctx, key); ok {
		return s.output(cached, requestID, start, true), nil
	}

	result, err := s.generator.GenerateForm(ctx, generator.Request{
		Message: input.Message,
		Image:   input.Image,
		History: input.ConversationHistory,
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewTimeoutError("form generation", err)
		}
		return nil, errors.NewInternalError(err)
	}

	if result.Path == models.PathAI {
		s.store(ctx, key, result)
	}

	out := s.output(result, requestID, start, false)
	s.logger.Info("Form generated successfully", map[string]interface{}{
		"requestId":      requestID,
		"generationTime": out.Metadata.GenerationTime,
		"path":           result.Path,
	})
	return out, nil
}

func (s *Service) output(result *models.GenerationResult, requestID string, start time.Time, cached bool) *Output {
	return &Output{
		FormSchema: result.Schema,
		CSS:        result.CSS,
		Success:    true,
		Message:    "Form generated successfully",
		Metadata: Metadata{
			GenerationTime: time.Since(start).Milliseconds(),
			ComponentCount: len(result.Schema.Components),
			Model:          result.Model,
			Path:           result.Path,
			RequestID:      requestID,
			Cached:         cached,
		},
	}
}

func (s *Service) cachingEnabled() bool {
	return s.config.CacheEnabled && s.cache != nil
}

// cacheKey hashes everything that influences the generated schema.
func (s *Service) cacheKey(input *Input) string {
	payload, _ := json.Marshal(struct {
		Message string                    `json:"m"`
		Image   string                    `json:"i"`
		History []models.ConversationTurn `json:"h"`
	}{input.Message, input.Image, input.ConversationHistory})
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%sform:%s", s.config.CacheKeyPrefix, hex.EncodeToString(sum[:]))
}

func (s *Service) lookup(ctx context.Context, key string) (*models.GenerationResult, bool) {
	if !s.cachingEnabled() {
		return nil, false
	}

	var cached models.GenerationResult
	err := s.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil && cached.Schema != nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.logger.Debug("Serving form from cache", map[string]interface{}{"key": key})
		return &cached, true
	case err == nil || stderrors.Is(err, database.ErrCacheMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logCacheError("Cache lookup failed", err)
	}
	return nil, false
}

func (s *Service) store(ctx context.Context, key string, result *models.GenerationResult) {
	if !s.cachingEnabled() {
		return
	}
	if err := s.cache.SetJSON(ctx, key, result, s.config.CacheTTL); err != nil {
		s.logCacheError("Failed to cache generated form", err)
	}
}

// cache failures never fail the job
func (s *Service) logCacheError(msg string, err error) {
	cacheErr := errors.NewCacheError(err)
	s.logger.Warn(msg, map[string]interface{}{
		"errorCode": string(cacheErr.Code),
		"error":     cacheErr.Details,
	})
}

// TestConnection checks the cache when one is configured.
func (s *Service) TestConnection(ctx context.Context) error {
	if !s.cachingEnabled() {
		return nil
	}
	return s.cache.Ping(ctx)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
