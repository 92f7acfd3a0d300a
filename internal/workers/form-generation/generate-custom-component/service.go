package generatecustomcomponent

import (
	"context"
	"time"

	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/forms/generator"

	"github.com/google/uuid"
)

const successMessage = "Custom component generated successfully"

type Service struct {
	config    *Config
	logger    logger.Logger
	generator ComponentGenerator
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		logger:    logger.OrNop(deps.Logger),
		generator: deps.Generator,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	requestID := uuid.NewString()

	s.logger.Info("Generating custom component", map[string]interface{}{
		"requestId": requestID,
		"message":   preview(input.Message, 50),
		"history":   len(input.ConversationHistory),
	})

	result, err := s.generator.GenerateCustomComponent(ctx, generator.Request{
		Message: input.Message,
		History: input.ConversationHistory,
	})
	if err != nil {
		reported := reportedError(err)
		s.logger.Error("Custom component generation failed", map[string]interface{}{
			"requestId":      requestID,
			"generationTime": time.Since(start).Milliseconds(),
			"errorCode":      string(reported.Code),
			"error":          reported.Message,
		})
		return nil, reported
	}

	out := &Output{
		ComponentCode: result.ComponentCode,
		TemplateCode:  result.TemplateCode,
		Success:       true,
		Message:       successMessage,
		Metadata: Metadata{
			GenerationTime: time.Since(start).Milliseconds(),
			RequestID:      requestID,
		},
	}
	s.logger.Info(successMessage, map[string]interface{}{
		"requestId":      requestID,
		"generationTime": out.Metadata.GenerationTime,
	})
	return out, nil
}

// reportedError keeps the user-facing message but surfaces an upstream
// timeout under its own code so the process can route on it.
func reportedError(err error) *errors.StandardError {
	stdErr, ok := errors.AsStandardError(err)
	if !ok {
		return errors.NewCustomComponentError(err)
	}
	if stdErr.Code != errors.ErrCodeLLMTimeout && errors.HasCode(err, errors.ErrCodeLLMTimeout) {
		timeoutErr := *stdErr
		timeoutErr.Code = errors.ErrCodeLLMTimeout
		timeoutErr.Retryable = true
		return &timeoutErr
	}
	return stdErr
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
