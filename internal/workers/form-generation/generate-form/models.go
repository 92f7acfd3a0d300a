package generateform

import (
	"context"

	"formgen-workers/internal/common/database"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/forms/generator"
	"formgen-workers/internal/models"
)

type Input struct {
	Message             string                    `json:"message"`
	Image               string                    `json:"image,omitempty"`
	ConversationHistory []models.ConversationTurn `json:"conversationHistory,omitempty"`
}

type Output struct {
	FormSchema *models.Schema `json:"formSchema"`
	CSS        *string        `json:"css"`
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Metadata   Metadata       `json:"metadata"`
}

type Metadata struct {
	GenerationTime int64  `json:"generationTime"`
	ComponentCount int    `json:"componentCount"`
	Model          string `json:"model"`
	Path           string `json:"path"`
	RequestID      string `json:"requestId"`
	Cached         bool   `json:"cached"`
}

// FormGenerator is the orchestrator surface this worker needs.
type FormGenerator interface {
	GenerateForm(ctx context.Context, req generator.Request) (*models.GenerationResult, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Generator FormGenerator
	Cache     *database.RedisClient
}
