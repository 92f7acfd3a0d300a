package generatecustomcomponent

import (
	"context"

	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/forms/generator"
	"formgen-workers/internal/models"
)

type Input struct {
	Message             string                    `json:"message"`
	ConversationHistory []models.ConversationTurn `json:"conversationHistory,omitempty"`
}

type Output struct {
	ComponentCode string   `json:"componentCode"`
	TemplateCode  string   `json:"templateCode"`
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Metadata      Metadata `json:"metadata"`
}

type Metadata struct {
	GenerationTime int64  `json:"generationTime"`
	RequestID      string `json:"requestId"`
}

// ComponentGenerator is the orchestrator surface this worker needs.
type ComponentGenerator interface {
	GenerateCustomComponent(ctx context.Context, req generator.Request) (*models.CustomComponentResult, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Generator ComponentGenerator
}
