// Package prompt assembles the chat-completion message sequences for form
// generation and for custom component generation.
package prompt

import (
	"formgen-workers/internal/models"
)

// Builder is stateless; the zero value is ready to use.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the message sequence for a form request:
// system contract, few-shot pairs (text-only requests), history, then the user turn.
// With an image, the final user turn carries a text part and an image part.
func (b *Builder) Build(userText string, history []models.Message, image string) []models.Message {
	system := formSystemPrompt
	if image != "" {
		system += imageClause
	}

	msgs := make([]models.Message, 0, 2+2*len(fewShotExamples)+len(history))
	msgs = append(msgs, models.TextMessage(models.RoleSystem, system))

	if image == "" {
		for _, ex := range fewShotExamples {
			msgs = append(msgs,
				models.TextMessage(models.RoleUser, ex.user),
				models.TextMessage(models.RoleAssistant, ex.assistant),
			)
		}
	}

	msgs = append(msgs, history...)

	if image == "" {
		msgs = append(msgs, models.TextMessage(models.RoleUser, userText))
		return msgs
	}

	text := userText
	if text == "" {
		text = DefaultImagePrompt
	}
	msgs = append(msgs, models.Message{
		Role: models.RoleUser,
		Content: models.PartsContent(
			models.ContentPart{Type: models.PartText, Text: text},
			models.ContentPart{Type: models.PartImageURL, ImageURL: &models.ImageURL{URL: image}},
		),
	})
	return msgs
}

// BuildCustomComponent returns the code-artifact contract, history, then the user turn.
func (b *Builder) BuildCustomComponent(userText string, history []models.Message) []models.Message {
	msgs := make([]models.Message, 0, 2+len(history))
	msgs = append(msgs, models.TextMessage(models.RoleSystem, customComponentSystemPrompt))
	msgs = append(msgs, history...)
	msgs = append(msgs, models.TextMessage(models.RoleUser, userText))
	return msgs
}

// ExampleCount is the number of few-shot pairs included for text-only requests.
func ExampleCount() int {
	return len(fewShotExamples)
}
