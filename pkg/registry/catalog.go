package registry

import (
	"encoding/json"
	"time"

	"formgen-workers/internal/common/errors"
	chatreply "formgen-workers/internal/workers/form-generation/chat-reply"
	generatecustomcomponent "formgen-workers/internal/workers/form-generation/generate-custom-component"
	generateform "formgen-workers/internal/workers/form-generation/generate-form"
)

const (
	CatalogVersion = "1.0.0"
	category       = "form-generation"
)

// Catalog describes the workers built into this binary.
func Catalog() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     CatalogVersion,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Activities: []Activity{
			{
				ID:                   generateform.WorkerName,
				DisplayName:          "Generate Form Schema",
				Description:          "Generates a Form.io schema and optional CSS from a description or screenshot, falling back to keyword matching.",
				Category:             category,
				Version:              CatalogVersion,
				TaskType:             generateform.TaskType,
				ImplementationStatus: "completed",
				InputSchema:          toMap(generateform.GetInputSchema()),
				OutputSchema: objectSchema(map[string]interface{}{
					"formSchema": map[string]interface{}{"type": "object"},
					"css":        map[string]interface{}{"type": []string{"string", "null"}},
					"success":    map[string]interface{}{"type": "boolean"},
					"message":    map[string]interface{}{"type": "string"},
					"metadata":   map[string]interface{}{"type": "object"},
				}),
				ErrorCodes: codes(errors.ErrCodeInputParsingFailed, errors.ErrCodeValidationFailed, errors.ErrCodeTimeout, errors.ErrCodeInternal),
				Timeout:    generateform.DefaultConfig().Timeout.String(),
				Retries:    errors.GetRetryCount(errors.ErrCodeTimeout),
				Tags:       []string{"ai", "formio", "cache"},
			},
			{
				ID:                   generatecustomcomponent.WorkerName,
				DisplayName:          "Generate Custom Component",
				Description:          "Generates React component code and its template for a custom Form.io field.",
				Category:             category,
				Version:              CatalogVersion,
				TaskType:             generatecustomcomponent.TaskType,
				ImplementationStatus: "completed",
				InputSchema:          toMap(generatecustomcomponent.GetInputSchema()),
				OutputSchema: objectSchema(map[string]interface{}{
					"componentCode": map[string]interface{}{"type": "string"},
					"templateCode":  map[string]interface{}{"type": "string"},
					"success":       map[string]interface{}{"type": "boolean"},
					"message":       map[string]interface{}{"type": "string"},
					"metadata":      map[string]interface{}{"type": "object"},
				}),
				ErrorCodes: codes(
					errors.ErrCodeInputParsingFailed,
					errors.ErrCodeValidationFailed,
					errors.ErrCodeLLMNotConfigured,
					errors.ErrCodeLLMTimeout,
					errors.ErrCodeCustomComponentFailed,
				),
				Timeout: generatecustomcomponent.DefaultConfig().Timeout.String(),
				Retries: errors.GetRetryCount(errors.ErrCodeCustomComponentFailed),
				Tags:    []string{"ai", "formio", "react"},
			},
			{
				ID:                   chatreply.WorkerName,
				DisplayName:          "Chat Reply",
				Description:          "Answers greetings and help requests with usage guidance.",
				Category:             category,
				Version:              CatalogVersion,
				TaskType:             chatreply.TaskType,
				ImplementationStatus: "completed",
				InputSchema:          toMap(chatreply.GetInputSchema()),
				OutputSchema: objectSchema(map[string]interface{}{
					"reply":   map[string]interface{}{"type": "string"},
					"success": map[string]interface{}{"type": "boolean"},
				}),
				ErrorCodes: codes(errors.ErrCodeInputParsingFailed, errors.ErrCodeValidationFailed),
				Timeout:    chatreply.DefaultConfig().Timeout.String(),
				Retries:    0,
				Tags:       []string{"chat"},
			},
		},
	}
}

func objectSchema(props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": props}
}

func codes(cs ...errors.ErrorCode) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func toMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}
