package generateform

import "formgen-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"message"},
		Properties: map[string]validation.Property{
			"message": {
				Type:        "string",
				Description: "Natural-language description of the form",
				MaxLength:   validation.IntPtr(10000),
			},
			"image": {
				Type:        "string",
				Description: "Data URL of a form screenshot",
			},
			"conversationHistory": {
				Type:        "array",
				Description: "Earlier turns of the conversation",
				MaxItems:    validation.IntPtr(50),
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"role", "content"},
					Properties: map[string]validation.Property{
						"role":    {Type: "string", Enum: []string{"user", "assistant", "system"}},
						"content": {Type: "string"},
					},
				},
			},
		},
		AdditionalProperties: true,
	}
}
