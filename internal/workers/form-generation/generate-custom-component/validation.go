package generatecustomcomponent

import "formgen-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"message"},
		Properties: map[string]validation.Property{
			"message": {
				Type:        "string",
				Description: "Description of the custom component",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(10000),
			},
			"conversationHistory": {
				Type:     "array",
				MaxItems: validation.IntPtr(50),
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
