package chatreply

import "formgen-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"message"},
		Properties: map[string]validation.Property{
			"message": {
				Type:      "string",
				MaxLength: validation.IntPtr(10000),
			},
		},
		AdditionalProperties: true,
	}
}
