package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func messageSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"message": {
				Type:      "string",
				MaxLength: IntPtr(10),
			},
			"mode": {
				Type: "string",
				Enum: []string{"form", "component"},
			},
			"history": {
				Type: "array",
				Items: &Property{
					Type:     "object",
					Required: []string{"role"},
					Properties: map[string]Property{
						"role": {Type: "string"},
					},
				},
			},
		},
		Required:             []string{"message"},
		AdditionalProperties: false,
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
		wantCode  string
	}{
		{
			name:      "valid minimal input",
			input:     map[string]interface{}{"message": "contact"},
			wantValid: true,
		},
		{
			name:      "missing required field",
			input:     map[string]interface{}{},
			wantField: "message",
			wantCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"message": 42.0},
			wantField: "message",
			wantCode:  "INVALID_TYPE",
		},
		{
			name:      "too long",
			input:     map[string]interface{}{"message": "this is far too long"},
			wantField: "message",
			wantCode:  "MAX_LENGTH_VIOLATION",
		},
		{
			name:      "enum violation",
			input:     map[string]interface{}{"message": "x", "mode": "wizard"},
			wantField: "mode",
			wantCode:  "INVALID_ENUM_VALUE",
		},
		{
			name:      "extra field rejected",
			input:     map[string]interface{}{"message": "x", "extra": true},
			wantCode:  "EXTRA_FIELD",
		},
		{
			name: "nested array item missing role",
			input: map[string]interface{}{
				"message": "x",
				"history": []interface{}{map[string]interface{}{"content": "hi"}},
			},
			wantCode: "REQUIRED_FIELD_MISSING",
		},
		{
			name:     "nil input treated as empty object",
			input:    nil,
			wantCode: "REQUIRED_FIELD_MISSING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, messageSchema())
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			if tt.wantValid {
				assert.Empty(t, result.Errors)
				return
			}
			require.NotEmpty(t, result.Errors)
			codes := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				codes = append(codes, e.Code)
			}
			assert.Contains(t, codes, tt.wantCode)
			if tt.wantField != "" {
				assert.True(t, result.HasErrors(tt.wantField), result.GetErrorMessages())
			}
		})
	}
}

func TestValidateDocument_BadSchema(t *testing.T) {
	result := ValidateDocument(
		gojsonschema.NewStringLoader(`{"type": 12}`),
		gojsonschema.NewStringLoader(`{}`),
	)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "SCHEMA_ERROR", result.Errors[0].Code)
}

func TestGetErrorsForField(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "history.0.role", Message: "required"},
		{Field: "history", Message: "bad"},
		{Field: "historyX", Message: "other"},
	}}

	assert.Len(t, vr.GetErrorsForField("history"), 2)
	assert.Equal(t, []string{"history.0.role: required", "history: bad", "historyX: other"}, vr.GetErrorMessages())
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("form.schema.generate"))
	assert.Error(t, ValidateActivityNaming("form.generate"))
	assert.Error(t, ValidateActivityNaming("Form.Schema.Generate"))
}
