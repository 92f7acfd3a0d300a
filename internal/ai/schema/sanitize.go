package schema

import (
	"formgen-workers/internal/common/metrics"
	"formgen-workers/internal/models"
)

// DangerousFields carry expressions the renderer would evaluate.
var DangerousFields = []string{
	"customClass",
	"customConditional",
	"calculateValue",
	"customDefaultValue",
	"customValidation",
}

// sanitize strips executable fields in place. Every other attribute is left as is,
// except htmlelement content which is run through the HTML policy.
func (v *Validator) sanitize(c *models.Component) {
	for _, field := range DangerousFields {
		if _, ok := c.Attributes[field]; !ok {
			continue
		}
		delete(c.Attributes, field)
		metrics.FieldsStripped.WithLabelValues(field).Inc()
		v.log.Warn("Removing dangerous field from component", map[string]interface{}{
			"field": field,
			"key":   c.Key,
		})
	}

	if cond, ok := c.Attributes["conditional"].(map[string]interface{}); ok {
		if _, ok := cond["json"]; ok {
			delete(cond, "json")
			metrics.FieldsStripped.WithLabelValues("conditional.json").Inc()
		}
	}

	for _, field := range []string{"custom", "customPrivate"} {
		if _, ok := c.Validate[field]; ok {
			delete(c.Validate, field)
			metrics.FieldsStripped.WithLabelValues("validate." + field).Inc()
		}
	}

	if c.Type == "htmlelement" {
		if content, ok := c.Attributes["content"].(string); ok {
			c.Attributes["content"] = v.html.Sanitize(content)
		}
	}
}
