// Package schema turns untrusted model output into a Form.io schema that is
// structurally sound, whitelisted and free of executable expressions.
package schema

import (
	"encoding/json"
	"fmt"

	"formgen-workers/internal/ai/extract"
	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/common/metrics"
	"formgen-workers/internal/common/validation"
	"formgen-workers/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xeipuuv/gojsonschema"
)

// AllowedTypes is the component type whitelist.
var AllowedTypes = map[string]bool{
	"textfield":   true,
	"email":       true,
	"phoneNumber": true,
	"textarea":    true,
	"number":      true,
	"checkbox":    true,
	"radio":       true,
	"select":      true,
	"selectboxes": true,
	"datetime":    true,
	"button":      true,
	"password":    true,
	"url":         true,
	"day":         true,
	"time":        true,
	"currency":    true,
	"address":     true,
	"file":        true,
	"hidden":      true,
	"htmlelement": true,
	"panel":       true,
	"columns":     true,
	"fieldset":    true,
	"table":       true,
	"well":        true,
	"container":   true,
}

var validDisplays = map[string]bool{
	models.DisplayForm:   true,
	models.DisplayWizard: true,
	models.DisplayPDF:    true,
}

// documentSchema is the structural contract for the top-level object.
const documentSchema = `{
  "type": "object",
  "required": ["components"],
  "properties": {
    "components": {"type": "array", "minItems": 1}
  }
}`

var documentLoader = gojsonschema.NewStringLoader(documentSchema)

// Validator is stateless after construction and safe for concurrent use.
type Validator struct {
	log  logger.Logger
	html *bluemonday.Policy
}

func NewValidator(log logger.Logger) *Validator {
	return &Validator{
		log:  logger.OrNop(log),
		html: bluemonday.UGCPolicy(),
	}
}

// Validate parses jsonText and validates the result.
func (v *Validator) Validate(jsonText string) (*models.Schema, error) {
	parsed, err := parse(jsonText)
	if err != nil {
		return nil, v.fail(err.Error(), err)
	}
	return v.ValidateValue(parsed)
}

// ValidateValue validates an already decoded JSON value.
func (v *Validator) ValidateValue(raw interface{}) (*models.Schema, error) {
	obj, err := v.checkStructure(raw)
	if err != nil {
		return nil, v.fail(err.Error(), nil)
	}

	components := v.validateComponents(obj["components"].([]interface{}))
	if len(components) == 0 {
		return nil, v.fail("No valid components found in schema", nil)
	}

	s := &models.Schema{
		Display:    v.display(obj["display"]),
		Title:      title(obj["title"]),
		Components: components,
	}
	v.ensureSubmitButton(s)

	v.log.Info("Schema validated successfully", map[string]interface{}{
		"components": len(s.Components),
	})
	return s, nil
}

func (v *Validator) fail(reason string, cause error) error {
	v.log.Error("Schema validation failed", map[string]interface{}{"reason": reason})
	return errors.NewSchemaValidationError(reason, cause)
}

// parse decodes text, retrying on the first fenced block.
func parse(text string) (interface{}, error) {
	var out interface{}
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}
	if inner, ok := extract.FencedBlock(text); ok {
		if err := json.Unmarshal([]byte(inner), &out); err != nil {
			return nil, fmt.Errorf("Invalid JSON in code block")
		}
		return out, nil
	}
	return nil, fmt.Errorf("Response is not valid JSON")
}

func (v *Validator) checkStructure(raw interface{}) (map[string]interface{}, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("Schema must be an object")
	}

	result := validation.ValidateDocument(documentLoader, gojsonschema.NewGoLoader(obj))
	for _, e := range result.Errors {
		if e.Code == "MIN_ITEMS_VIOLATION" {
			return nil, fmt.Errorf("Schema must have at least one component")
		}
	}
	if !result.Valid {
		return nil, fmt.Errorf("Schema must have a components array")
	}
	return obj, nil
}

func (v *Validator) display(raw interface{}) string {
	if raw == nil || raw == "" {
		return models.DisplayForm
	}
	if s, ok := raw.(string); ok && validDisplays[s] {
		return s
	}
	v.log.Warn("Invalid display type, defaulting to form", map[string]interface{}{"display": raw})
	return models.DisplayForm
}

func title(raw interface{}) string {
	if s, ok := raw.(string); ok && s != "" {
		return s
	}
	return "Form"
}

func (v *Validator) validateComponents(raw []interface{}) []models.Component {
	out := make([]models.Component, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, item := range raw {
		c, err := v.validateComponent(item, seen)
		if err != nil {
			metrics.ComponentsSkipped.Inc()
			v.log.Warn(fmt.Sprintf("Skipping invalid component at index %d", i), map[string]interface{}{
				"index":  i,
				"reason": err.Error(),
			})
			continue
		}
		out = append(out, c)
	}
	return out
}

func (v *Validator) validateComponent(item interface{}, seen map[string]bool) (models.Component, error) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return models.Component{}, fmt.Errorf("Component must be an object")
	}

	typ, ok := m["type"].(string)
	if !ok || typ == "" {
		return models.Component{}, fmt.Errorf("Component must have a type field")
	}
	if !AllowedTypes[typ] {
		return models.Component{}, fmt.Errorf("Component type %q is not allowed", typ)
	}

	key, ok := m["key"].(string)
	if !ok || key == "" {
		return models.Component{}, fmt.Errorf("Component must have a key field")
	}
	if seen[key] {
		return models.Component{}, fmt.Errorf("Duplicate key %q found", key)
	}
	seen[key] = true

	if label, ok := m["label"].(string); !ok || label == "" {
		return models.Component{}, fmt.Errorf("Component must have a label field")
	}

	c := models.ComponentFromMap(m)
	if _, present := m["input"]; !present {
		c.Input = typ != "htmlelement"
	}
	v.sanitize(&c)
	return c, nil
}

func (v *Validator) ensureSubmitButton(s *models.Schema) {
	if s.HasSubmitButton() {
		return
	}
	v.log.Info("Adding missing submit button", nil)
	s.Components = append(s.Components, SubmitButton())
}

// SubmitButton is the default terminal submit action.
func SubmitButton() models.Component {
	return models.Component{
		Type:  "button",
		Key:   "submit",
		Label: "Submit",
		Input: true,
		Attributes: map[string]interface{}{
			"action": "submit",
			"theme":  "primary",
		},
	}
}
