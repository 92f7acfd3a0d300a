package models

import (
	"encoding/json"
)

// Display modes accepted by the Form.io renderer.
const (
	DisplayForm   = "form"
	DisplayWizard = "wizard"
	DisplayPDF    = "pdf"
)

// Component is one Form.io field. The typed fields are the ones the pipeline
// reasons about; every other attribute rides along in Attributes untouched.
type Component struct {
	Type       string
	Key        string
	Label      string
	Input      bool
	Validate   map[string]interface{}
	Attributes map[string]interface{}
}

// typed keys that never live in Attributes
var componentTypedKeys = map[string]bool{
	"type": true, "key": true, "label": true, "input": true, "validate": true,
}

// ComponentFromMap splits a decoded JSON object into typed fields and attributes.
// A non-object validate value is kept verbatim as an attribute.
func ComponentFromMap(m map[string]interface{}) Component {
	c := Component{Attributes: map[string]interface{}{}}
	for k, v := range m {
		switch k {
		case "type":
			c.Type, _ = v.(string)
		case "key":
			c.Key, _ = v.(string)
		case "label":
			c.Label, _ = v.(string)
		case "input":
			c.Input, _ = v.(bool)
		case "validate":
			if vm, ok := v.(map[string]interface{}); ok {
				c.Validate = vm
			} else {
				c.Attributes[k] = v
			}
		default:
			c.Attributes[k] = v
		}
	}
	return c
}

// ToMap flattens the component back into a single JSON object.
func (c Component) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(c.Attributes)+5)
	for k, v := range c.Attributes {
		if componentTypedKeys[k] && k != "validate" {
			continue
		}
		m[k] = v
	}
	m["type"] = c.Type
	m["key"] = c.Key
	m["label"] = c.Label
	m["input"] = c.Input
	if c.Validate != nil {
		m["validate"] = c.Validate
	}
	return m
}

// Attr returns a presentation attribute.
func (c Component) Attr(name string) (interface{}, bool) {
	v, ok := c.Attributes[name]
	return v, ok
}

// StringAttr returns a string attribute, or "" when absent or not a string.
func (c Component) StringAttr(name string) string {
	s, _ := c.Attributes[name].(string)
	return s
}

// Required reports validate.required.
func (c Component) Required() bool {
	r, _ := c.Validate["required"].(bool)
	return r
}

func (c Component) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

func (c *Component) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = ComponentFromMap(m)
	return nil
}

// Schema is a Form.io form definition.
type Schema struct {
	Display    string      `json:"display"`
	Title      string      `json:"title"`
	Components []Component `json:"components"`
}

// FindComponent returns the first top-level component with key.
func (s *Schema) FindComponent(key string) (Component, bool) {
	for _, c := range s.Components {
		if c.Key == key {
			return c, true
		}
	}
	return Component{}, false
}

// HasSubmitButton reports whether a button with action "submit" exists.
func (s *Schema) HasSubmitButton() bool {
	for _, c := range s.Components {
		if c.Type == "button" && c.StringAttr("action") == "submit" {
			return true
		}
	}
	return false
}

// Generation paths.
const (
	PathAI       = "ai"
	PathFallback = "fallback"
)

// GenerationResult is what form generation produces. CSS is nil on the fallback path.
type GenerationResult struct {
	Schema *Schema `json:"schema"`
	CSS    *string `json:"css"`
	Path   string  `json:"path"`
	Model  string  `json:"model"`
}

// CustomComponentResult holds the generated React component and its template.
type CustomComponentResult struct {
	ComponentCode string `json:"componentCode"`
	TemplateCode  string `json:"templateCode"`
}

// ConversationTurn is a prior exchange passed in by the caller.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToMessages converts caller history into chat messages.
func ToMessages(history []ConversationTurn) []Message {
	out := make([]Message, 0, len(history))
	for _, h := range history {
		out = append(out, TextMessage(Role(h.Role), h.Content))
	}
	return out
}

// ParseConversationHistory reads conversationHistory from decoded job variables.
// Entries that are not objects are ignored.
func ParseConversationHistory(raw interface{}) []ConversationTurn {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]ConversationTurn, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		out = append(out, ConversationTurn{Role: role, Content: content})
	}
	return out
}
