// Package fallback derives a form schema from keywords in the request text.
// It never fails and never calls the model.
package fallback

import (
	"regexp"
	"strings"

	"formgen-workers/internal/models"
)

var (
	optionListPattern = regexp.MustCompile(`\((.*?)\)`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// Model is the model name reported for keyword-generated schemas.
const Model = "keyword-fallback"

type topic struct {
	keywords []string
	build    func(text string) models.Component
}

var topics = []topic{
	{[]string{"name"}, func(string) models.Component {
		return field("textfield", "name", "Name", nil)
	}},
	{[]string{"email"}, func(string) models.Component {
		return field("email", "email", "Email", nil)
	}},
	{[]string{"phone"}, func(string) models.Component {
		return field("phoneNumber", "phone", "Phone Number", nil)
	}},
	{[]string{"address"}, func(string) models.Component {
		return field("textarea", "address", "Address", map[string]interface{}{"rows": 3})
	}},
	{[]string{"date", "birth"}, func(string) models.Component {
		return field("datetime", "date", "Date", map[string]interface{}{
			"format":     "yyyy-MM-dd",
			"enableDate": true,
			"enableTime": false,
		})
	}},
	{[]string{"message", "comment"}, func(string) models.Component {
		return field("textarea", "message", "Message", map[string]interface{}{"rows": 5})
	}},
	{[]string{"agree", "terms", "checkbox"}, func(string) models.Component {
		return field("checkbox", "agreement", "I agree to the terms and conditions", nil)
	}},
	{[]string{"select", "choose", "dropdown"}, func(text string) models.Component {
		return field("select", "selection", "Select an option", map[string]interface{}{
			"data": map[string]interface{}{"values": SelectOptions(text)},
		})
	}},
}

// titles are checked in order; the first match wins.
var titles = []struct {
	keywords []string
	title    string
}{
	{[]string{"contact"}, "Contact Form"},
	{[]string{"registration", "register"}, "Registration Form"},
	{[]string{"feedback"}, "Feedback Form"},
	{[]string{"survey"}, "Survey Form"},
}

// Generate builds a schema with one component per topic mentioned in text
// and a trailing submit button.
func Generate(text string) *models.Schema {
	lower := strings.ToLower(text)
	required := strings.Contains(lower, "required") || strings.Contains(lower, "must")

	components := make([]models.Component, 0, len(topics)+1)
	for _, t := range topics {
		if !containsAny(lower, t.keywords) {
			continue
		}
		c := t.build(text)
		c.Validate = map[string]interface{}{"required": required || c.Key == "agreement"}
		components = append(components, c)
	}
	components = append(components, submitButton())

	return &models.Schema{
		Display:    models.DisplayForm,
		Title:      Title(text),
		Components: components,
	}
}

// Title picks a form title from domain keywords, ignoring case.
func Title(text string) string {
	lower := strings.ToLower(text)
	for _, t := range titles {
		if containsAny(lower, t.keywords) {
			return t.title
		}
	}
	return "Form"
}

// SelectOptions parses the first parenthesized comma-separated list in text.
// Without one it returns three placeholder options.
func SelectOptions(text string) []map[string]interface{} {
	m := optionListPattern.FindStringSubmatch(text)
	if m == nil {
		return []map[string]interface{}{
			{"label": "Option 1", "value": "option1"},
			{"label": "Option 2", "value": "option2"},
			{"label": "Option 3", "value": "option3"},
		}
	}

	var options []map[string]interface{}
	for _, part := range strings.Split(m[1], ",") {
		label := strings.TrimSpace(part)
		if label == "" {
			continue
		}
		options = append(options, map[string]interface{}{
			"label": label,
			"value": whitespaceRun.ReplaceAllString(strings.ToLower(label), "_"),
		})
	}
	return options
}

func field(typ, key, label string, attrs map[string]interface{}) models.Component {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	return models.Component{Type: typ, Key: key, Label: label, Input: true, Attributes: attrs}
}

func submitButton() models.Component {
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

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
