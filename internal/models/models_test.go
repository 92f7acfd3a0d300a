package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Message content
// ==========================

func TestMessageContent_JSON(t *testing.T) {
	text := TextMessage(RoleUser, "contact form")
	raw, err := json.Marshal(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"contact form"}`, string(raw))

	parts := Message{Role: RoleUser, Content: PartsContent(
		ContentPart{Type: PartText, Text: "describe"},
		ContentPart{Type: PartImageURL, ImageURL: &ImageURL{URL: "data:image/png;base64,AAA"}},
	)}
	raw, err = json.Marshal(parts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":[{"type":"text","text":"describe"},{"type":"image_url","image_url":{"url":"data:image/png;base64,AAA"}}]}`, string(raw))

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ContentParts, decoded.Content.Kind)
	assert.True(t, decoded.Content.HasImage())

	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":"hi"}`), &decoded))
	assert.Equal(t, ContentText, decoded.Content.Kind)
	assert.Equal(t, "hi", decoded.Content.Text)
	assert.False(t, decoded.Content.HasImage())
}

func TestMessageContent_RejectsObjects(t *testing.T) {
	var m Message
	assert.Error(t, json.Unmarshal([]byte(`{"role":"user","content":{"a":1}}`), &m))
}

// ==========================
// Components
// ==========================

func TestComponent_FlattensAttributes(t *testing.T) {
	src := `{"type":"textfield","key":"name","label":"Name","input":true,"placeholder":"Jane","validate":{"required":true},"data":{"values":[1,2]}}`

	var c Component
	require.NoError(t, json.Unmarshal([]byte(src), &c))

	assert.Equal(t, "textfield", c.Type)
	assert.Equal(t, "name", c.Key)
	assert.True(t, c.Input)
	assert.True(t, c.Required())
	assert.Equal(t, "Jane", c.StringAttr("placeholder"))
	_, ok := c.Attr("data")
	assert.True(t, ok)
	_, ok = c.Attr("type")
	assert.False(t, ok)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))
}

func TestComponent_NonObjectValidateKeptVerbatim(t *testing.T) {
	c := ComponentFromMap(map[string]interface{}{"type": "textfield", "key": "a", "label": "A", "validate": "odd"})
	assert.Nil(t, c.Validate)
	assert.Equal(t, "odd", c.ToMap()["validate"])
}

func TestSchema_HasSubmitButton(t *testing.T) {
	s := &Schema{Components: []Component{
		ComponentFromMap(map[string]interface{}{"type": "button", "key": "reset", "label": "Reset", "action": "reset"}),
	}}
	assert.False(t, s.HasSubmitButton())

	s.Components = append(s.Components, ComponentFromMap(map[string]interface{}{"type": "button", "key": "go", "label": "Go", "action": "submit"}))
	assert.True(t, s.HasSubmitButton())

	got, ok := s.FindComponent("go")
	require.True(t, ok)
	assert.Equal(t, "Go", got.Label)
}

func TestToMessages(t *testing.T) {
	msgs := ToMessages([]ConversationTurn{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}})
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "b", msgs[1].Content.Text)
}

func TestParseConversationHistory(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"role": "user", "content": "contact form"},
		"garbage",
		map[string]interface{}{"role": "assistant", "content": "done"},
	}

	assert.Equal(t, []ConversationTurn{
		{Role: "user", Content: "contact form"},
		{Role: "assistant", Content: "done"},
	}, ParseConversationHistory(raw))
	assert.Nil(t, ParseConversationHistory(nil))
	assert.Nil(t, ParseConversationHistory("not a list"))
}
