package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentKind discriminates MessageContent.
type ContentKind int

const (
	ContentText ContentKind = iota
	ContentParts
)

// Part types used in multimodal content.
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// ImageURL references an image by URL or data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of multimodal content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// MessageContent is either plain text or an ordered list of parts.
type MessageContent struct {
	Kind  ContentKind
	Text  string
	Parts []ContentPart
}

// TextContent builds plain text content.
func TextContent(text string) MessageContent {
	return MessageContent{Kind: ContentText, Text: text}
}

// PartsContent builds multimodal content.
func PartsContent(parts ...ContentPart) MessageContent {
	return MessageContent{Kind: ContentParts, Parts: parts}
}

// HasImage reports whether any part carries an image.
func (c MessageContent) HasImage() bool {
	if c.Kind != ContentParts {
		return false
	}
	for _, p := range c.Parts {
		if p.Type == PartImageURL {
			return true
		}
	}
	return false
}

// MarshalJSON encodes text content as a JSON string and parts as an array.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Kind == ContentParts {
		parts := c.Parts
		if parts == nil {
			parts = []ContentPart{}
		}
		return json.Marshal(parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON picks the variant from the JSON token kind.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = TextContent("")
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = TextContent(s)
	case '[':
		var parts []ContentPart
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		*c = PartsContent(parts...)
	default:
		return fmt.Errorf("message content must be a string or an array of parts")
	}
	return nil
}

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content MessageContent `json:"content"`
}

// TextMessage builds a message with plain text content.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: TextContent(text)}
}
