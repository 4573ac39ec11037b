package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the client-held conversation history.
// Content arrives either as a plain string or as an array of
// OpenAI-style content parts and must round-trip in the same form.
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("unsupported role %q", m.Role)
	}
	return nil
}

// MessageContent is a string-or-parts union.
type MessageContent struct {
	Text  string
	Parts []ContentPart

	isParts bool
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

func PartsContent(parts []ContentPart) MessageContent {
	return MessageContent{Parts: parts, isParts: true}
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

func ImagePart(dataURL string) ContentPart {
	return ContentPart{Type: PartTypeImageURL, ImageURL: &ImageURL{URL: dataURL}}
}

// IsParts reports whether the content arrived as a parts array.
func (c MessageContent) IsParts() bool {
	return c.isParts
}

// PlainText flattens the content to text, joining text parts and
// skipping image parts.
func (c MessageContent) PlainText() string {
	if !c.isParts {
		return c.Text
	}
	var texts []string
	for _, p := range c.Parts {
		if p.Type == PartTypeText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = MessageContent{Text: s}
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of content parts: %w", err)
	}
	*c = MessageContent{Parts: parts, isParts: true}
	return nil
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isParts {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}
