package models

import (
	"fmt"
	"strings"
)

// TextChatRequest represents request for the text chat endpoints
type TextChatRequest struct {
	Message             string    `json:"message" example:"Hello! Can you tell me a short joke?"`
	ConversationHistory []Message `json:"conversation_history"`

	// Optional generation parameters
	Generation *GenerationParams `json:"generation"`
}

func (r TextChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is empty")
	}
	return validateHistory(r.ConversationHistory)
}

type TextChatResponse struct {
	Response            string    `json:"response"`
	ConversationHistory []Message `json:"conversation_history"`
}

// ImageAnalysisRequest represents request for the base64 image endpoint
type ImageAnalysisRequest struct {
	ImageBase64  string `json:"image_base64" example:"iVBORw0KGgoAAAANSUhEUgAA..."`
	Prompt       string `json:"prompt" example:"What do you see in this image?"`
	PresetAction string `json:"preset_action" example:"analyze"`
	ImageFormat  string `json:"image_format" example:"png"`

	// Optional generation parameters
	Generation *GenerationParams `json:"generation"`
}

func (r ImageAnalysisRequest) Validate() error {
	if r.ImageBase64 == "" {
		return fmt.Errorf("image_base64 is empty")
	}
	return nil
}

type ImageAnalysisResponse struct {
	Response     string `json:"response"`
	AnalysisType string `json:"analysis_type"`
}

// UploadRequest carries an uploaded file for the image-upload endpoint.
// The handler fills it from the multipart form.
type UploadRequest struct {
	Data         []byte
	ContentType  string
	Prompt       string
	PresetAction string
	Generation   *GenerationParams
}

func (r UploadRequest) Validate() error {
	if len(r.Data) == 0 {
		return fmt.Errorf("image file is empty")
	}
	return nil
}

// MultimodalRequest carries the combined text+image form.
type MultimodalRequest struct {
	Message             string
	ConversationHistory []Message
	ImageBase64         string
	ImageFormat         string
	Generation          *GenerationParams
}

func (r MultimodalRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is empty")
	}
	return validateHistory(r.ConversationHistory)
}

func (r MultimodalRequest) HasImage() bool {
	return r.ImageBase64 != ""
}

type MultimodalResponse struct {
	Response            string    `json:"response"`
	ConversationHistory []Message `json:"conversation_history"`
	HasImage            bool      `json:"has_image"`
}

// GenerationParams holds optional OpenAI-like generation parameters
type GenerationParams struct {
	Temperature *float64 `json:"temperature" example:"0.7"`
	MaxTokens   *int     `json:"max_tokens" example:"2048"`
}

// StreamChunk is one SSE frame of a streamed reply.
type StreamChunk struct {
	Delta string `json:"delta,omitempty"`
	Done  bool   `json:"done,omitempty"`

	Err error `json:"-"`
}

// Preset is a predefined image instruction offered to the frontend.
type Preset struct {
	Key         string `json:"key" example:"analyze"`
	Label       string `json:"label" example:"Analyze Image"`
	Description string `json:"description" example:"Detailed analysis of the image"`
}

type PresetsResponse struct {
	Presets []Preset `json:"presets"`
}

func validateHistory(history []Message) error {
	for i, msg := range history {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("conversation_history[%d]: %w", i, err)
		}
	}
	return nil
}
