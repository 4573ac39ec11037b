package service

import (
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"multimodal-chat-backend/internal/models"
)

const defaultImageFormat = "jpeg"

// buildChatParams assembles the vendor payload from already-mapped
// messages plus generation parameters, falling back to configured defaults.
func (s *ChatService) buildChatParams(
	messages []openai.ChatCompletionMessageParamUnion,
	gen *models.GenerationParams,
) *openai.ChatCompletionNewParams {
	params := &openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(s.cfg.Model),
		Messages: messages,
	}

	temperature := s.cfg.Temperature
	maxTokens := s.cfg.MaxTokens
	if gen != nil && gen.Temperature != nil {
		temperature = *gen.Temperature
	}
	if gen != nil && gen.MaxTokens != nil {
		maxTokens = *gen.MaxTokens
	}

	params.Temperature = openai.Float(temperature)
	params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	return params
}

// historyToMessages maps the client-held history into vendor message unions.
func historyToMessages(history []models.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for i, msg := range history {
		mapped, err := toVendorMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("conversation_history[%d]: %w", i, err)
		}
		messages = append(messages, mapped)
	}
	return messages, nil
}

func toVendorMessage(msg models.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case models.RoleSystem:
		return openai.SystemMessage(msg.Content.PlainText()), nil
	case models.RoleAssistant:
		return openai.AssistantMessage(msg.Content.PlainText()), nil
	case models.RoleUser:
		if msg.Content.IsParts() {
			return openai.UserMessage(contentToVendorParts(msg.Content.Parts)), nil
		}
		return openai.UserMessage(msg.Content.Text), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role %q", msg.Role)
	}
}

func contentToVendorParts(parts []models.ContentPart) []openai.ChatCompletionContentPartUnionParam {
	vendorParts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case models.PartTypeImageURL:
			if p.ImageURL == nil {
				continue
			}
			vendorParts = append(vendorParts, openai.ImageContentPart(
				openai.ChatCompletionContentPartImageImageURLParam{
					URL: p.ImageURL.URL,
				},
			))
		default:
			vendorParts = append(vendorParts, openai.TextContentPart(p.Text))
		}
	}
	return vendorParts
}

// imageDataURL wraps a base64 payload into the data URL form the vendor expects.
func imageDataURL(format, imageBase64 string) string {
	if format == "" {
		format = defaultImageFormat
	}
	return fmt.Sprintf("data:image/%s;base64,%s", strings.TrimPrefix(format, "."), imageBase64)
}

// imageTurn builds the user turn carrying a prompt plus one image part.
func imageTurn(prompt, format, imageBase64 string) models.Message {
	return models.Message{
		Role: models.RoleUser,
		Content: models.PartsContent([]models.ContentPart{
			models.TextPart(prompt),
			models.ImagePart(imageDataURL(format, imageBase64)),
		}),
	}
}
