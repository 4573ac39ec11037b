package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"multimodal-chat-backend/internal/config"
	"multimodal-chat-backend/internal/metrics"
	"multimodal-chat-backend/internal/models"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// ChatService forwards chat and image-analysis requests to the vendor API.
// It keeps no conversation state: history is supplied by and returned to
// the caller on every request.
type ChatService struct {
	logger       *log.Logger
	openaiClient openai.Client
	cfg          config.OpenAIConfig
	cache        Cache
}

func NewChatService(logger *log.Logger, openaiClient openai.Client, cfg config.OpenAIConfig) *ChatService {
	return &ChatService{
		logger:       logger,
		openaiClient: openaiClient,
		cfg:          cfg,
	}
}

func (s *ChatService) SetCacheClient(cache Cache) {
	s.cache = cache
}

// SendText handles a plain text turn: history + new user message go to the
// vendor, the assistant reply is appended and the whole history returned.
func (s *ChatService) SendText(ctx context.Context, req *models.TextChatRequest) (*models.TextChatResponse, error) {
	history := append(slices.Clone(req.ConversationHistory), models.Message{
		Role:    models.RoleUser,
		Content: models.TextContent(req.Message),
	})

	messages, err := historyToMessages(history)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	reply, err := s.complete(ctx, s.buildChatParams(messages, req.Generation))
	if err != nil {
		return nil, err
	}

	history = append(history, models.Message{
		Role:    models.RoleAssistant,
		Content: models.TextContent(reply),
	})

	return &models.TextChatResponse{
		Response:            reply,
		ConversationHistory: history,
	}, nil
}

// SendTextStream is SendText with the reply streamed token by token.
func (s *ChatService) SendTextStream(
	ctx context.Context,
	req *models.TextChatRequest,
) (<-chan models.StreamChunk, error) {
	history := append(slices.Clone(req.ConversationHistory), models.Message{
		Role:    models.RoleUser,
		Content: models.TextContent(req.Message),
	})

	messages, err := historyToMessages(history)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	params := s.buildChatParams(messages, req.Generation)

	ch := make(chan models.StreamChunk, 1)

	go func() {
		defer close(ch)

		sendOrStop := func(msg models.StreamChunk) bool {
			select {
			case ch <- msg:
				return true
			case <-ctx.Done():
				return false
			}
		}

		sendNonBlocking := func(msg models.StreamChunk) {
			select {
			case ch <- msg:
			default:
			}
		}

		stream := s.openaiClient.Chat.Completions.NewStreaming(ctx, *params)
		defer stream.Close()

		for stream.Next() {
			if ctx.Err() != nil {
				sendNonBlocking(models.StreamChunk{Err: ctx.Err()})
				return
			}

			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			if !sendOrStop(models.StreamChunk{Delta: delta}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			sendNonBlocking(models.StreamChunk{Err: err})
			return
		}

		sendNonBlocking(models.StreamChunk{Done: true})
	}()

	return ch, nil
}

// AnalyzeImage handles a single-shot base64 image question. Responses are
// cached when a cache client is configured.
func (s *ChatService) AnalyzeImage(ctx context.Context, req *models.ImageAnalysisRequest) (*models.ImageAnalysisResponse, error) {
	prompt, analysisType := resolveImagePrompt(req.Prompt, req.PresetAction)
	key := s.imageCacheKey(req, prompt)

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Printf("cache get error: %v\n", err)
		}
		if found {
			s.logger.Println("served from cache")
			return &models.ImageAnalysisResponse{Response: cached, AnalysisType: analysisType}, nil
		}
	}

	messages, err := historyToMessages([]models.Message{
		imageTurn(prompt, req.ImageFormat, req.ImageBase64),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	reply, err := s.complete(ctx, s.buildChatParams(messages, req.Generation))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, reply); err != nil {
			s.logger.Printf("failed to set cache: %v\n", err)
		}
	}

	return &models.ImageAnalysisResponse{
		Response:     reply,
		AnalysisType: analysisType,
	}, nil
}

// AnalyzeUpload normalizes an uploaded file (image or PDF) and runs the
// same analysis as AnalyzeImage.
func (s *ChatService) AnalyzeUpload(ctx context.Context, req *models.UploadRequest) (*models.ImageAnalysisResponse, error) {
	imageBase64, format, err := normalizeUpload(req.Data, req.ContentType)
	if err != nil {
		return nil, err
	}

	return s.AnalyzeImage(ctx, &models.ImageAnalysisRequest{
		ImageBase64:  imageBase64,
		ImageFormat:  format,
		Prompt:       req.Prompt,
		PresetAction: req.PresetAction,
		Generation:   req.Generation,
	})
}

// SendMultimodal handles a combined text+optional-image turn with history.
// The appended user turn keeps its content-parts form so the caller gets
// back exactly what the vendor saw.
func (s *ChatService) SendMultimodal(ctx context.Context, req *models.MultimodalRequest) (*models.MultimodalResponse, error) {
	parts := []models.ContentPart{models.TextPart(req.Message)}
	if req.HasImage() {
		parts = append(parts, models.ImagePart(imageDataURL(req.ImageFormat, req.ImageBase64)))
	}

	history := append(slices.Clone(req.ConversationHistory), models.Message{
		Role:    models.RoleUser,
		Content: models.PartsContent(parts),
	})

	messages, err := historyToMessages(history)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	reply, err := s.complete(ctx, s.buildChatParams(messages, req.Generation))
	if err != nil {
		return nil, err
	}

	history = append(history, models.Message{
		Role:    models.RoleAssistant,
		Content: models.TextContent(reply),
	})

	return &models.MultimodalResponse{
		Response:            reply,
		ConversationHistory: history,
		HasImage:            req.HasImage(),
	}, nil
}

func (s *ChatService) complete(ctx context.Context, params *openai.ChatCompletionNewParams) (string, error) {
	start := time.Now()
	resp, err := s.openaiClient.Chat.Completions.New(ctx, *params)
	if err != nil {
		metrics.VendorRequest("error", time.Since(start))
		return "", fmt.Errorf("OpenAI client error: %w", err)
	}
	metrics.VendorRequest("ok", time.Since(start))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *ChatService) imageCacheKey(req *models.ImageAnalysisRequest, prompt string) string {
	data := []string{
		s.cfg.Model,
		req.ImageFormat,
		req.ImageBase64,
		prompt,
	}

	if req.Generation != nil && req.Generation.Temperature != nil {
		data = append(data, fmt.Sprintf("%f", *req.Generation.Temperature))
	}

	if req.Generation != nil && req.Generation.MaxTokens != nil {
		data = append(data, fmt.Sprintf("%d", *req.Generation.MaxTokens))
	}

	hash := sha256.Sum256([]byte(strings.Join(data, "-")))
	return hex.EncodeToString(hash[:])
}
