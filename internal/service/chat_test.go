package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-chat-backend/internal/config"
	"multimodal-chat-backend/internal/models"
)

// stubTransport plays the vendor API: it records request bodies and
// answers every chat completion with a fixed reply.
type stubTransport struct {
	mu       sync.Mutex
	reply    string
	requests [][]byte
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)

	t.mu.Lock()
	t.requests = append(t.requests, body)
	t.mu.Unlock()

	respBody := fmt.Sprintf(
		`{"id":"chatcmpl-test","object":"chat.completion","created":0,"model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`,
		t.reply,
	)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(respBody)),
		Request:    req,
	}, nil
}

func (t *stubTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

type capturedRequest struct {
	Model               string  `json:"model"`
	Temperature         float64 `json:"temperature"`
	MaxCompletionTokens int64   `json:"max_completion_tokens"`
	Messages            []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func (t *stubTransport) lastRequest(tb testing.TB) capturedRequest {
	tb.Helper()

	t.mu.Lock()
	defer t.mu.Unlock()
	require.NotEmpty(tb, t.requests)

	var req capturedRequest
	require.NoError(tb, json.Unmarshal(t.requests[len(t.requests)-1], &req))
	return req
}

func newTestService(transport *stubTransport) *ChatService {
	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL("http://vendor.test/v1"),
		option.WithHTTPClient(&http.Client{Transport: transport}),
		option.WithMaxRetries(0),
	)

	return NewChatService(
		log.New(io.Discard, "", 0),
		client,
		config.OpenAIConfig{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 2048},
	)
}

// mapCache is an in-memory Cache for tests.
type mapCache struct {
	entries map[string]string
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]string)}
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	val, ok := c.entries[key]
	return val, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string) error {
	c.entries[key] = value
	c.sets++
	return nil
}

func TestSendText_AppendsBothTurns(t *testing.T) {
	transport := &stubTransport{reply: "Why did the gopher cross the road?"}
	svc := newTestService(transport)

	resp, err := svc.SendText(context.Background(), &models.TextChatRequest{
		Message: "Tell me a joke",
		ConversationHistory: []models.Message{
			{Role: models.RoleUser, Content: models.TextContent("hello")},
			{Role: models.RoleAssistant, Content: models.TextContent("hi!")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Why did the gopher cross the road?", resp.Response)
	require.Len(t, resp.ConversationHistory, 4)
	assert.Equal(t, models.RoleUser, resp.ConversationHistory[2].Role)
	assert.Equal(t, "Tell me a joke", resp.ConversationHistory[2].Content.PlainText())
	assert.Equal(t, models.RoleAssistant, resp.ConversationHistory[3].Role)
	assert.Equal(t, resp.Response, resp.ConversationHistory[3].Content.PlainText())

	sent := transport.lastRequest(t)
	assert.Equal(t, "gpt-4o", sent.Model)
	require.Len(t, sent.Messages, 3)
	assert.Equal(t, "user", sent.Messages[2].Role)
}

func TestSendText_DoesNotMutateCallerHistory(t *testing.T) {
	transport := &stubTransport{reply: "ok"}
	svc := newTestService(transport)

	history := []models.Message{
		{Role: models.RoleUser, Content: models.TextContent("hello")},
	}
	_, err := svc.SendText(context.Background(), &models.TextChatRequest{
		Message:             "again",
		ConversationHistory: history,
	})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSendText_GenerationDefaultsAndOverrides(t *testing.T) {
	transport := &stubTransport{reply: "ok"}
	svc := newTestService(transport)

	_, err := svc.SendText(context.Background(), &models.TextChatRequest{Message: "hi"})
	require.NoError(t, err)

	sent := transport.lastRequest(t)
	assert.InDelta(t, 0.7, sent.Temperature, 1e-9)
	assert.Equal(t, int64(2048), sent.MaxCompletionTokens)

	temperature := 0.2
	maxTokens := 64
	_, err = svc.SendText(context.Background(), &models.TextChatRequest{
		Message: "hi",
		Generation: &models.GenerationParams{
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		},
	})
	require.NoError(t, err)

	sent = transport.lastRequest(t)
	assert.InDelta(t, 0.2, sent.Temperature, 1e-9)
	assert.Equal(t, int64(64), sent.MaxCompletionTokens)
}

func TestSendText_RejectsUnknownHistoryRole(t *testing.T) {
	transport := &stubTransport{reply: "ok"}
	svc := newTestService(transport)

	_, err := svc.SendText(context.Background(), &models.TextChatRequest{
		Message: "hi",
		ConversationHistory: []models.Message{
			{Role: "tool", Content: models.TextContent("x")},
		},
	})
	require.Error(t, err)
	assert.Zero(t, transport.calls())
}

func TestAnalyzeImage_PresetPromptAndDataURL(t *testing.T) {
	transport := &stubTransport{reply: "A small test image."}
	svc := newTestService(transport)

	resp, err := svc.AnalyzeImage(context.Background(), &models.ImageAnalysisRequest{
		ImageBase64:  "AAAA",
		Prompt:       "ignored because a preset is set",
		PresetAction: "summarize",
	})
	require.NoError(t, err)

	assert.Equal(t, "A small test image.", resp.Response)
	assert.Equal(t, "summarize", resp.AnalysisType)

	sent := transport.lastRequest(t)
	require.Len(t, sent.Messages, 1)
	raw := string(sent.Messages[0].Content)
	assert.Contains(t, raw, presetPrompts["summarize"])
	assert.Contains(t, raw, "data:image/jpeg;base64,AAAA")
}

func TestAnalyzeImage_ExplicitFormat(t *testing.T) {
	transport := &stubTransport{reply: "ok"}
	svc := newTestService(transport)

	_, err := svc.AnalyzeImage(context.Background(), &models.ImageAnalysisRequest{
		ImageBase64: "BBBB",
		ImageFormat: "png",
	})
	require.NoError(t, err)

	sent := transport.lastRequest(t)
	assert.Contains(t, string(sent.Messages[0].Content), "data:image/png;base64,BBBB")
}

func TestAnalyzeImage_CacheRoundTrip(t *testing.T) {
	transport := &stubTransport{reply: "cached reply"}
	svc := newTestService(transport)
	cache := newMapCache()
	svc.SetCacheClient(cache)

	req := &models.ImageAnalysisRequest{ImageBase64: "AAAA", PresetAction: "analyze"}

	first, err := svc.AnalyzeImage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.calls())
	assert.Equal(t, 1, cache.sets)

	second, err := svc.AnalyzeImage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, transport.calls(), "second call must be served from cache")
	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, first.AnalysisType, second.AnalysisType)
}

func TestImageCacheKey_DependsOnInputs(t *testing.T) {
	svc := newTestService(&stubTransport{})

	base := &models.ImageAnalysisRequest{ImageBase64: "AAAA"}
	otherImage := &models.ImageAnalysisRequest{ImageBase64: "BBBB"}

	assert.Equal(t, svc.imageCacheKey(base, "p"), svc.imageCacheKey(base, "p"))
	assert.NotEqual(t, svc.imageCacheKey(base, "p"), svc.imageCacheKey(otherImage, "p"))
	assert.NotEqual(t, svc.imageCacheKey(base, "p"), svc.imageCacheKey(base, "q"))

	temperature := 0.1
	withGen := &models.ImageAnalysisRequest{
		ImageBase64: "AAAA",
		Generation:  &models.GenerationParams{Temperature: &temperature},
	}
	assert.NotEqual(t, svc.imageCacheKey(base, "p"), svc.imageCacheKey(withGen, "p"))
}

func TestSendMultimodal_WithAndWithoutImage(t *testing.T) {
	transport := &stubTransport{reply: "I see a cat."}
	svc := newTestService(transport)

	resp, err := svc.SendMultimodal(context.Background(), &models.MultimodalRequest{
		Message:     "what is on the photo?",
		ImageBase64: "AAAA",
		ImageFormat: "png",
	})
	require.NoError(t, err)

	assert.True(t, resp.HasImage)
	require.Len(t, resp.ConversationHistory, 2)

	userTurn := resp.ConversationHistory[0]
	require.True(t, userTurn.Content.IsParts())
	require.Len(t, userTurn.Content.Parts, 2)
	assert.Equal(t, models.PartTypeImageURL, userTurn.Content.Parts[1].Type)

	resp, err = svc.SendMultimodal(context.Background(), &models.MultimodalRequest{
		Message: "text only",
	})
	require.NoError(t, err)

	assert.False(t, resp.HasImage)
	userTurn = resp.ConversationHistory[0]
	require.True(t, userTurn.Content.IsParts())
	assert.Len(t, userTurn.Content.Parts, 1)
}
