package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"multimodal-chat-backend/internal/models"
)

const maxUploadBytes = 32 << 20

type chatService interface {
	SendText(ctx context.Context, req *models.TextChatRequest) (*models.TextChatResponse, error)
	SendTextStream(ctx context.Context, req *models.TextChatRequest) (<-chan models.StreamChunk, error)
	AnalyzeImage(ctx context.Context, req *models.ImageAnalysisRequest) (*models.ImageAnalysisResponse, error)
	AnalyzeUpload(ctx context.Context, req *models.UploadRequest) (*models.ImageAnalysisResponse, error)
	SendMultimodal(ctx context.Context, req *models.MultimodalRequest) (*models.MultimodalResponse, error)
}

type ChatHandler struct {
	service chatService
}

func NewChatHandler(service chatService) *ChatHandler {
	return &ChatHandler{
		service: service,
	}
}

// TextChat godoc
// @Summary Text-only chat
// @Description Send a message plus the running conversation history. The reply and the updated history come back in the response.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.TextChatRequest true "Chat request"
// @Success 200 {object} models.TextChatResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /chat/text [post]
func (h *ChatHandler) TextChat(w http.ResponseWriter, r *http.Request) {
	var req models.TextChatRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %s", err), http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("request validation failed: %s", err), http.StatusBadRequest)
		return
	}

	resp, err := h.service.SendText(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, resp)
}

// TextChatStream godoc
// @Summary Streamed text chat
// @Description Same payload as /chat/text, reply streamed as SSE chunks.
// @Tags chat
// @Accept json
// @Produce text/event-stream
// @Param request body models.TextChatRequest true "Chat request"
// @Success 200 {object} models.StreamChunk "Stream of tokens (SSE)"
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /chat/text/stream [post]
func (h *ChatHandler) TextChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.TextChatRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %s", err), http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("request validation failed: %s", err), http.StatusBadRequest)
		return
	}

	stream, err := h.service.SendTextStream(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher := http.NewResponseController(w)

	for chunk := range stream {
		if chunk.Err != nil {
			fmt.Fprintf(w, "event: error\ndata: %v\n\n", chunk.Err)
			flusher.Flush()
			return
		}

		data, err := sonic.Marshal(chunk)
		if err != nil {
			fmt.Fprintf(w, "event: error\ndata: marshal error %v\n\n", err)
			flusher.Flush()
			return
		}

		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
		flusher.Flush()

		if chunk.Done {
			fmt.Fprintf(w, "event: done\ndata: {}\n\n")
			flusher.Flush()
			return
		}
	}
}

// ImageBase64 godoc
// @Summary Analyze a base64 image
// @Description Send a base64-encoded image with an optional prompt or preset action.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ImageAnalysisRequest true "Image analysis request"
// @Success 200 {object} models.ImageAnalysisResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /chat/image-base64 [post]
func (h *ChatHandler) ImageBase64(w http.ResponseWriter, r *http.Request) {
	var req models.ImageAnalysisRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %s", err), http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("request validation failed: %s", err), http.StatusBadRequest)
		return
	}

	resp, err := h.service.AnalyzeImage(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, resp)
}

// ImageUpload godoc
// @Summary Upload an image and analyze it
// @Description Multipart form with an "image" file (image/* or PDF) plus optional "prompt" and "preset_action" fields.
// @Tags chat
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image or PDF file"
// @Param prompt formData string false "Free-form prompt"
// @Param preset_action formData string false "Preset action key"
// @Success 200 {object} models.ImageAnalysisResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /chat/image-upload [post]
func (h *ChatHandler) ImageUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid multipart form: %s", err), http.StatusBadRequest)
		return
	}

	data, contentType, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := &models.UploadRequest{
		Data:         data,
		ContentType:  contentType,
		Prompt:       r.FormValue("prompt"),
		PresetAction: r.FormValue("preset_action"),
	}

	if err := req.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("request validation failed: %s", err), http.StatusBadRequest)
		return
	}

	resp, err := h.service.AnalyzeUpload(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, resp)
}

// Multimodal godoc
// @Summary Combined text and image chat
// @Description Multipart form with "message", an optional "image" file and an optional "conversation_history" JSON string.
// @Tags chat
// @Accept multipart/form-data
// @Produce json
// @Param message formData string true "User message"
// @Param image formData file false "Image file"
// @Param conversation_history formData string false "Conversation history as a JSON array"
// @Success 200 {object} models.MultimodalResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /chat/multimodal [post]
func (h *ChatHandler) Multimodal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid multipart form: %s", err), http.StatusBadRequest)
		return
	}

	req := &models.MultimodalRequest{
		Message: r.FormValue("message"),
	}

	// Malformed history degrades to an empty one rather than failing the call.
	if raw := r.FormValue("conversation_history"); raw != "" {
		var history []models.Message
		if err := sonic.Unmarshal([]byte(raw), &history); err == nil {
			req.ConversationHistory = history
		}
	}

	if data, contentType, err := readUpload(r); err == nil {
		// Non-image attachments are skipped, matching has_image semantics.
		if format, ok := strings.CutPrefix(contentType, "image/"); ok && format != "" {
			req.ImageBase64 = encodeBase64(data)
			req.ImageFormat = format
		}
	}

	if err := req.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("request validation failed: %s", err), http.StatusBadRequest)
		return
	}

	resp, err := h.service.SendMultimodal(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, resp)
}

func readUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", fmt.Errorf("image file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image file: %w", err)
	}

	return data, header.Header.Get("Content-Type"), nil
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode: %s", err), http.StatusInternalServerError)
	}
}
