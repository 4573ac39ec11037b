package handler

import (
	"net/http"

	"multimodal-chat-backend/internal/models"
	"multimodal-chat-backend/internal/service"
)

const (
	apiName    = "Multimodal Chat API"
	apiVersion = "1.0.0"
)

// Presets godoc
// @Summary List preset actions
// @Description Preset instruction keys that can be sent with an image instead of a free-form prompt.
// @Tags presets
// @Produce json
// @Success 200 {object} models.PresetsResponse
// @Router /presets [get]
func (h *ChatHandler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, models.PresetsResponse{Presets: service.Presets()})
}

// Info godoc
// @Summary API information
// @Description Service name, version and endpoint map.
// @Tags info
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api [get]
func (h *ChatHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"message": apiName,
		"version": apiVersion,
		"endpoints": map[string]string{
			"/chat/text":         "Text-only chat",
			"/chat/text/stream":  "Text-only chat, streamed as SSE",
			"/chat/image-upload": "Upload an image and chat about it",
			"/chat/image-base64": "Send a base64 image and chat about it",
			"/chat/multimodal":   "Combined text and image chat with history",
			"/presets":           "Available preset actions for images",
		},
	})
}

// Health godoc
// @Summary Liveness probe
// @Tags info
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
