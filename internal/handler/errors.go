package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"

	"multimodal-chat-backend/internal/service"
)

// statusForError maps a service failure to an HTTP status: invalid input
// stays 400, upstream rate limiting passes through as 429, other vendor
// API failures are 502, the rest is 500.
func statusForError(err error) int {
	if errors.Is(err, service.ErrUnsupportedMedia) {
		return http.StatusBadRequest
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, err error) {
	http.Error(w, fmt.Sprintf("chat service error: %s", err), statusForError(err))
}
