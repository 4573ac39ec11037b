package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     TextChatRequest
		wantErr string
	}{
		{
			name:    "empty message",
			req:     TextChatRequest{},
			wantErr: "message is empty",
		},
		{
			name:    "whitespace message",
			req:     TextChatRequest{Message: "   \n"},
			wantErr: "message is empty",
		},
		{
			name: "bad history role",
			req: TextChatRequest{
				Message: "hi",
				ConversationHistory: []Message{
					{Role: "bot", Content: TextContent("x")},
				},
			},
			wantErr: "conversation_history[0]",
		},
		{
			name: "valid",
			req: TextChatRequest{
				Message: "hi",
				ConversationHistory: []Message{
					{Role: RoleUser, Content: TextContent("earlier")},
					{Role: RoleAssistant, Content: TextContent("earlier reply")},
				},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestImageAnalysisRequest_Validate(t *testing.T) {
	assert.ErrorContains(t, ImageAnalysisRequest{}.Validate(), "image_base64 is empty")
	assert.NoError(t, ImageAnalysisRequest{ImageBase64: "AAAA"}.Validate())
}

func TestUploadRequest_Validate(t *testing.T) {
	assert.ErrorContains(t, UploadRequest{}.Validate(), "image file is empty")
	assert.NoError(t, UploadRequest{Data: []byte{1}}.Validate())
}

func TestMultimodalRequest_HasImage(t *testing.T) {
	assert.False(t, MultimodalRequest{Message: "hi"}.HasImage())
	assert.True(t, MultimodalRequest{Message: "hi", ImageBase64: "AAAA"}.HasImage())
}
