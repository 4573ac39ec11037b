package models

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageContent_UnmarshalString(t *testing.T) {
	var msg Message
	err := sonic.Unmarshal([]byte(`{"role":"user","content":"hello"}`), &msg)
	require.NoError(t, err)

	assert.Equal(t, "user", msg.Role)
	assert.False(t, msg.Content.IsParts())
	assert.Equal(t, "hello", msg.Content.Text)
	assert.Equal(t, "hello", msg.Content.PlainText())
}

func TestMessageContent_UnmarshalParts(t *testing.T) {
	raw := `{
		"role": "user",
		"content": [
			{"type": "text", "text": "look at this"},
			{"type": "image_url", "image_url": {"url": "data:image/png;base64,AAAA"}}
		]
	}`

	var msg Message
	err := sonic.Unmarshal([]byte(raw), &msg)
	require.NoError(t, err)

	require.True(t, msg.Content.IsParts())
	require.Len(t, msg.Content.Parts, 2)
	assert.Equal(t, PartTypeText, msg.Content.Parts[0].Type)
	assert.Equal(t, "look at this", msg.Content.Parts[0].Text)
	require.NotNil(t, msg.Content.Parts[1].ImageURL)
	assert.Equal(t, "data:image/png;base64,AAAA", msg.Content.Parts[1].ImageURL.URL)
	assert.Equal(t, "look at this", msg.Content.PlainText())
}

func TestMessageContent_UnmarshalRejectsOtherShapes(t *testing.T) {
	var msg Message
	err := sonic.Unmarshal([]byte(`{"role":"user","content":{"text":"nope"}}`), &msg)
	assert.Error(t, err)
}

func TestMessageContent_RoundTripPreservesForm(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"string content", `{"role":"assistant","content":"plain reply"}`},
		{"parts content", `{"role":"user","content":[{"type":"text","text":"hi"}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var msg Message
			require.NoError(t, sonic.Unmarshal([]byte(tc.raw), &msg))

			out, err := sonic.Marshal(msg)
			require.NoError(t, err)

			var decoded Message
			require.NoError(t, sonic.Unmarshal(out, &decoded))
			assert.Equal(t, msg.Content.IsParts(), decoded.Content.IsParts())
			assert.Equal(t, msg.Content.PlainText(), decoded.Content.PlainText())
		})
	}
}

func TestMessage_Validate(t *testing.T) {
	for _, role := range []string{RoleSystem, RoleUser, RoleAssistant} {
		assert.NoError(t, Message{Role: role}.Validate())
	}

	err := Message{Role: "tool"}.Validate()
	assert.ErrorContains(t, err, "unsupported role")
}
