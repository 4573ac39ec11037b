package service

import "multimodal-chat-backend/internal/models"

const defaultImagePrompt = "Analyze this image"

const (
	analysisTypeCustom  = "custom"
	analysisTypeDefault = "default"
)

var presetPrompts = map[string]string{
	"analyze":          "Analyze this image in detail. Describe what you see, identify key elements, colors, composition, and any notable features.",
	"summarize":        "Provide a concise summary of what's shown in this image in 2-3 sentences.",
	"describe":         "Describe this image as if you're explaining it to someone who cannot see it. Be detailed and specific.",
	"extract_text":     "Extract and transcribe any text visible in this image. If no text is present, say 'No text detected'.",
	"identify_objects": "Identify and list all the objects, people, or items you can see in this image.",
	"explain_context":  "Explain the context and setting of this image. What's happening? Where might this be taken?",
}

var presets = []models.Preset{
	{Key: "analyze", Label: "Analyze Image", Description: "Detailed analysis of the image"},
	{Key: "summarize", Label: "Summarize", Description: "Quick summary of image content"},
	{Key: "describe", Label: "Describe", Description: "Detailed description for accessibility"},
	{Key: "extract_text", Label: "Extract Text", Description: "Extract any text from the image"},
	{Key: "identify_objects", Label: "Identify Objects", Description: "List objects and items in the image"},
	{Key: "explain_context", Label: "Explain Context", Description: "Explain the setting and context"},
}

// Presets returns the preset actions offered to the frontend.
func Presets() []models.Preset {
	return presets
}

// PresetPrompt resolves a preset key to its instruction string.
// Unknown keys fall back to the default prompt.
func PresetPrompt(action string) string {
	if prompt, ok := presetPrompts[action]; ok {
		return prompt
	}
	return defaultImagePrompt
}

// resolveImagePrompt picks the instruction sent with an image:
// preset_action wins over a free-form prompt, which wins over the default.
func resolveImagePrompt(prompt, presetAction string) (string, string) {
	switch {
	case presetAction != "":
		return PresetPrompt(presetAction), presetAction
	case prompt != "":
		return prompt, analysisTypeCustom
	default:
		return defaultImagePrompt, analysisTypeDefault
	}
}
