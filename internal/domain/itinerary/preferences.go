package itinerary

import (
	"context"
	"strings"

	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
)

const preferencePrompt = "You extract actionable travel preferences from free-form trip notes. " +
	"Respond ONLY with a valid JSON array of short preference strings, for example " +
	"[\"prefers quiet accommodations\",\"dog needs midday walks\"]. " +
	"Return an empty array when the notes contain nothing actionable. Never return plain text."

// extractPreferences turns free-text notes into a list of short preference
// strings. Every failure mode degrades to an empty list; callers never see an
// error from this step.
func (s *service) extractPreferences(ctx context.Context, notes string) []string {
	if strings.TrimSpace(notes) == "" {
		return nil
	}

	completion, err := s.chat.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages: []chatgpt.Message{
			{Role: "system", Content: preferencePrompt},
			{Role: "user", Content: notes},
		},
	})
	if err != nil {
		s.logger.Warn("preference extraction failed", "error", err)
		return nil
	}
	s.usageOf(ctx, completion.Usage)
	if len(completion.Choices) == 0 {
		return nil
	}

	prefs, err := decodeStringList(completion.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("preference extraction returned unusable output", "error", err)
		return nil
	}
	return prefs
}
