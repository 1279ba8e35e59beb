package services

import (
	"context"
	"fmt"

	"careersync/internal/llm"
)

// MentorService fronts the AI career mentor chat.
type MentorService struct {
	client llm.Client
}

func NewMentorService(client llm.Client) *MentorService {
	return &MentorService{client: client}
}

// Chat sends the user's message to the mentor and returns the reply.
func (s *MentorService) Chat(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("message is required")
	}

	reply, err := s.client.Complete(ctx, []llm.Message{
		{Role: "system", Content: llm.MentorSystemPrompt},
		{Role: "user", Content: message},
	}, &llm.CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get response from AI mentor: %w", err)
	}

	return reply, nil
}
