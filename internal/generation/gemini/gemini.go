package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"docqa/internal/domain"
)

// DefaultModel is used when no generation model is configured.
const DefaultModel = "gemini-1.5-flash"

type messageSender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

var _ domain.Answerer = (*Answerer)(nil)

// Answerer opens Gemini chat sessions. Every session starts with an empty history.
type Answerer struct {
	model   string
	newChat func(ctx context.Context, model string) (messageSender, error)
}

func NewAnswerer(client *genai.Client, model string) *Answerer {
	if model == "" {
		model = DefaultModel
	}
	return &Answerer{
		model: model,
		newChat: func(ctx context.Context, model string) (messageSender, error) {
			return client.Chats.Create(ctx, model, nil, nil)
		},
	}
}

func (a *Answerer) Name() string { return "gemini" }

func (a *Answerer) StartSession(ctx context.Context) (domain.Session, error) {
	chat, err := a.newChat(ctx, a.model)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &session{chat: chat}, nil
}

type session struct {
	chat messageSender
}

func (s *session) Send(ctx context.Context, prompt string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned")
	}
	return resp.Text(), nil
}
