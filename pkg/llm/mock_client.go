package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

type MockClient struct {
	CreateChatCompletionFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateTranscriptionFunc  func(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

func (m *MockClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if m.CreateChatCompletionFunc != nil {
		return m.CreateChatCompletionFunc(ctx, req)
	}
	return openai.ChatCompletionResponse{}, nil
}

func (m *MockClient) CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	if m.CreateTranscriptionFunc != nil {
		return m.CreateTranscriptionFunc(ctx, req)
	}
	return openai.AudioResponse{}, nil
}
