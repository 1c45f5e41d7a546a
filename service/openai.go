package service

import (
	"context"
	"encoding/json"

	"campusbridge/model"

	"github.com/openai/openai-go"
	"gorm.io/gorm"
)

// ChatCompleter is the one outbound call the agent loop makes. Tests swap
// in a scripted implementation.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIService forwards completion requests to the configured endpoint
// and writes every request/response pair to the openai_api_log table.
// The audit trail is append-only and nothing in the serving path depends
// on it, so a failed write is logged and swallowed.
type OpenAIService struct {
	DB     *gorm.DB
	Client *openai.Client
}

func (s *OpenAIService) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	requestJSON, err := json.Marshal(params)
	if err != nil {
		requestJSON = []byte(`{"error":"failed to serialize request"}`)
	}

	resp, err := s.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		s.audit(string(requestJSON), `{"error":`+jsonQuote(err.Error())+`}`)
		return nil, err
	}

	s.audit(string(requestJSON), resp.RawJSON())
	return resp, nil
}

func (s *OpenAIService) audit(request, response string) {
	entry := model.OpenAIAPILog{
		Request:  request,
		Response: response,
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		logger.Warnf("failed to write openai api log: %v", err)
	}
}

func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
