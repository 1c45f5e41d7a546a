package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusbridge/model"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIService(t *testing.T, handler http.HandlerFunc) *OpenAIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openai.NewClient(
		option.WithBaseURL(server.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &OpenAIService{DB: newTestDB(t), Client: &client}
}

func TestCreateChatCompletionAuditsRequestAndResponse(t *testing.T) {
	svc := newOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"조회했습니다."}}]}`))
	})

	resp, err := svc.CreateChatCompletion(context.Background(), openai.ChatCompletionNewParams{
		Model:    "gpt-4o-mini",
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("안녕하세요")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "조회했습니다.", resp.Choices[0].Message.Content)

	var logs []model.OpenAIAPILog
	require.NoError(t, svc.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Request, "gpt-4o-mini")
	assert.Contains(t, logs[0].Request, "안녕하세요")
	assert.Contains(t, logs[0].Response, "cmpl-1")
}

func TestCreateChatCompletionAuditsFailures(t *testing.T) {
	svc := newOpenAIService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})

	_, err := svc.CreateChatCompletion(context.Background(), openai.ChatCompletionNewParams{
		Model:    "gpt-4o-mini",
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")},
	})
	require.Error(t, err)

	var logs []model.OpenAIAPILog
	require.NoError(t, svc.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Response, "error")
}
