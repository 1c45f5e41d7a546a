package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"campusbridge/model"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.StudentAuthorizationRequest{},
		&model.Posting{},
		&model.Application{},
		&model.Billing{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.OpenAIAPILog{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		Password:     "x",
		Role:         role,
		IsAuthorized: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPosting(t *testing.T, db *gorm.DB, posterID uint, title string) *model.Posting {
	t.Helper()
	posting := &model.Posting{
		PosterID:     posterID,
		Title:        title,
		Body:         "body of " + title,
		Compensation: 500000,
		Status:       model.PostingActive,
		Tags:         "intern,backend",
	}
	require.NoError(t, db.Create(posting).Error)
	return posting
}

func newExecutor(db *gorm.DB) *AgentFunctionExecutor {
	users := &UserService{DB: db}
	postings := &PostingService{DB: db}
	billings := &BillingService{DB: db}
	return NewAgentFunctionExecutor(users, postings, billings)
}

// fakeCompleter plays back scripted completions. The last response repeats
// once the script runs out, which lets the iteration-cap tests keep the
// model asking for tools forever.
type fakeCompleter struct {
	responses []*openai.ChatCompletion
	calls     []openai.ChatCompletionNewParams
	err       error
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &openai.ChatCompletion{}, nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func textCompletion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func toolCallCompletion(id, name, arguments string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ChatCompletionMessageToolCall{
					{
						ID: id,
						Function: openai.ChatCompletionMessageToolCallFunction{
							Name:      name,
							Arguments: arguments,
						},
					},
				},
			}},
		},
	}
}
