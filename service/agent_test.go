package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"campusbridge/model"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgentService(t *testing.T, completer *fakeCompleter) *AgentService {
	t.Helper()
	db := newTestDB(t)
	users := &UserService{DB: db}
	postings := &PostingService{DB: db}
	billings := &BillingService{DB: db}
	return &AgentService{
		DB:        db,
		Completer: completer,
		Executor:  NewAgentFunctionExecutor(users, postings, billings),
	}
}

func sessionTurns(t *testing.T, svc *AgentService, sessionID uint) []model.ChatMessage {
	t.Helper()
	var turns []model.ChatMessage
	require.NoError(t, svc.DB.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").Find(&turns).Error)
	return turns
}

func TestChatCreatesSessionWithTruncatedTitle(t *testing.T) {
	completer := &fakeCompleter{responses: []*openai.ChatCompletion{textCompletion("알겠습니다.")}}
	svc := newAgentService(t, completer)
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	message := strings.Repeat("가", 130)
	result, err := svc.Chat(context.Background(), user.ID, message, nil)
	require.NoError(t, err)
	require.NotZero(t, result.SessionID)
	assert.Equal(t, "알겠습니다.", result.Message)
	assert.True(t, result.Finished)
	assert.Empty(t, result.FunctionResults)

	var session model.ChatSession
	require.NoError(t, svc.DB.First(&session, result.SessionID).Error)
	assert.Equal(t, strings.Repeat("가", 100), session.Title)
	assert.Equal(t, user.ID, session.UserID)

	turns := sessionTurns(t, svc, session.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, model.ChatRoleUser, turns[0].Role)
	assert.Equal(t, message, turns[0].Content)
	assert.Equal(t, model.ChatRoleAssistant, turns[1].Role)
}

func TestChatShortTitleKeptWhole(t *testing.T) {
	completer := &fakeCompleter{responses: []*openai.ChatCompletion{textCompletion("ok")}}
	svc := newAgentService(t, completer)
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	result, err := svc.Chat(context.Background(), user.ID, "내 공고 목록 보여줘", nil)
	require.NoError(t, err)

	var session model.ChatSession
	require.NoError(t, svc.DB.First(&session, result.SessionID).Error)
	assert.Equal(t, "내 공고 목록 보여줘", session.Title)
}

func TestChatDispatchesToolCalls(t *testing.T) {
	completer := &fakeCompleter{responses: []*openai.ChatCompletion{
		toolCallCompletion("call_1", "get_my_postings", `{"page":0,"size":20}`),
		textCompletion("공고 목록을 조회했습니다."),
	}}
	svc := newAgentService(t, completer)
	company := seedUser(t, svc.DB, "acme", model.RoleCompany)
	seedPosting(t, svc.DB, company.ID, "backend intern")

	result, err := svc.Chat(context.Background(), company.ID, "내 공고 목록 보여줘", nil)
	require.NoError(t, err)
	assert.Equal(t, "공고 목록을 조회했습니다.", result.Message)
	assert.True(t, result.Finished)
	require.Len(t, result.FunctionResults, 1)
	assert.Equal(t, "get_my_postings", result.FunctionResults[0].FunctionName)

	data, ok := result.FunctionResults[0].Data.(map[string]any)
	require.True(t, ok)
	content, ok := data["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)

	turns := sessionTurns(t, svc, result.SessionID)
	require.Len(t, turns, 4)
	assert.Equal(t, model.ChatRoleUser, turns[0].Role)
	assert.Equal(t, model.ChatRoleAssistant, turns[1].Role)
	assert.NotEmpty(t, turns[1].ToolCalls)
	assert.Equal(t, model.ChatRoleTool, turns[2].Role)
	assert.Equal(t, "call_1", turns[2].ToolCallID)
	assert.Equal(t, "get_my_postings", turns[2].FuncName)
	assert.Equal(t, model.ChatRoleAssistant, turns[3].Role)
}

func TestChatIterationCap(t *testing.T) {
	// the scripted completer repeats its last response, so the model
	// keeps asking for tools until the loop gives up
	completer := &fakeCompleter{responses: []*openai.ChatCompletion{
		toolCallCompletion("call_x", "get_billing_list", `{}`),
	}}
	svc := newAgentService(t, completer)
	company := seedUser(t, svc.DB, "acme", model.RoleCompany)

	result, err := svc.Chat(context.Background(), company.ID, "청구서 보여줘", nil)
	require.NoError(t, err)
	assert.Len(t, completer.calls, 10)
	assert.True(t, result.Finished)
	assert.Empty(t, result.Message)
	assert.Len(t, result.FunctionResults, 10)
}

func TestChatUnknownFunctionIsContained(t *testing.T) {
	completer := &fakeCompleter{responses: []*openai.ChatCompletion{
		toolCallCompletion("call_1", "launch_rockets", `{}`),
		textCompletion("해당 기능은 지원하지 않습니다."),
	}}
	svc := newAgentService(t, completer)
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	result, err := svc.Chat(context.Background(), user.ID, "로켓 발사해줘", nil)
	require.NoError(t, err)
	require.Len(t, result.FunctionResults, 1)

	data, ok := result.FunctionResults[0].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Unknown function: launch_rockets", data["error"])
}

func TestChatRejectsForeignSession(t *testing.T) {
	completer := &fakeCompleter{responses: []*openai.ChatCompletion{textCompletion("ok")}}
	svc := newAgentService(t, completer)
	owner := seedUser(t, svc.DB, "owner", model.RoleStudent)
	intruder := seedUser(t, svc.DB, "intruder", model.RoleStudent)

	first, err := svc.Chat(context.Background(), owner.ID, "첫 메시지", nil)
	require.NoError(t, err)

	before := len(sessionTurns(t, svc, first.SessionID))
	_, err = svc.Chat(context.Background(), intruder.ID, "훔쳐보기", &first.SessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Len(t, sessionTurns(t, svc, first.SessionID), before)
}

func TestChatModelFailureIsFatalButKeepsTurns(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream unavailable")}
	svc := newAgentService(t, completer)
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	_, err := svc.Chat(context.Background(), user.ID, "hello", nil)
	require.Error(t, err)

	// the user turn written before the model call stays persisted
	var count int64
	require.NoError(t, svc.DB.Model(&model.ChatMessage{}).
		Where("role = ?", model.ChatRoleUser).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTranscriptWindowKeepsLastTwenty(t *testing.T) {
	completer := &fakeCompleter{responses: []*openai.ChatCompletion{textCompletion("ok")}}
	svc := newAgentService(t, completer)
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	session := &model.ChatSession{UserID: user.ID, Title: "old", UpdatedAt: time.Now()}
	require.NoError(t, svc.DB.Create(session).Error)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		role := model.ChatRoleUser
		if i%2 == 1 {
			role = model.ChatRoleAssistant
		}
		require.NoError(t, svc.DB.Create(&model.ChatMessage{
			SessionID: session.ID,
			Role:      role,
			Content:   fmt.Sprintf("turn-%d", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}
	// interleave tool turns that must never be replayed
	require.NoError(t, svc.DB.Create(&model.ChatMessage{
		SessionID: session.ID,
		Role:      model.ChatRoleTool,
		Content:   `{"ignored":true}`,
		CreatedAt: base.Add(30 * time.Second),
	}).Error)

	_, err := svc.Chat(context.Background(), user.ID, "new message", &session.ID)
	require.NoError(t, err)

	require.Len(t, completer.calls, 1)
	messages := completer.calls[0].Messages
	// one system turn plus the 20 most recent user/assistant turns
	require.Len(t, messages, 21)
	require.NotNil(t, messages[0].OfSystem)

	first := messages[1]
	require.NotNil(t, first.OfUser)
	assert.Equal(t, "turn-7", first.OfUser.Content.OfString.Value)

	last := messages[len(messages)-1]
	require.NotNil(t, last.OfUser)
	assert.Equal(t, "new message", last.OfUser.Content.OfString.Value)
}

func TestGetSessionsNewestUpdatedFirst(t *testing.T) {
	svc := newAgentService(t, &fakeCompleter{})
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	old := &model.ChatSession{UserID: user.ID, Title: "old", UpdatedAt: time.Now().Add(-time.Hour)}
	fresh := &model.ChatSession{UserID: user.ID, Title: "fresh", UpdatedAt: time.Now()}
	other := &model.ChatSession{UserID: user.ID + 1, Title: "other", UpdatedAt: time.Now()}
	require.NoError(t, svc.DB.Create(old).Error)
	require.NoError(t, svc.DB.Create(fresh).Error)
	require.NoError(t, svc.DB.Create(other).Error)

	sessions, err := svc.GetSessions(user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "fresh", sessions[0].Title)
	assert.Equal(t, "old", sessions[1].Title)
}

func TestGetSessionMessagesFiltersRolesAndChecksOwner(t *testing.T) {
	svc := newAgentService(t, &fakeCompleter{})
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	session := &model.ChatSession{UserID: user.ID, Title: "t", UpdatedAt: time.Now()}
	require.NoError(t, svc.DB.Create(session).Error)

	base := time.Now().Add(-time.Minute)
	rows := []model.ChatMessage{
		{SessionID: session.ID, Role: model.ChatRoleUser, Content: "question", CreatedAt: base},
		{SessionID: session.ID, Role: model.ChatRoleAssistant, Content: "", ToolCalls: "[]", CreatedAt: base.Add(time.Second)},
		{SessionID: session.ID, Role: model.ChatRoleTool, Content: `{"data":1}`, CreatedAt: base.Add(2 * time.Second)},
		{SessionID: session.ID, Role: model.ChatRoleAssistant, Content: "answer", CreatedAt: base.Add(3 * time.Second)},
	}
	for i := range rows {
		require.NoError(t, svc.DB.Create(&rows[i]).Error)
	}

	messages, err := svc.GetSessionMessages(user.ID, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, model.ChatRoleUser, messages[0].Role)
	assert.Equal(t, "answer", messages[2].Content)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}

	_, err = svc.GetSessionMessages(user.ID+1, session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPurgeOldToolTurns(t *testing.T) {
	svc := newAgentService(t, &fakeCompleter{})
	user := seedUser(t, svc.DB, "student", model.RoleStudent)

	session := &model.ChatSession{UserID: user.ID, Title: "t", UpdatedAt: time.Now()}
	require.NoError(t, svc.DB.Create(session).Error)

	old := time.Now().Add(-40 * 24 * time.Hour)
	rows := []model.ChatMessage{
		{SessionID: session.ID, Role: model.ChatRoleTool, Content: "old tool", CreatedAt: old},
		{SessionID: session.ID, Role: model.ChatRoleUser, Content: "old user", CreatedAt: old},
		{SessionID: session.ID, Role: model.ChatRoleTool, Content: "new tool", CreatedAt: time.Now()},
	}
	for i := range rows {
		require.NoError(t, svc.DB.Create(&rows[i]).Error)
	}

	purged, err := svc.PurgeOldToolTurns(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var remaining []model.ChatMessage
	require.NoError(t, svc.DB.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, m := range remaining {
		assert.NotEqual(t, "old tool", m.Content)
	}
}
