package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"campusbridge/model"

	"github.com/openai/openai-go"
	"gorm.io/gorm"
)

const (
	// hard stop against runaway tool-call cycles
	maxAgentIterations = 10
	// user/assistant turns replayed to the model per request
	historyWindow = 20
	// session titles derive from the first message
	sessionTitleLimit = 100

	defaultAgentModel       = "gpt-4o-mini"
	defaultAgentTemperature = 0.7
	defaultAgentMaxTokens   = 2000
)

const agentSystemPrompt = `당신은 캠퍼스 브릿지 서비스의 AI 어시스턴트입니다.
캠퍼스 브릿지는 기업과 학생을 연결하는 채용/인턴십 플랫폼입니다.

[지원하는 기능]
- 사용자 정보 조회 및 프로필 수정
- 공고 조회, 생성, 검색
- 공고 지원 및 지원 내역 확인
- 지원자 관리 (승인/거절)
- 청구서 조회

[중요 규칙]
1. 위 기능과 관련된 요청만 처리하세요.
2. 서비스와 관련 없는 질문(공부법, 일반 상식, 코딩, 날씨 등)은 정중히 거절하세요.
3. 데이터 조회 후에는 "조회했습니다", "완료했습니다" 등 간단한 확인 메시지만 전달하세요.
4. 조회된 데이터의 상세 내용(목록, 숫자, 이름 등)을 메시지에 나열하지 마세요. 데이터는 별도로 전달됩니다.
5. 오류가 발생하면 사용자에게 이해하기 쉽게 설명해주세요.
6. 조회 요청이 오면 반드시 해당 함수를 호출하세요. 이전에 비슷한 작업을 했더라도 매번 새로 조회해야 합니다.
7. 절대로 함수 호출 없이 "조회했습니다"라고 응답하지 마세요.

[거절 예시]
- "시험 잘 보는 법 알려줘" → "죄송합니다. 저는 캠퍼스 브릿지 서비스 관련 기능만 도와드릴 수 있어요. 공고 조회, 지원, 프로필 관리 등을 요청해 주세요!"
- "오늘 날씨 어때?" → "죄송합니다. 저는 캠퍼스 브릿지 서비스 전용 어시스턴트예요. 공고나 지원 관련 도움이 필요하시면 말씀해 주세요!"

[응답 예시]
- (좋음) "게시물 목록을 조회했습니다."
- (좋음) "프로필이 업데이트되었습니다."
- (좋음) "공고에 지원했습니다."`

var ErrSessionNotFound = errors.New("session not found or unauthorized")

// AgentService drives the bounded chat loop: load history, call the
// model, dispatch requested tool calls, feed results back, stop when the
// model answers without tools or the iteration budget runs out.
type AgentService struct {
	DB        *gorm.DB
	Completer ChatCompleter
	Executor  *AgentFunctionExecutor
}

type FunctionResult struct {
	FunctionName string `json:"functionName"`
	Data         any    `json:"data"`
}

type ChatResult struct {
	SessionID       uint             `json:"sessionId"`
	Message         string           `json:"message"`
	Finished        bool             `json:"finished"`
	FunctionResults []FunctionResult `json:"functionResults,omitempty"`
}

type ChatSessionSummary struct {
	SessionID uint      `json:"sessionId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ChatMessageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *AgentService) Chat(ctx context.Context, userID uint, userMessage string, sessionID *uint) (*ChatResult, error) {
	session, err := s.resolveSession(userID, userMessage, sessionID)
	if err != nil {
		return nil, err
	}

	userTurn := model.ChatMessage{
		SessionID: session.ID,
		Role:      model.ChatRoleUser,
		Content:   userMessage,
	}
	if err := s.DB.Create(&userTurn).Error; err != nil {
		return nil, err
	}

	messages, err := s.buildTranscript(session.ID)
	if err != nil {
		return nil, err
	}

	finalResponse := ""
	var functionResults []FunctionResult

	for iteration := 0; iteration < maxAgentIterations; iteration++ {
		params := openai.ChatCompletionNewParams{
			Model:       agentModel(),
			Messages:    messages,
			Tools:       AgentTools,
			Temperature: openai.Float(defaultAgentTemperature),
			MaxTokens:   openai.Int(defaultAgentMaxTokens),
		}

		resp, err := s.Completer.CreateChatCompletion(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			break
		}
		assistant := resp.Choices[0].Message

		assistantTurn := model.ChatMessage{
			SessionID: session.ID,
			Role:      model.ChatRoleAssistant,
			Content:   assistant.Content,
		}
		if len(assistant.ToolCalls) > 0 {
			if raw, err := json.Marshal(assistant.ToolCalls); err == nil {
				assistantTurn.ToolCalls = string(raw)
			}
		}
		if err := s.DB.Create(&assistantTurn).Error; err != nil {
			return nil, err
		}
		messages = append(messages, assistant.ToParam())

		if len(assistant.ToolCalls) == 0 {
			finalResponse = assistant.Content
			break
		}

		// tool calls run sequentially, in the order the model returned
		for _, toolCall := range assistant.ToolCalls {
			result := s.Executor.Execute(toolCall.Function.Name, toolCall.Function.Arguments, userID)

			var data any
			if err := json.Unmarshal([]byte(result), &data); err != nil {
				data = map[string]any{"raw": result}
			}
			functionResults = append(functionResults, FunctionResult{
				FunctionName: toolCall.Function.Name,
				Data:         data,
			})

			toolTurn := model.ChatMessage{
				SessionID:  session.ID,
				Role:       model.ChatRoleTool,
				Content:    result,
				ToolCallID: toolCall.ID,
				FuncName:   toolCall.Function.Name,
			}
			if err := s.DB.Create(&toolTurn).Error; err != nil {
				return nil, err
			}
			messages = append(messages, openai.ToolMessage(result, toolCall.ID))
		}
	}

	session.UpdatedAt = time.Now()
	if err := s.DB.Save(session).Error; err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID:       session.ID,
		Message:         finalResponse,
		Finished:        true,
		FunctionResults: functionResults,
	}, nil
}

func (s *AgentService) GetSessions(userID uint) ([]ChatSessionSummary, error) {
	var sessions []model.ChatSession
	if err := s.DB.Where("user_id = ?", userID).
		Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	out := make([]ChatSessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		title := sess.Title
		if title == "" {
			title = "New Chat"
		}
		out = append(out, ChatSessionSummary{
			SessionID: sess.ID,
			Title:     title,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
		})
	}
	return out, nil
}

func (s *AgentService) GetSessionMessages(userID, sessionID uint) ([]ChatMessageView, error) {
	if _, err := s.ownedSession(sessionID, userID); err != nil {
		return nil, err
	}

	var turns []model.ChatMessage
	if err := s.DB.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").Find(&turns).Error; err != nil {
		return nil, err
	}

	out := make([]ChatMessageView, 0, len(turns))
	for _, turn := range turns {
		if turn.Role != model.ChatRoleUser && turn.Role != model.ChatRoleAssistant {
			continue
		}
		out = append(out, ChatMessageView{
			Role:      turn.Role,
			Content:   turn.Content,
			CreatedAt: turn.CreatedAt,
		})
	}
	return out, nil
}

// PurgeOldToolTurns deletes tool-role turns older than ttl. Tool turns are
// never replayed to the model, so the sweep cannot change any transcript.
func (s *AgentService) PurgeOldToolTurns(ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	res := s.DB.Where("role = ? AND created_at < ?", model.ChatRoleTool, cutoff).
		Delete(&model.ChatMessage{})
	return res.RowsAffected, res.Error
}

func (s *AgentService) resolveSession(userID uint, userMessage string, sessionID *uint) (*model.ChatSession, error) {
	if sessionID != nil {
		return s.ownedSession(*sessionID, userID)
	}
	session := &model.ChatSession{
		UserID:    userID,
		Title:     truncateRunes(userMessage, sessionTitleLimit),
		UpdatedAt: time.Now(),
	}
	if err := s.DB.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AgentService) ownedSession(sessionID, userID uint) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := s.DB.Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error; err != nil {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// buildTranscript assembles the context window for the model: the fixed
// system turn plus the most recent user/assistant turns. Tool turns are
// left out because the API requires strict pairing with the assistant turn
// that requested them, which a window cut would break.
func (s *AgentService) buildTranscript(sessionID uint) ([]openai.ChatCompletionMessageParamUnion, error) {
	var turns []model.ChatMessage
	if err := s.DB.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").Find(&turns).Error; err != nil {
		return nil, err
	}

	history := make([]model.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		if turn.Role != model.ChatRoleUser && turn.Role != model.ChatRoleAssistant {
			continue
		}
		if turn.Content == "" {
			continue
		}
		history = append(history, turn)
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(agentSystemPrompt))
	for _, turn := range history {
		if turn.Role == model.ChatRoleUser {
			messages = append(messages, openai.UserMessage(turn.Content))
		} else {
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}
	return messages, nil
}

func agentModel() string {
	if m := os.Getenv("LLM_MODEL"); m != "" {
		return m
	}
	return defaultAgentModel
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
