package model

import (
	"time"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleTool      = "tool"
)

// ChatSession is one conversation thread between a user and the agent.
// Only the owning user may read or extend it.
type ChatSession struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"type:varchar(500)" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatMessage is one turn in a session. Rows are append-only; nothing
// updates or deletes a turn once written (the retention sweep for old tool
// turns is the single exception).
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  uint      `gorm:"index:idx_session_id_created_at;not null" json:"sessionId"`
	Role       string    `gorm:"type:varchar(50);not null" json:"role"`
	Content    string    `gorm:"type:longtext" json:"content"`
	ToolCalls  string    `gorm:"type:longtext" json:"toolCalls"`
	ToolCallID string    `gorm:"type:varchar(200)" json:"toolCallId"`
	FuncName   string    `gorm:"column:function_name;type:varchar(100)" json:"functionName"`
	CreatedAt  time.Time `gorm:"index:idx_session_id_created_at;autoCreateTime" json:"createdAt"`
}
