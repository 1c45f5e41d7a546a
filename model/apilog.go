package model

import (
	"time"
)

// OpenAIAPILog records one completion request/response pair verbatim.
// Append-only; nothing in the serving path reads it back.
type OpenAIAPILog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Request   string    `gorm:"type:longtext" json:"request"`
	Response  string    `gorm:"type:longtext" json:"response"`
	CreatedAt time.Time `gorm:"index;autoCreateTime" json:"createdAt"`
}

func (OpenAIAPILog) TableName() string {
	return "openai_api_log"
}
