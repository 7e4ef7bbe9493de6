package models

import (
	"github.com/jinzhu/gorm"
)

// TranscriptMessage is the archived form of a chat message
type TranscriptMessage struct {
	gorm.Model
	SessionID string `gorm:"index;not null"`
	Position  int    `gorm:"not null"`
	Role      string `gorm:"size:16"`
	Content   string `gorm:"type:text"`
}

// ToChatMessage converts the archived row back into a ChatMessage
func (t TranscriptMessage) ToChatMessage() ChatMessage {
	return ChatMessage{Role: Role(t.Role), Content: t.Content}
}
