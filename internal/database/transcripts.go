package database

import (
	"context"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"bakerychat/internal/models"
)

// TranscriptStore archives chat transcripts per session id
type TranscriptStore struct {
	db *gorm.DB
}

// NewTranscriptStore wraps an open database
func NewTranscriptStore(db *gorm.DB) *TranscriptStore {
	return &TranscriptStore{db: db}
}

// Load returns the archived transcript of a session in order. An unknown
// session yields an empty transcript.
func (s *TranscriptStore) Load(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	var rows []models.TranscriptMessage
	err := s.db.Where("session_id = ?", sessionID).Order("position asc").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load transcript %s", sessionID)
	}
	out := make([]models.ChatMessage, len(rows))
	for i, row := range rows {
		out[i] = row.ToChatMessage()
	}
	return out, nil
}

// Append stores msgs at positions start, start+1, ... in one transaction
func (s *TranscriptStore) Append(_ context.Context, sessionID string, start int, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "begin transcript append")
	}
	for i, msg := range msgs {
		row := models.TranscriptMessage{
			SessionID: sessionID,
			Position:  start + i,
			Role:      string(msg.Role),
			Content:   msg.Content,
		}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "archive message %d of %s", start+i, sessionID)
		}
	}
	return errors.Wrap(tx.Commit().Error, "commit transcript append")
}
