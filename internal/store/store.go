package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/models"
	"gorm.io/gorm"
)

// ChatStore persists chats and their messages
type ChatStore interface {
	CreateChat(ctx context.Context, ownerID string, first models.Message) (*models.Chat, error)
	FindChat(ctx context.Context, chatID, ownerID string) (*models.Chat, error)
	InsertMessages(ctx context.Context, chatID string, messages []models.Message) error
	SetTitle(ctx context.Context, chatID, title string) error
	ListChats(ctx context.Context, ownerID string) ([]models.Chat, error)
	DeleteChat(ctx context.Context, chatID, ownerID string) error
}

// GormStore implements ChatStore on gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over an open database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateChat inserts an untitled chat together with its first message
func (s *GormStore) CreateChat(ctx context.Context, ownerID string, first models.Message) (*models.Chat, error) {
	chat := &models.Chat{UserID: ownerID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return fmt.Errorf("create chat: %w", err)
		}
		first.ChatID = chat.ID
		if err := tx.Create(&first).Error; err != nil {
			return fmt.Errorf("create first message: %w", err)
		}
		chat.Messages = []models.Message{first}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// FindChat loads a chat and its messages in insertion order.
// A chat owned by someone else is reported as not found.
func (s *GormStore) FindChat(ctx context.Context, chatID, ownerID string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ? AND user_id = ?", chatID, ownerID).
		First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("chat")
	}
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return &chat, nil
}

// InsertMessages appends all messages of one turn in a single transaction.
// An empty batch is a no-op.
func (s *GormStore) InsertMessages(ctx context.Context, chatID string, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for i := range messages {
		messages[i].ChatID = chatID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&messages).Error; err != nil {
			return fmt.Errorf("insert messages: %w", err)
		}
		return tx.Model(&models.Chat{}).Where("id = ?", chatID).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
}

// SetTitle stores the chat title; the last writer wins
func (s *GormStore) SetTitle(ctx context.Context, chatID, title string) error {
	res := s.db.WithContext(ctx).Model(&models.Chat{}).Where("id = ?", chatID).Update("title", title)
	if res.Error != nil {
		return fmt.Errorf("set title: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("chat")
	}
	return nil
}

// ListChats returns the owner's chats, most recently updated first, without messages
func (s *GormStore) ListChats(ctx context.Context, ownerID string) ([]models.Chat, error) {
	var chats []models.Chat
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// DeleteChat removes a chat and its messages
func (s *GormStore) DeleteChat(ctx context.Context, chatID, ownerID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", chatID, ownerID).Delete(&models.Chat{})
		if res.Error != nil {
			return fmt.Errorf("delete chat: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("chat")
		}
		return tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error
	})
}
