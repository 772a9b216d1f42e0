package storage

import (
	"context"
	"errors"

	"tg-unibans/internal/models"

	"gorm.io/gorm"
)

// ChatRepository keeps the registry of groups the bot is a member of
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Get returns the registry entry of a group, nil when it is unknown
func (r *ChatRepository) Get(ctx context.Context, groupID int64) (*models.KnownChat, error) {
	var chat models.KnownChat
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// Upsert creates a registry entry or refreshes the title and admin flag
func (r *ChatRepository) Upsert(ctx context.Context, groupID int64, title string, isAdmin bool) error {
	existing, err := r.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(&models.KnownChat{
			GroupID: groupID,
			Title:   title,
			IsAdmin: isAdmin,
		}).Error
	}

	existing.Title = title
	existing.IsAdmin = isAdmin
	return r.db.WithContext(ctx).Save(existing).Error
}

// Remove drops a group from the registry
func (r *ChatRepository) Remove(ctx context.Context, groupID int64) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.KnownChat{}).Error
}

// List returns every known group ordered by group id
func (r *ChatRepository) List(ctx context.Context) ([]models.KnownChat, error) {
	var chats []models.KnownChat
	err := r.db.WithContext(ctx).Order("group_id").Find(&chats).Error
	return chats, err
}
