package models

import "time"

// KnownChat is a group the bot is currently a member of
type KnownChat struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	GroupID   int64  `gorm:"uniqueIndex;not null"`
	Title     string `gorm:"default:''"`
	IsAdmin   bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
