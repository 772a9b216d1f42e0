package models

import "time"

// EnforcedBan stores a platform-level ban observed or issued in a group.
// Telegram cannot list a chat's banned members, so this table is the
// local view of what each group currently enforces.
type EnforcedBan struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	GroupID    int64  `gorm:"index:idx_group_user;not null"`
	UserID     int64  `gorm:"index:idx_group_user;index;not null"`
	IssuedBy   string `gorm:"default:''"`
	IsUnbanned bool   `gorm:"default:false"`
	UnbannedBy string `gorm:"default:''"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
