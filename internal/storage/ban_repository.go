package storage

import (
	"context"
	"time"

	"tg-unibans/internal/models"

	"gorm.io/gorm"
)

// BanRepository keeps the ledger of bans enforced in each group
type BanRepository struct {
	db *gorm.DB
}

// NewBanRepository creates a new BanRepository
func NewBanRepository(db *gorm.DB) *BanRepository {
	return &BanRepository{db: db}
}

// RecordBan adds an active ledger entry unless one already exists
func (r *BanRepository) RecordBan(ctx context.Context, groupID, userID int64, issuedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.EnforcedBan{}).
			Where("group_id = ? AND user_id = ? AND is_unbanned = ?", groupID, userID, false).
			Count(&count).Error
		if err != nil || count > 0 {
			return err
		}
		return tx.Create(&models.EnforcedBan{
			GroupID:  groupID,
			UserID:   userID,
			IssuedBy: issuedBy,
		}).Error
	})
}

// MarkUnbanned closes every active ledger entry of a user in a group
func (r *BanRepository) MarkUnbanned(ctx context.Context, groupID, userID int64, unbannedBy string) error {
	return r.db.WithContext(ctx).Model(&models.EnforcedBan{}).
		Where("group_id = ? AND user_id = ? AND is_unbanned = ?", groupID, userID, false).
		Updates(map[string]interface{}{"is_unbanned": true, "updated_at": time.Now(), "unbanned_by": unbannedBy}).
		Error
}

// ActiveUsers returns the distinct users currently banned in a group
func (r *BanRepository) ActiveUsers(ctx context.Context, groupID int64) ([]int64, error) {
	var users []int64
	err := r.db.WithContext(ctx).Model(&models.EnforcedBan{}).
		Where("group_id = ? AND is_unbanned = ?", groupID, false).
		Distinct().
		Order("user_id").
		Pluck("user_id", &users).Error
	return users, err
}
