package service

import (
	"time"

	"bitwise74/account-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountCleanup automatically deletes accounts that were registered
// but never confirmed their email before the deadline. Freed emails
// can be registered again afterwards
func AccountCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Account cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			var toCleanUserIds []string

			err := db.
				Model(model.User{}).
				Where("is_active = ? AND expires_at < ?", false, time.Now()).
				Select("id").
				Find(&toCleanUserIds).
				Error
			if err != nil {
				zap.L().Error("Failed to query db for users to clean", zap.Error(err))
				continue
			}

			if len(toCleanUserIds) == 0 {
				continue
			}

			err = db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where("owner_id IN ?", toCleanUserIds).
					Delete(model.Item{}).
					Error; err != nil {
					return err
				}

				return tx.
					Where("id IN ?", toCleanUserIds).
					Delete(model.User{}).
					Error
			})
			if err != nil {
				zap.L().Error("Failed to delete unconfirmed users", zap.Error(err))
				continue
			}

			zap.L().Debug("Account cleanup finished", zap.Int("deleted", len(toCleanUserIds)))
		}
	}()
}
