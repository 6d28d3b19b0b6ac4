// Package store wraps all database access behind the user directory
// and item store so handlers never build queries themselves
package store

import (
	"errors"
	"time"

	"bitwise74/account-api/model"
	"bitwise74/account-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("record not found")
)

type UserStore struct {
	db    *gorm.DB
	argon *security.ArgonHash
}

func NewUserStore(db *gorm.DB, argon *security.ArgonHash) *UserStore {
	return &UserStore{db: db, argon: argon}
}

// UserPatch carries a sparse self-service update. Nil fields are left
// untouched
type UserPatch struct {
	Email    *string
	FullName *string
	Password *string
}

// Create inserts a new inactive user. The unique index on email is
// the authoritative duplicate check, so two concurrent registrations
// with the same address can't both succeed
func (s *UserStore) Create(email, password string, confirmDeadline time.Duration) (*model.User, error) {
	hash, err := s.argon.GenerateFromPassword(password)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(confirmDeadline)

	user := &model.User{
		ID:             id,
		Email:          email,
		HashedPassword: hash,
		IsActive:       false,
		ExpiresAt:      &expiresAt,
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

func (s *UserStore) FindByEmail(email string) (*model.User, error) {
	var user model.User

	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (s *UserStore) FindByID(id string) (*model.User, error) {
	var user model.User

	err := s.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Activate flips the user to active and stores their fresh OTP secret
// in one transaction, so a confirmed account always has a secret
func (s *UserStore) Activate(id, otpSecret string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		r := tx.Model(&model.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"is_active":  true,
				"otp_secret": otpSecret,
				"expires_at": nil,
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// Update applies a sparse patch. A changed email is re-checked for
// uniqueness; the unique index stays authoritative for races
func (s *UserStore) Update(id string, patch UserPatch) error {
	fields := map[string]any{}

	if patch.Email != nil {
		var clashes int64

		err := s.db.Model(&model.User{}).
			Where("email = ? AND id <> ?", *patch.Email, id).
			Count(&clashes).
			Error
		if err != nil {
			return err
		}

		if clashes > 0 {
			return ErrDuplicateEmail
		}

		fields["email"] = *patch.Email
	}

	if patch.FullName != nil {
		fields["full_name"] = *patch.FullName
	}

	if patch.Password != nil {
		hash, err := s.argon.GenerateFromPassword(*patch.Password)
		if err != nil {
			return err
		}

		fields["hashed_password"] = hash
	}

	if len(fields) == 0 {
		return nil
	}

	err := s.db.Model(&model.User{}).
		Where("id = ?", id).
		Updates(fields).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

// Delete removes the user and everything they own in one transaction
func (s *UserStore) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&model.Item{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&model.User{}).Error
	})
}

func (s *UserStore) List(skip, limit int) ([]model.User, int64, error) {
	var count int64

	if err := s.db.Model(&model.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User

	err := s.db.
		Order("created_at").
		Offset(skip).
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		return nil, 0, err
	}

	return users, count, nil
}

// RecordOTPFailure bumps the consecutive failure counter and locks
// the account once maxFails is reached. Returns whether the account
// is now locked
func (s *UserStore) RecordOTPFailure(id string, maxFails int, lockFor time.Duration) (locked bool, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		r := tx.Model(&model.User{}).
			Where("id = ?", id).
			Update("failed_otp_attempts", gorm.Expr("failed_otp_attempts + 1"))
		if r.Error != nil {
			return r.Error
		}

		var attempts int
		err := tx.Model(&model.User{}).
			Where("id = ?", id).
			Select("failed_otp_attempts").
			First(&attempts).
			Error
		if err != nil {
			return err
		}

		if attempts < maxFails {
			return nil
		}

		locked = true

		until := time.Now().Add(lockFor)

		return tx.Model(&model.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"lockout_until":       until,
				"failed_otp_attempts": 0,
			}).Error
	})

	return locked, err
}

// ResetOTPFailures clears the counter and any lockout after a
// successful code verification
func (s *UserStore) ResetOTPFailures(id string) error {
	return s.db.Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_otp_attempts": 0,
			"lockout_until":       nil,
		}).Error
}

// SetPassword replaces the stored hash wholesale (password reset flow)
func (s *UserStore) SetPassword(id, password string) error {
	hash, err := s.argon.GenerateFromPassword(password)
	if err != nil {
		return err
	}

	r := s.db.Model(&model.User{}).
		Where("id = ?", id).
		Update("hashed_password", hash)
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
