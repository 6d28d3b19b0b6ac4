package model

import "time"

type User struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string `gorm:"not null" json:"-"`
	FullName       string `json:"fullName"`
	IsActive       bool   `gorm:"default:false" json:"isActive"`
	IsSuperuser    bool   `gorm:"default:false" json:"isSuperuser"`

	OTPSecret         string     `gorm:"column:otp_secret" json:"-"`
	FailedOTPAttempts int        `gorm:"column:failed_otp_attempts" json:"-"`
	LockoutUntil      *time.Time `gorm:"column:lockout_until" json:"-"`

	// Accounts that never confirm their email are reaped once this passes
	ExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	Items []Item `gorm:"foreignKey:OwnerID" json:"-"`
}
