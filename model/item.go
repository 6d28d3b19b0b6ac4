package model

import "time"

type Item struct {
	ID          string `gorm:"primaryKey" json:"id"`
	OwnerID     string `gorm:"index;not null" json:"-"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
