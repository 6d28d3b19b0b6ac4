package store

import (
	"bitwise74/account-api/model"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

type ItemStore struct {
	db *gorm.DB
}

func NewItemStore(db *gorm.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ownerID, title, description string) (*model.Item, error) {
	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
	}

	if err := s.db.Create(item).Error; err != nil {
		return nil, err
	}

	return item, nil
}

func (s *ItemStore) ListByOwner(ownerID string) ([]model.Item, error) {
	var items []model.Item

	err := s.db.
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

// Delete removes an item only if the caller owns it
func (s *ItemStore) Delete(ownerID, id string) error {
	r := s.db.
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&model.Item{})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *ItemStore) CountByOwner(ownerID string) (int64, error) {
	var count int64

	err := s.db.Model(&model.Item{}).
		Where("owner_id = ?", ownerID).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
