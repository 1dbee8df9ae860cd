package webhook

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	FindByProviderEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*Event, error)
}

type gormRepository struct{}

func NewRepository() Repository { return gormRepository{} }

func (gormRepository) Insert(ctx context.Context, db *gorm.DB, event *Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (gormRepository) FindByProviderEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*Event, error) {
	var event Event
	err := db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
