package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"stargifty/internal/model"
)

// Subscriptions are soft-disabled only, never deleted.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	ListByUser(ctx context.Context, userID int64) ([]*model.Subscription, error)
	SetActive(ctx context.Context, subID uint, userID int64, active bool) error
	ListActive(ctx context.Context) ([]*model.Subscription, error)
}

type subscriptionRepoImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepoImpl{
		db: db,
	}
}

func (r *subscriptionRepoImpl) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepoImpl) ListByUser(ctx context.Context, userID int64) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}

	return subs, nil
}

func (r *subscriptionRepoImpl) SetActive(ctx context.Context, subID uint, userID int64, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ? AND user_id = ?", subID, userID).
		Updates(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subscriptionRepoImpl) ListActive(ctx context.Context) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}

	return subs, nil
}
