package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"stargifty/internal/model"
)

// PaymentEventRepository tracks processed payment charge ids so webhook
// redelivery of an already-handled payment is a no-op.
type PaymentEventRepository interface {
	Exists(ctx context.Context, chargeID string) (bool, error)
	MarkProcessed(ctx context.Context, chargeID, kind string) error
}

type paymentEventRepoImpl struct {
	db *gorm.DB
}

func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepoImpl{
		db: db,
	}
}

func (r *paymentEventRepoImpl) Exists(ctx context.Context, chargeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PaymentEvent{}).
		Where("charge_id = ?", chargeID).
		Count(&count).Error

	return count > 0, err
}

func (r *paymentEventRepoImpl) MarkProcessed(ctx context.Context, chargeID, kind string) error {
	return r.db.WithContext(ctx).Create(&model.PaymentEvent{
		ChargeID:    chargeID,
		Kind:        kind,
		ProcessedAt: time.Now(),
	}).Error
}
