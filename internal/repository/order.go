package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"stargifty/internal/model"
)

// ErrOrderFinal is returned when a status update targets an order already
// in a terminal state (sent or failed).
var ErrOrderFinal = errors.New("order is in a terminal state")

// Orders are an append-only audit trail: rows are created once and only
// their status and tx id ever change, guarded against terminal states.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Order, error)
	MarkFailed(ctx context.Context, orderID uint) error
	MarkBought(ctx context.Context, orderID uint) error
	MarkSent(ctx context.Context, orderID uint, txID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID int64) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) MarkFailed(ctx context.Context, orderID uint) error {
	return r.updateStatus(ctx, orderID, map[string]interface{}{
		"status": model.OrderStatusFailed,
	})
}

func (r *orderRepoImpl) MarkBought(ctx context.Context, orderID uint) error {
	return r.updateStatus(ctx, orderID, map[string]interface{}{
		"status": model.OrderStatusBought,
	})
}

func (r *orderRepoImpl) MarkSent(ctx context.Context, orderID uint, txID string) error {
	return r.updateStatus(ctx, orderID, map[string]interface{}{
		"status": model.OrderStatusSent,
		"tx_id":  txID,
	})
}

func (r *orderRepoImpl) updateStatus(ctx context.Context, orderID uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status NOT IN ?
		`,
			orderID,
			[]string{model.OrderStatusSent, model.OrderStatusFailed},
		).
		Updates(fields)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderFinal
	}
	return nil
}
