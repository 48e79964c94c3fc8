package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stargifty/internal/model"
)

// AccountRepository is the funds side of the ledger. Balances only move
// through Credit and DebitIfSufficient; the check-and-decrement in
// DebitIfSufficient is a single atomic statement so concurrent consumers
// of one balance can never both win a debit it only covers once.
type AccountRepository interface {
	Ensure(ctx context.Context, userID int64) error
	Balance(ctx context.Context, userID int64) (int64, error)
	Credit(ctx context.Context, userID int64, amountStars int64) error
	DebitIfSufficient(ctx context.Context, userID int64, amountStars int64) (bool, error)
}

type accountRepoImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepoImpl{
		db: db,
	}
}

func (r *accountRepoImpl) Ensure(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.Account{UserID: userID}).Error
}

func (r *accountRepoImpl) Balance(ctx context.Context, userID int64) (int64, error) {
	if err := r.Ensure(ctx, userID); err != nil {
		return 0, fmt.Errorf("ensure account: %w", err)
	}

	var account model.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return 0, err
	}

	return account.BalanceStars, nil
}

func (r *accountRepoImpl) Credit(ctx context.Context, userID int64, amountStars int64) error {
	if amountStars <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amountStars)
	}

	if err := r.Ensure(ctx, userID); err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}

	return r.db.WithContext(ctx).Model(&model.Account{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance_stars": gorm.Expr("balance_stars + ?", amountStars),
			"updated_at":    time.Now(),
		}).Error
}

func (r *accountRepoImpl) DebitIfSufficient(ctx context.Context, userID int64, amountStars int64) (bool, error) {
	if amountStars <= 0 {
		return false, fmt.Errorf("debit amount must be positive, got %d", amountStars)
	}

	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("user_id = ? AND balance_stars >= ?", userID, amountStars).
		Updates(map[string]interface{}{
			"balance_stars": gorm.Expr("balance_stars - ?", amountStars),
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
