package service

import (
	"context"
	"fmt"

	"stargifty/internal/model"
	"stargifty/internal/repository"
)

// AccountService backs the wallet and subscription endpoints.
type AccountService interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	CreateSubscription(ctx context.Context, userID int64, collection string, maxPriceStars int64, recipient, cardMsg string) (*model.Subscription, error)
	ListSubscriptions(ctx context.Context, userID int64) ([]*model.Subscription, error)
	SetSubscriptionActive(ctx context.Context, userID int64, subID uint, active bool) error
	ListOrders(ctx context.Context, userID int64) ([]*model.Order, error)
}

type accountServiceImpl struct {
	accountRepo      repository.AccountRepository
	subscriptionRepo repository.SubscriptionRepository
	orderRepo        repository.OrderRepository
}

func NewAccountService(
	accountRepo repository.AccountRepository,
	subscriptionRepo repository.SubscriptionRepository,
	orderRepo repository.OrderRepository,
) AccountService {
	return &accountServiceImpl{
		accountRepo:      accountRepo,
		subscriptionRepo: subscriptionRepo,
		orderRepo:        orderRepo,
	}
}

func (s *accountServiceImpl) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.accountRepo.Balance(ctx, userID)
}

func (s *accountServiceImpl) CreateSubscription(ctx context.Context, userID int64, collection string, maxPriceStars int64, recipient, cardMsg string) (*model.Subscription, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if maxPriceStars < 0 {
		return nil, fmt.Errorf("max price must not be negative, got %d", maxPriceStars)
	}
	if recipient == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if cardMsg == "" {
		cardMsg = DefaultCardMsg
	}

	if err := s.accountRepo.Ensure(ctx, userID); err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	sub := &model.Subscription{
		UserID:        userID,
		Collection:    collection,
		MaxPriceStars: maxPriceStars,
		Recipient:     recipient,
		CardMsg:       cardMsg,
		Active:        true,
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	return sub, nil
}

func (s *accountServiceImpl) ListSubscriptions(ctx context.Context, userID int64) ([]*model.Subscription, error) {
	return s.subscriptionRepo.ListByUser(ctx, userID)
}

func (s *accountServiceImpl) SetSubscriptionActive(ctx context.Context, userID int64, subID uint, active bool) error {
	return s.subscriptionRepo.SetActive(ctx, subID, userID, active)
}

func (s *accountServiceImpl) ListOrders(ctx context.Context, userID int64) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}
