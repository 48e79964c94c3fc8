package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stargifty/internal/client"
	"stargifty/internal/model"
	"stargifty/internal/repository"
)

// Sniper is the auto-buy loop: one long-lived pass every scan interval over
// all active subscriptions, buying fresh listings within each price ceiling
// out of the owner's prepaid balance. Every per-subscription and per-item
// failure is contained; the loop only ever stops with its context.
type Sniper struct {
	accountRepo      repository.AccountRepository
	subscriptionRepo repository.SubscriptionRepository
	fulfillment      FulfillmentService
	market           client.MarketClient
	telegram         client.TelegramClient
	scanInterval     time.Duration
	callTimeout      time.Duration
	logger           zerolog.Logger
}

func NewSniper(
	accountRepo repository.AccountRepository,
	subscriptionRepo repository.SubscriptionRepository,
	fulfillment FulfillmentService,
	market client.MarketClient,
	telegram client.TelegramClient,
	scanInterval time.Duration,
	callTimeout time.Duration,
	logger zerolog.Logger,
) *Sniper {
	return &Sniper{
		accountRepo:      accountRepo,
		subscriptionRepo: subscriptionRepo,
		fulfillment:      fulfillment,
		market:           market,
		telegram:         telegram,
		scanInterval:     scanInterval,
		callTimeout:      callTimeout,
		logger:           logger,
	}
}

// Run blocks until ctx is cancelled. Passes never overlap; a cancel lets
// the in-flight pass finish and skips the next tick.
func (s *Sniper) Run(ctx context.Context) {
	s.logger.Info().Dur("scan_interval", s.scanInterval).Msg("sniper started")

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sniper stopped")
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

// scanOnce is one full matching pass, separated from the timer so the
// business logic runs under test without a live clock.
func (s *Sniper) scanOnce(ctx context.Context) {
	subs, err := s.subscriptionRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list active subscriptions")
		return
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return
		}
		if err := s.scanSubscription(ctx, sub); err != nil {
			s.logger.Error().Err(err).
				Uint("sub_id", sub.ID).
				Int64("user_id", sub.UserID).
				Msg("subscription pass failed")
		}
	}
}

func (s *Sniper) scanSubscription(ctx context.Context, sub *model.Subscription) error {
	listCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	items, err := s.market.ListNewMatching(listCtx, sub.Collection, sub.MaxPriceStars)
	cancel()
	if err != nil {
		return fmt.Errorf("list new listings for %s: %w", sub.Collection, err)
	}

	// Items are taken in gateway order; one bad item never blocks the rest.
	for _, item := range items {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.processItem(ctx, sub, item); err != nil {
			s.logger.Error().Err(err).
				Uint("sub_id", sub.ID).
				Str("item_id", item.ItemID).
				Msg("item pass failed")
		}
	}
	return nil
}

func (s *Sniper) processItem(ctx context.Context, sub *model.Subscription, item model.MarketItem) error {
	if item.PriceStars > sub.MaxPriceStars {
		return nil
	}

	balance, err := s.accountRepo.Balance(ctx, sub.UserID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance < item.PriceStars {
		s.notify(ctx, sub.UserID, fmt.Sprintf(
			"Not enough ⭐️ for the auto-buy of %s (%d⭐️). Top up your balance.",
			item.Title, item.PriceStars))
		return nil
	}

	// Reserve the funds before touching the market so a concurrent manual
	// purchase cannot spend the same stars.
	ok, err := s.accountRepo.DebitIfSufficient(ctx, sub.UserID, item.PriceStars)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	if !ok {
		// Lost the race against another consumer of this balance.
		return nil
	}

	order, err := s.fulfillment.Fulfill(ctx, &FulfillmentRequest{
		UserID:    sub.UserID,
		Item:      item,
		Recipient: sub.Recipient,
		CardMsg:   sub.CardMsg,
	})
	if err != nil {
		return fmt.Errorf("fulfill: %w", err)
	}

	switch order.Status {
	case model.OrderStatusSent:
		s.notify(ctx, sub.UserID, fmt.Sprintf(
			"🎯 Auto-buy: %s for %d⭐️\nDelivered to: %s. Tx: %s",
			item.Title, item.PriceStars, sub.Recipient, order.TxID))
	case model.OrderStatusBought:
		s.notify(ctx, sub.UserID, fmt.Sprintf(
			"Bought %s, but automatic delivery failed. Order #%d. We will retry later.",
			item.Title, order.ID))
	case model.OrderStatusFailed:
		s.logger.Info().
			Uint("order_id", order.ID).
			Str("item_id", item.ItemID).
			Msg("auto-buy lost the listing, refunded")
	}
	return nil
}

func (s *Sniper) notify(ctx context.Context, userID int64, text string) {
	if err := s.telegram.SendMessage(ctx, userID, text); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("notify failed")
	}
}
