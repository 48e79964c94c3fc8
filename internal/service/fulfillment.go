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

// FulfillmentRequest is a reserved purchase intent: the price has already
// been taken from the buyer (internal debit or paid invoice) when Fulfill
// is called.
type FulfillmentRequest struct {
	UserID    int64
	Item      model.MarketItem
	Recipient string
	CardMsg   string
}

// FulfillmentService drives buy-then-transfer against the market and
// reconciles the ledger on partial failure. It holds no state between
// calls; everything it does is a ledger write or a gateway call.
type FulfillmentService interface {
	// Fulfill returns the final order, whose status tells the caller what
	// to report: failed (buy declined, price refunded), bought (purchased
	// but undelivered, price kept) or sent (delivered, tx id recorded).
	// A non-nil error means a ledger write failed.
	Fulfill(ctx context.Context, req *FulfillmentRequest) (*model.Order, error)
}

type fulfillmentServiceImpl struct {
	accountRepo repository.AccountRepository
	orderRepo   repository.OrderRepository
	market      client.MarketClient
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewFulfillmentService(
	accountRepo repository.AccountRepository,
	orderRepo repository.OrderRepository,
	market client.MarketClient,
	callTimeout time.Duration,
	logger zerolog.Logger,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		accountRepo: accountRepo,
		orderRepo:   orderRepo,
		market:      market,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

func (s *fulfillmentServiceImpl) Fulfill(ctx context.Context, req *FulfillmentRequest) (*model.Order, error) {
	order := &model.Order{
		UserID:     req.UserID,
		ItemID:     req.Item.ItemID,
		Collection: req.Item.Collection,
		PriceStars: req.Item.PriceStars,
		Recipient:  req.Recipient,
		CardMsg:    req.CardMsg,
		Status:     model.OrderStatusPaid,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	dealID, err := s.buy(ctx, req.Item)
	if err != nil {
		// Money never left the user's control: refund and close the order.
		s.logger.Warn().Err(err).
			Uint("order_id", order.ID).
			Str("item_id", req.Item.ItemID).
			Msg("market buy failed, refunding")

		if err := s.accountRepo.Credit(ctx, req.UserID, req.Item.PriceStars); err != nil {
			return nil, fmt.Errorf("refund after failed buy (order %d): %w", order.ID, err)
		}
		if err := s.orderRepo.MarkFailed(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("mark order failed: %w", err)
		}
		order.Status = model.OrderStatusFailed
		return order, nil
	}

	// Past this point the marketplace purchase is done and the money has
	// left the user's control. A failed status write is logged, never
	// propagated: an error here would make the caller's retry buy the item
	// a second time, while the paid row is already enough to reconcile.
	txID, err := s.transfer(ctx, req.Item, req.Recipient, req.CardMsg)
	if err != nil {
		// The price stays deducted; the order remains deliverable later.
		s.logger.Warn().Err(err).
			Uint("order_id", order.ID).
			Str("deal_id", dealID).
			Msg("transfer failed, order held as bought")

		if err := s.orderRepo.MarkBought(ctx, order.ID); err != nil {
			s.logger.Error().Err(err).Uint("order_id", order.ID).Msg("mark order bought failed")
		}
		order.Status = model.OrderStatusBought
		return order, nil
	}

	if err := s.orderRepo.MarkSent(ctx, order.ID, txID); err != nil {
		s.logger.Error().Err(err).Uint("order_id", order.ID).Str("tx_id", txID).Msg("mark order sent failed")
	}
	order.Status = model.OrderStatusSent
	order.TxID = txID

	s.logger.Info().
		Uint("order_id", order.ID).
		Str("item_id", req.Item.ItemID).
		Str("tx_id", txID).
		Msg("order fulfilled")

	return order, nil
}

func (s *fulfillmentServiceImpl) buy(ctx context.Context, item model.MarketItem) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.market.Buy(callCtx, item)
}

func (s *fulfillmentServiceImpl) transfer(ctx context.Context, item model.MarketItem, recipient, cardMsg string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.market.Transfer(callCtx, item, recipient, cardMsg)
}
