package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"stargifty/internal/client"
	"stargifty/internal/model"
	"stargifty/internal/repository"
)

const (
	botBrand = "StarGifty"

	payloadKindDeposit = "deposit"
	payloadKindManual  = "manual"
)

// DefaultCardMsg is the brand gift card used when the buyer leaves the
// message empty.
const DefaultCardMsg = "Congratulations! A gift from " + botBrand + " ✨"

// ErrPayloadIntegrity means a successful-payment payload embeds a user id
// that does not match the actual payer. The ledger is never touched.
var ErrPayloadIntegrity = errors.New("payment payload does not belong to payer")

// ErrBadPayload means the invoice payload could not be parsed at all.
var ErrBadPayload = errors.New("malformed invoice payload")

// PaymentService is the intake boundary for the platform's Stars payments:
// it issues invoices and turns successful-payment events into balance
// top-ups or fulfillment runs.
type PaymentService interface {
	CreateDepositInvoice(ctx context.Context, userID int64, amountStars int64) error
	CreatePurchaseInvoice(ctx context.Context, userID int64, item model.MarketItem, recipient, cardMsg string) error
	// HandleSuccessfulPayment dispatches on the invoice payload the
	// platform echoes back. payerID is the authenticated payer; chargeID
	// identifies the payment so a redelivered update is a no-op.
	HandleSuccessfulPayment(ctx context.Context, payerID int64, chargeID, payload string) error
	AnswerPreCheckout(ctx context.Context, queryID string) error
	// ListCurrentListings uses the configured default when limit <= 0.
	ListCurrentListings(ctx context.Context, collection string, limit int) ([]model.MarketItem, error)
}

type paymentServiceImpl struct {
	accountRepo      repository.AccountRepository
	paymentEventRepo repository.PaymentEventRepository
	fulfillment      FulfillmentService
	market           client.MarketClient
	telegram         client.TelegramClient
	listingLimit     int
	logger           zerolog.Logger
}

func NewPaymentService(
	accountRepo repository.AccountRepository,
	paymentEventRepo repository.PaymentEventRepository,
	fulfillment FulfillmentService,
	market client.MarketClient,
	telegram client.TelegramClient,
	listingLimit int,
	logger zerolog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		accountRepo:      accountRepo,
		paymentEventRepo: paymentEventRepo,
		fulfillment:      fulfillment,
		market:           market,
		telegram:         telegram,
		listingLimit:     listingLimit,
		logger:           logger,
	}
}

func (s *paymentServiceImpl) CreateDepositInvoice(ctx context.Context, userID int64, amountStars int64) error {
	if amountStars <= 0 {
		return fmt.Errorf("deposit amount must be positive, got %d", amountStars)
	}

	payload := fmt.Sprintf("%s:%d", payloadKindDeposit, amountStars)
	return s.telegram.SendInvoice(ctx, userID,
		botBrand+" top-up",
		fmt.Sprintf("Balance top-up for auto-buy. Amount: %d⭐️", amountStars),
		payload,
		amountStars,
	)
}

func (s *paymentServiceImpl) CreatePurchaseInvoice(ctx context.Context, userID int64, item model.MarketItem, recipient, cardMsg string) error {
	if item.PriceStars <= 0 {
		return fmt.Errorf("item price must be positive, got %d", item.PriceStars)
	}
	if cardMsg == "" {
		cardMsg = DefaultCardMsg
	}

	// The card message slot cannot carry the separator; only the final
	// recipient field may contain one.
	cardMsg = strings.ReplaceAll(cardMsg, ":", " ")

	payload := fmt.Sprintf("%s:%s:%d:%d:%s:%s",
		payloadKindManual, item.ItemID, item.PriceStars, userID, cardMsg, recipient)
	return s.telegram.SendInvoice(ctx, userID,
		"NFT purchase — "+botBrand,
		fmt.Sprintf("Listing %s. Paid items are bought on the market and delivered to the recipient.", item.ItemID),
		payload,
		item.PriceStars,
	)
}

func (s *paymentServiceImpl) HandleSuccessfulPayment(ctx context.Context, payerID int64, chargeID, payload string) error {
	// The platform redelivers updates it got no 2xx for, including ones we
	// fully processed but whose response was lost. A charge is handled at
	// most once.
	if chargeID != "" {
		seen, err := s.paymentEventRepo.Exists(ctx, chargeID)
		if err != nil {
			return fmt.Errorf("check payment charge: %w", err)
		}
		if seen {
			s.logger.Info().Str("charge_id", chargeID).Msg("duplicate payment delivery skipped")
			return nil
		}
	}

	var kind string
	var err error
	switch {
	case strings.HasPrefix(payload, payloadKindDeposit+":"):
		kind = payloadKindDeposit
		err = s.handleDeposit(ctx, payerID, payload)
	case strings.HasPrefix(payload, payloadKindManual+":"):
		kind = payloadKindManual
		err = s.handleManual(ctx, payerID, payload)
	default:
		return fmt.Errorf("%w: unknown kind in %q", ErrBadPayload, payload)
	}
	if err != nil {
		return err
	}

	// The ledger mutation is durable at this point; a failure to record the
	// charge must not turn into a retried (and re-applied) payment.
	if chargeID != "" {
		if err := s.paymentEventRepo.MarkProcessed(ctx, chargeID, kind); err != nil {
			s.logger.Error().Err(err).Str("charge_id", chargeID).Msg("record payment charge failed")
		}
	}
	return nil
}

func (s *paymentServiceImpl) AnswerPreCheckout(ctx context.Context, queryID string) error {
	return s.telegram.AnswerPreCheckoutQuery(ctx, queryID)
}

func (s *paymentServiceImpl) ListCurrentListings(ctx context.Context, collection string, limit int) ([]model.MarketItem, error) {
	if limit <= 0 {
		limit = s.listingLimit
	}
	return s.market.ListCurrent(ctx, collection, limit)
}

func (s *paymentServiceImpl) handleDeposit(ctx context.Context, payerID int64, payload string) error {
	raw := strings.TrimPrefix(payload, payloadKindDeposit+":")
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("%w: deposit amount %q", ErrBadPayload, raw)
	}

	if err := s.accountRepo.Credit(ctx, payerID, amount); err != nil {
		return fmt.Errorf("credit deposit: %w", err)
	}

	// The credit is durable; anything past it is cosmetic and must not
	// surface an error the platform would answer with a redelivery.
	balance, err := s.accountRepo.Balance(ctx, payerID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", payerID).Msg("read balance after deposit")
		s.notify(ctx, payerID, fmt.Sprintf("💰 Deposited %d⭐️.", amount))
		return nil
	}

	s.notify(ctx, payerID, fmt.Sprintf("💰 Deposited %d⭐️. Balance: %d⭐️", amount, balance))
	return nil
}

// handleManual runs a prepaid purchase. Payload layout:
// manual:<item_id>:<price>:<user_id>:<card_msg>:<recipient>
func (s *paymentServiceImpl) handleManual(ctx context.Context, payerID int64, payload string) error {
	parts := strings.SplitN(payload, ":", 6)
	if len(parts) != 6 {
		return fmt.Errorf("%w: %q", ErrBadPayload, payload)
	}
	itemID := parts[1]
	price, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || price <= 0 {
		return fmt.Errorf("%w: price %q", ErrBadPayload, parts[2])
	}
	userID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user id %q", ErrBadPayload, parts[3])
	}
	cardMsg := parts[4]
	recipient := parts[5]

	// Fail closed before any ledger mutation.
	if userID != payerID {
		s.notify(ctx, payerID, "Payment received from someone other than the order owner.")
		return fmt.Errorf("%w: embedded %d, payer %d", ErrPayloadIntegrity, userID, payerID)
	}

	collection := itemID
	if idx := strings.Index(itemID, "-#"); idx > 0 {
		collection = itemID[:idx]
	}

	s.notify(ctx, payerID, "Payment received. Buying on the market…")

	order, err := s.fulfillment.Fulfill(ctx, &FulfillmentRequest{
		UserID: userID,
		Item: model.MarketItem{
			ItemID:     itemID,
			Collection: collection,
			Title:      itemID,
			PriceStars: price,
		},
		Recipient: recipient,
		CardMsg:   cardMsg,
	})
	if err != nil {
		return fmt.Errorf("fulfill manual purchase: %w", err)
	}

	switch order.Status {
	case model.OrderStatusSent:
		s.notify(ctx, payerID, fmt.Sprintf("✅ Done! The NFT was delivered to the recipient.\nTransaction: %s", order.TxID))
	case model.OrderStatusBought:
		s.notify(ctx, payerID, "⚠️ Bought, but automatic delivery failed. We will retry later.")
	case model.OrderStatusFailed:
		s.notify(ctx, payerID, "❌ Could not buy the listing (it may be gone). The amount was credited to your balance.")
	}
	return nil
}

// notify is best-effort; a messaging failure never fails the payment flow.
func (s *paymentServiceImpl) notify(ctx context.Context, userID int64, text string) {
	if err := s.telegram.SendMessage(ctx, userID, text); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("notify failed")
	}
}
