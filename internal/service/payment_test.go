package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"stargifty/internal/model"
)

func TestPayment_DepositCreditsPayer(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newPaymentService()
	ctx := context.Background()

	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-dep-1", "deposit:300"))

	balance, err := env.accountRepo.Balance(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(300), balance)

	require.Len(t, env.telegram.messages, 1)
	require.Contains(t, env.telegram.messages[0].Text, "300")
}

func TestPayment_ManualPurchaseFulfills(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newPaymentService()
	ctx := context.Background()

	payload := fmt.Sprintf("manual:gift-cards-#3:150:%d:happy birthday:@friend", 42)
	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-man-1", payload))

	orders, err := env.orderRepo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, model.OrderStatusSent, orders[0].Status)
	require.Equal(t, "gift-cards", orders[0].Collection)
	require.Equal(t, int64(150), orders[0].PriceStars)
	require.Equal(t, "@friend", orders[0].Recipient)
}

// A payload whose embedded user id is not the payer is rejected before any
// ledger mutation.
func TestPayment_ManualPurchasePayerMismatch(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newPaymentService()
	ctx := context.Background()

	require.NoError(t, env.accountRepo.Credit(ctx, 42, 500))

	payload := "manual:gift-cards-#3:150:42:card:@friend"
	err := svc.HandleSuccessfulPayment(ctx, 999, "ch-man-2", payload)
	require.ErrorIs(t, err, ErrPayloadIntegrity)

	orders, err := env.orderRepo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Zero(t, env.market.buyCalls)

	balance, err := env.accountRepo.Balance(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(500), balance)
}

func TestPayment_MalformedPayloads(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newPaymentService()
	ctx := context.Background()

	for _, payload := range []string{
		"",
		"refund:100",
		"deposit:abc",
		"deposit:-5",
		"manual:item:150:42",
		"manual:item:notaprice:42:card:@friend",
	} {
		require.ErrorIs(t, svc.HandleSuccessfulPayment(ctx, 42, "", payload), ErrBadPayload, payload)
	}

	balance, err := env.accountRepo.Balance(ctx, 42)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestPayment_PurchaseInvoicePayloadRoundTrips(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newPaymentService()
	ctx := context.Background()

	item := testItem("gift-cards", 150)
	require.NoError(t, svc.CreatePurchaseInvoice(ctx, 42, item, "@friend", ""))

	require.Len(t, env.telegram.invoices, 1)
	invoice := env.telegram.invoices[0]
	require.Equal(t, int64(150), invoice.AmountStars)

	// the payload the platform echoes back must parse and fulfill
	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-man-3", invoice.Payload))

	orders, err := env.orderRepo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, DefaultCardMsg, orders[0].CardMsg)
}

// A redelivered update carrying an already-processed charge id must not
// touch the ledger again.
func TestPayment_DuplicateDeliveryCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newPaymentService()
	ctx := context.Background()

	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-dup-1", "deposit:300"))
	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-dup-1", "deposit:300"))

	balance, err := env.accountRepo.Balance(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(300), balance)
}

// Once the credit is durable, a storage hiccup on the follow-up balance
// read must not surface an error: the platform would redeliver and the
// deposit would be applied twice.
func TestPayment_DepositAckedAfterDurableCredit(t *testing.T) {
	env := newTestEnv(t)
	flaky := &flakyAccountRepo{AccountRepository: env.accountRepo, balanceFails: 1}
	svc := NewPaymentService(
		flaky, env.paymentEventRepo, env.fulfillment, env.market, env.telegram,
		testListingLimit, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-flaky-1", "deposit:300"))

	// simulate the platform redelivering the same charge anyway
	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-flaky-1", "deposit:300"))

	balance, err := env.accountRepo.Balance(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(300), balance)
}

func TestPayment_ListingsDefaultLimit(t *testing.T) {
	env := newTestEnv(t)
	env.market.currentItems = []model.MarketItem{testItem("gift-cards", 150)}
	svc := env.newPaymentService()
	ctx := context.Background()

	_, err := svc.ListCurrentListings(ctx, "gift-cards", 0)
	require.NoError(t, err)
	require.Equal(t, testListingLimit, env.market.lastCurrentLimit)

	_, err = svc.ListCurrentListings(ctx, "gift-cards", 3)
	require.NoError(t, err)
	require.Equal(t, 3, env.market.lastCurrentLimit)
}

// Notification failures never fail the payment flow.
func TestPayment_DepositSurvivesNotifyFailure(t *testing.T) {
	env := newTestEnv(t)
	env.telegram.sendErr = errGatewayDown
	svc := env.newPaymentService()
	ctx := context.Background()

	require.NoError(t, svc.HandleSuccessfulPayment(ctx, 42, "ch-dep-2", "deposit:100"))

	balance, err := env.accountRepo.Balance(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}
