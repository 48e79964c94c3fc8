package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"stargifty/internal/client"
	"stargifty/internal/model"
	"stargifty/internal/repository"
)

const testCallTimeout = 2 * time.Second

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return client.InitSqliteClient(filepath.Join(t.TempDir(), "test.db"))
}

// fakeMarket scripts every failure mode of the gateway.
type fakeMarket struct {
	newItems     map[string][]model.MarketItem // keyed by collection
	currentItems []model.MarketItem
	listErr      error
	buyErr       error
	transferErr  error

	listCalls        int
	buyCalls         int
	transferCalls    int
	lastCurrentLimit int
}

func (m *fakeMarket) ListCurrent(_ context.Context, _ string, limit int) ([]model.MarketItem, error) {
	m.lastCurrentLimit = limit
	return m.currentItems, m.listErr
}

func (m *fakeMarket) ListNewMatching(_ context.Context, collection string, maxPriceStars int64) ([]model.MarketItem, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var matching []model.MarketItem
	for _, item := range m.newItems[collection] {
		if item.PriceStars <= maxPriceStars {
			matching = append(matching, item)
		}
	}
	return matching, nil
}

func (m *fakeMarket) Buy(_ context.Context, item model.MarketItem) (string, error) {
	m.buyCalls++
	if m.buyErr != nil {
		return "", m.buyErr
	}
	return "deal-" + item.ItemID, nil
}

func (m *fakeMarket) Transfer(_ context.Context, item model.MarketItem, _, _ string) (string, error) {
	m.transferCalls++
	if m.transferErr != nil {
		return "", m.transferErr
	}
	return "tx-" + item.ItemID, nil
}

// fakeTelegram records outgoing traffic.
type fakeTelegram struct {
	messages []sentMessage
	invoices []sentInvoice
	sendErr  error
}

type sentMessage struct {
	ChatID int64
	Text   string
}

type sentInvoice struct {
	ChatID      int64
	Payload     string
	AmountStars int64
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTelegram) SendInvoice(_ context.Context, chatID int64, _, _, payload string, amountStars int64) error {
	f.invoices = append(f.invoices, sentInvoice{ChatID: chatID, Payload: payload, AmountStars: amountStars})
	return nil
}

func (f *fakeTelegram) AnswerPreCheckoutQuery(_ context.Context, _ string) error {
	return nil
}

var errGatewayDown = errors.New("gateway unavailable")

const testListingLimit = 10

type testEnv struct {
	accountRepo      repository.AccountRepository
	subRepo          repository.SubscriptionRepository
	orderRepo        repository.OrderRepository
	paymentEventRepo repository.PaymentEventRepository
	market           *fakeMarket
	telegram         *fakeTelegram
	fulfillment      FulfillmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	env := &testEnv{
		accountRepo:      repository.NewAccountRepository(db),
		subRepo:          repository.NewSubscriptionRepository(db),
		orderRepo:        repository.NewOrderRepository(db),
		paymentEventRepo: repository.NewPaymentEventRepository(db),
		market:           &fakeMarket{newItems: map[string][]model.MarketItem{}},
		telegram:         &fakeTelegram{},
	}
	env.fulfillment = NewFulfillmentService(
		env.accountRepo, env.orderRepo, env.market, testCallTimeout, zerolog.Nop())
	return env
}

func (e *testEnv) newSniper() *Sniper {
	return NewSniper(
		e.accountRepo, e.subRepo, e.fulfillment, e.market, e.telegram,
		time.Second, testCallTimeout, zerolog.Nop())
}

func (e *testEnv) newPaymentService() PaymentService {
	return NewPaymentService(
		e.accountRepo, e.paymentEventRepo, e.fulfillment, e.market, e.telegram,
		testListingLimit, zerolog.Nop())
}

// flakyAccountRepo fails a scripted number of Balance reads, leaving the
// underlying writes untouched.
type flakyAccountRepo struct {
	repository.AccountRepository
	balanceFails int
}

func (r *flakyAccountRepo) Balance(ctx context.Context, userID int64) (int64, error) {
	if r.balanceFails > 0 {
		r.balanceFails--
		return 0, errGatewayDown
	}
	return r.AccountRepository.Balance(ctx, userID)
}

// flakyOrderRepo fails a scripted number of MarkSent writes.
type flakyOrderRepo struct {
	repository.OrderRepository
	markSentFails int
}

func (r *flakyOrderRepo) MarkSent(ctx context.Context, orderID uint, txID string) error {
	if r.markSentFails > 0 {
		r.markSentFails--
		return errGatewayDown
	}
	return r.OrderRepository.MarkSent(ctx, orderID, txID)
}

func testItem(collection string, price int64) model.MarketItem {
	return model.MarketItem{
		ItemID:     collection + "-#1",
		Collection: collection,
		Title:      collection + " NFT #1",
		PriceStars: price,
	}
}
