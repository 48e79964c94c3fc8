package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stargifty/internal/model"
)

// marketStub is the demo marketplace used when MARKET_BASE_API_URL is not
// set. It serves a fixed ladder of listings per collection and always
// confirms buys and transfers.
type marketStub struct{}

func newMarketStub() *marketStub {
	return &marketStub{}
}

func (s *marketStub) ListCurrent(_ context.Context, collection string, limit int) ([]model.MarketItem, error) {
	items := make([]model.MarketItem, 0, 5)
	for i := 1; i <= 5; i++ {
		items = append(items, model.MarketItem{
			ItemID:     fmt.Sprintf("%s-#%d", collection, i),
			Collection: collection,
			Title:      fmt.Sprintf("%s NFT #%d", strings.ToUpper(collection), i),
			PriceStars: int64(100 + 25*i),
		})
	}
	if limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (s *marketStub) ListNewMatching(ctx context.Context, collection string, maxPriceStars int64) ([]model.MarketItem, error) {
	items, err := s.ListCurrent(ctx, collection, 3)
	if err != nil {
		return nil, err
	}
	matching := items[:0]
	for _, item := range items {
		if item.PriceStars <= maxPriceStars {
			matching = append(matching, item)
		}
	}
	return matching, nil
}

func (s *marketStub) Buy(ctx context.Context, item model.MarketItem) (string, error) {
	if err := sleepCtx(ctx, 200*time.Millisecond); err != nil {
		return "", err
	}
	return "deal-" + uuid.NewString(), nil
}

func (s *marketStub) Transfer(ctx context.Context, item model.MarketItem, recipient, cardMsg string) (string, error) {
	if err := sleepCtx(ctx, 300*time.Millisecond); err != nil {
		return "", err
	}
	return "tx-" + uuid.NewString(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
