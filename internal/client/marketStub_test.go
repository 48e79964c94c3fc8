package client

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"stargifty/internal/config"
)

func TestNewMarketClient_SelectsStubWithoutBaseURL(t *testing.T) {
	c := NewMarketClient(&config.Market{})
	_, ok := c.(*marketStub)
	require.True(t, ok)

	c = NewMarketClient(&config.Market{BaseApiURL: "https://market.example"})
	_, ok = c.(*marketClientImpl)
	require.True(t, ok)
}

func TestMarketStub_ListCurrentHonorsLimit(t *testing.T) {
	stub := newMarketStub()

	items, err := stub.ListCurrent(context.Background(), "gift-cards", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "gift-cards-#1", items[0].ItemID)
	require.Equal(t, "gift-cards", items[0].Collection)
}

func TestMarketStub_ListNewMatchingFiltersByPrice(t *testing.T) {
	stub := newMarketStub()

	// stub ladder starts at 125⭐️ in steps of 25
	items, err := stub.ListNewMatching(context.Background(), "gift-cards", 150)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.LessOrEqual(t, item.PriceStars, int64(150))
	}
}

func TestMarketStub_BuyAndTransferReturnIDs(t *testing.T) {
	stub := newMarketStub()
	ctx := context.Background()

	items, err := stub.ListCurrent(ctx, "gift-cards", 1)
	require.NoError(t, err)

	dealID, err := stub.Buy(ctx, items[0])
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dealID, "deal-"))

	txID, err := stub.Transfer(ctx, items[0], "@friend", "enjoy")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(txID, "tx-"))
}
