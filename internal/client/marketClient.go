package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stargifty/internal/config"
	"stargifty/internal/model"
)

// MarketClient is the gateway to the external collectible marketplace.
// Every call may be slow and may fail independently of prior calls: a
// successful Buy gives no guarantee the following Transfer succeeds.
type MarketClient interface {
	// ListCurrent returns up to limit listings currently for sale in a collection.
	ListCurrent(ctx context.Context, collection string, limit int) ([]model.MarketItem, error)
	// ListNewMatching returns fresh listings priced at or below maxPriceStars.
	// De-duplication across polls is the marketplace's responsibility; every
	// returned item is treated as a fresh purchase candidate.
	ListNewMatching(ctx context.Context, collection string, maxPriceStars int64) ([]model.MarketItem, error)
	// Buy purchases the item and returns the marketplace deal id.
	Buy(ctx context.Context, item model.MarketItem) (string, error)
	// Transfer delivers a bought item to the recipient with a gift-card message.
	Transfer(ctx context.Context, item model.MarketItem, recipient, cardMsg string) (string, error)
}

type marketClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
}

// NewMarketClient returns the HTTP gateway, or the built-in demo market
// when no base URL is configured.
func NewMarketClient(marketCfg *config.Market) MarketClient {
	if marketCfg.BaseApiURL == "" {
		return newMarketStub()
	}
	return &marketClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: marketCfg.BaseApiURL,
		apiKey:     marketCfg.ApiKey,
	}
}

func (c *marketClientImpl) ListCurrent(ctx context.Context, collection string, limit int) ([]model.MarketItem, error) {
	endpoint := fmt.Sprintf("%s/v1/collections/%s/listings?limit=%d",
		c.baseApiURL, url.PathEscape(collection), limit)

	var res struct {
		Items []model.MarketItem `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &res); err != nil {
		return nil, fmt.Errorf("market list current: %w", err)
	}
	return res.Items, nil
}

func (c *marketClientImpl) ListNewMatching(ctx context.Context, collection string, maxPriceStars int64) ([]model.MarketItem, error) {
	endpoint := fmt.Sprintf("%s/v1/collections/%s/listings/new?max_price=%d",
		c.baseApiURL, url.PathEscape(collection), maxPriceStars)

	var res struct {
		Items []model.MarketItem `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &res); err != nil {
		return nil, fmt.Errorf("market list new: %w", err)
	}
	return res.Items, nil
}

func (c *marketClientImpl) Buy(ctx context.Context, item model.MarketItem) (string, error) {
	payload := map[string]interface{}{
		"item_id":     item.ItemID,
		"price_stars": item.PriceStars,
	}

	var res struct {
		DealID string `json:"deal_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseApiURL+"/v1/deals", payload, &res); err != nil {
		return "", fmt.Errorf("market buy %s: %w", item.ItemID, err)
	}
	return res.DealID, nil
}

func (c *marketClientImpl) Transfer(ctx context.Context, item model.MarketItem, recipient, cardMsg string) (string, error) {
	payload := map[string]interface{}{
		"item_id":   item.ItemID,
		"recipient": recipient,
		"card_msg":  cardMsg,
	}

	var res struct {
		TxID string `json:"tx_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseApiURL+"/v1/transfers", payload, &res); err != nil {
		return "", fmt.Errorf("market transfer %s: %w", item.ItemID, err)
	}
	return res.TxID, nil
}

func (c *marketClientImpl) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("market api status %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode market response: %w", err)
	}
	return nil
}
