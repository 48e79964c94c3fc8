package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stargifty/internal/config"
)

const starsCurrency = "XTR"

// TelegramClient covers the slice of the Bot API this service needs:
// notifying users, issuing Stars invoices and approving checkouts.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendInvoice issues a Stars (XTR) invoice; the payload comes back
	// verbatim in the successful-payment update.
	SendInvoice(ctx context.Context, chatID int64, title, description, payload string, amountStars int64) error
	AnswerPreCheckoutQuery(ctx context.Context, queryID string) error
}

type telegramClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	botToken   string
}

func NewTelegramClient(tgCfg *config.Telegram) TelegramClient {
	return &telegramClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: tgCfg.BaseApiURL,
		botToken:   tgCfg.BotToken,
	}
}

func (c *telegramClientImpl) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	return c.call(ctx, "sendMessage", payload)
}

func (c *telegramClientImpl) SendInvoice(ctx context.Context, chatID int64, title, description, payload string, amountStars int64) error {
	body := map[string]interface{}{
		"chat_id":     chatID,
		"title":       title,
		"description": description,
		"payload":     payload,
		// Stars invoices carry no provider token
		"provider_token": "",
		"currency":       starsCurrency,
		"prices": []map[string]interface{}{
			{"label": "Stars", "amount": amountStars},
		},
	}
	return c.call(ctx, "sendInvoice", body)
}

func (c *telegramClientImpl) AnswerPreCheckoutQuery(ctx context.Context, queryID string) error {
	payload := map[string]interface{}{
		"pre_checkout_query_id": queryID,
		"ok":                    true,
	}
	return c.call(ctx, "answerPreCheckoutQuery", payload)
}

func (c *telegramClientImpl) call(ctx context.Context, method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseApiURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var res struct {
		Ok          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("decode telegram response (%s): %w", string(raw), err)
	}
	if !res.Ok {
		return fmt.Errorf("telegram %s: %s", method, res.Description)
	}
	return nil
}
