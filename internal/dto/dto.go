package dto

type DepositRequest struct {
	AmountStars int64 `json:"amount_stars"`
}

type PurchaseRequest struct {
	ItemID     string `json:"item_id"`
	PriceStars int64  `json:"price_stars"`
	Recipient  string `json:"recipient"`
	CardMsg    string `json:"card_msg"`
}

type SubscriptionRequest struct {
	Collection    string `json:"collection"`
	MaxPriceStars int64  `json:"max_price_stars"`
	Recipient     string `json:"recipient"`
	CardMsg       string `json:"card_msg"`
}

type ToggleSubscriptionRequest struct {
	Active bool `json:"active"`
}

type WalletResponse struct {
	BalanceStars int64 `json:"balance_stars"`
}

type InvoiceIssuedResponse struct {
	Status string `json:"status"`
}
