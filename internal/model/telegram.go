package model

// Incoming webhook shapes, reduced to the fields the payment intake reads.

type TelegramUpdate struct {
	UpdateID         int64             `json:"update_id"`
	Message          *TelegramMessage  `json:"message,omitempty"`
	PreCheckoutQuery *PreCheckoutQuery `json:"pre_checkout_query,omitempty"`
}

type TelegramMessage struct {
	From              *TelegramUser      `json:"from,omitempty"`
	SuccessfulPayment *SuccessfulPayment `json:"successful_payment,omitempty"`
}

type TelegramUser struct {
	ID int64 `json:"id"`
}

type SuccessfulPayment struct {
	Currency                string `json:"currency"`
	TotalAmount             int64  `json:"total_amount"`
	InvoicePayload          string `json:"invoice_payload"`
	TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
}

type PreCheckoutQuery struct {
	ID   string        `json:"id"`
	From *TelegramUser `json:"from,omitempty"`
}
