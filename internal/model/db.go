package model

import "time"

// Order status lifecycle: created → paid → {failed | bought}; bought → sent.
// sent and failed are terminal and never mutated again.
const (
	OrderStatusCreated = "created"
	OrderStatusPaid    = "paid"
	OrderStatusBought  = "bought" // purchased on the market, delivery pending
	OrderStatusSent    = "sent"
	OrderStatusFailed  = "failed"
)

type Account struct {
	UserID       int64 `gorm:"primaryKey;not null"` // platform user id
	BalanceStars int64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Subscription struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        int64  `gorm:"index;not null"`
	Collection    string `gorm:"size:64;index;not null"`
	MaxPriceStars int64  `gorm:"not null"`
	Recipient     string `gorm:"size:128;not null"` // @username or TON address
	CardMsg       string `gorm:"size:512;not null"`
	Active        bool   `gorm:"index;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentEvent records every processed payment charge so a redelivered
// webhook update can never credit or buy twice.
type PaymentEvent struct {
	ChargeID    string `gorm:"primaryKey;size:128;not null"` // platform payment charge id
	Kind        string `gorm:"size:16;index"`                // deposit or manual
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type Order struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     int64  `gorm:"index;not null"`
	ItemID     string `gorm:"size:64;not null"`
	Collection string `gorm:"size:64;index;not null"`
	PriceStars int64  `gorm:"not null"`
	Recipient  string `gorm:"size:128;not null"`
	CardMsg    string `gorm:"size:512;not null"`
	Status     string `gorm:"size:16;index;not null"`
	TxID       string `gorm:"size:128"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
