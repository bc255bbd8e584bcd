package models

import "time"

const PaymentTransactionTable = "lkb_payment_transactions"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentTransaction is the ledger row per checkout session. Kept even for
// cancelled rentals so an allocation race can be refunded by hand.
type PaymentTransaction struct {
	ID        string        `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID string        `gorm:"size:255;uniqueIndex;not null" json:"session_id"`
	RentalID  string        `gorm:"type:uuid;index;not null" json:"rental_id"`
	Amount    float64       `gorm:"not null" json:"amount"`
	Currency  string        `gorm:"size:3;not null" json:"currency"`
	Status    PaymentStatus `gorm:"size:10;not null" json:"status"`
	Note      string        `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (PaymentTransaction) TableName() string { return PaymentTransactionTable }
