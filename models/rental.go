package models

import "time"

const RentalTable = "lkb_rentals"

type RentalState string

const (
	// RentalPending: created, waiting for the gateway. No locker bound yet,
	// so an abandoned checkout never occupies a locker.
	RentalPending RentalState = "pending_payment"
	// RentalActive: paid, locker bound, PIN issued.
	RentalActive RentalState = "active"
	// RentalUnlocked: opened at least once, still inside its window.
	RentalUnlocked RentalState = "unlocked"
	// RentalExpired: window elapsed, locker released. Terminal.
	RentalExpired RentalState = "expired"
	// RentalCancelled: payment failed, or the pool was exhausted between
	// creation and confirmation. Terminal.
	RentalCancelled RentalState = "cancelled"
)

// Live reports whether the rental currently holds its locker.
func (s RentalState) Live() bool { return s == RentalActive || s == RentalUnlocked }

// Rental binds one paid request to at most one locker for a bounded window.
// LockerNumber and AccessPin stay empty until activation.
type Rental struct {
	ID           string      `gorm:"type:uuid;primaryKey" json:"id"`
	Size         LockerSize  `gorm:"size:10;not null" json:"size"`
	State        RentalState `gorm:"size:20;not null;index" json:"state"`
	LockerNumber *int        `gorm:"index" json:"locker_number,omitempty"`
	PaymentRef   string      `gorm:"size:255;uniqueIndex" json:"payment_ref"`
	AccessPin    string      `gorm:"size:12" json:"-"`
	Amount       float64     `gorm:"not null" json:"amount"`
	Currency     string      `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	StartTime    *time.Time  `json:"start_time,omitempty"`
	EndTime      *time.Time  `gorm:"index" json:"end_time,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Rental) TableName() string { return RentalTable }
