package models

import "time"

// UnlockLog records every unlock attempt against a terminal, granted or not.
// Denials keep the generic reason we also sent to the caller, so the audit
// trail never leaks more than the kiosk did.
type UnlockLog struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	LockerNumber int       `gorm:"index;not null" json:"locker_number"`
	RentalID     *string   `gorm:"type:uuid" json:"rental_id,omitempty"`
	Granted      bool      `gorm:"not null" json:"granted"`
	Reason       string    `gorm:"size:100" json:"reason,omitempty"`
	ClientIP     string    `gorm:"size:45" json:"client_ip,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (UnlockLog) TableName() string { return "lkb_unlock_log" }
