package models

import "time"

const LockerTable = "lkb_lockers"

type LockerSize string

const (
	SizeSmall  LockerSize = "small"
	SizeMedium LockerSize = "medium"
	SizeLarge  LockerSize = "large"
)

type LockerStatus string

const (
	LockerFree     LockerStatus = "free"
	LockerOccupied LockerStatus = "occupied"
)

// LockerPrices is the fixed price per 24h rental window, in EUR.
var LockerPrices = map[LockerSize]float64{
	SizeSmall:  2.0,
	SizeMedium: 3.0,
	SizeLarge:  5.0,
}

// Sizes in display order.
var Sizes = []LockerSize{SizeSmall, SizeMedium, SizeLarge}

func ValidSize(s LockerSize) bool {
	_, ok := LockerPrices[s]
	return ok
}

// Locker is one physical unit. Number is the stable physical identifier
// (also what the relay board is addressed by), size is fixed at provisioning.
type Locker struct {
	Number    int          `gorm:"primaryKey" json:"number"`
	Size      LockerSize   `gorm:"size:10;not null;index" json:"size"`
	Status    LockerStatus `gorm:"size:10;not null;default:'free'" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Locker) TableName() string { return LockerTable }

// Availability is the per-size summary shown on the kiosk home screen.
type Availability struct {
	Size           LockerSize `json:"size"`
	AvailableCount int64      `json:"available_count"`
	PricePer24h    float64    `json:"price_per_24h"`
}
