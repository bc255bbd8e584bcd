package db

import (
	"context"

	"lockerbox/models"

	"gorm.io/gorm"
)

// Lockers (the registry)

// ListAvailability returns, for each size class, the count of free lockers
// and the fixed 24h price. Sizes with zero free lockers are included.
func (r *Repo) ListAvailability(ctx context.Context) ([]models.Availability, error) {
	out := make([]models.Availability, 0, len(models.Sizes))
	for _, size := range models.Sizes {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&models.Locker{}).
			Where("size = ? AND status = ?", size, models.LockerFree).
			Count(&n).Error; err != nil {
			return nil, err
		}
		out = append(out, models.Availability{
			Size:           size,
			AvailableCount: n,
			PricePer24h:    models.LockerPrices[size],
		})
	}
	return out, nil
}

// TryReserve atomically claims one free locker of the given size and returns
// its number, or ErrNoAvailability. Safe to call from many activations at
// once: the claim itself is a guarded update, so two callers can never take
// the same locker.
func (r *Repo) TryReserve(ctx context.Context, size models.LockerSize) (int, error) {
	var number int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := tryReserveTx(tx, size)
		if err != nil {
			return err
		}
		number = n
		return nil
	})
	return number, err
}

// tryReserveTx is the claim inside an already-open transaction.
// 先挑一个候选，再用 guarded update 抢占；抢不到就换下一个候选。
func tryReserveTx(tx *gorm.DB, size models.LockerSize) (int, error) {
	for attempt := 0; attempt < 10; attempt++ {
		var candidate models.Locker
		err := tx.Where("size = ? AND status = ?", size, models.LockerFree).
			Order("number").
			First(&candidate).Error
		if err == gorm.ErrRecordNotFound {
			return 0, ErrNoAvailability
		}
		if err != nil {
			return 0, err
		}

		res := tx.Model(&models.Locker{}).
			Where("number = ? AND status = ?", candidate.Number, models.LockerFree).
			Update("status", models.LockerOccupied)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 1 {
			return candidate.Number, nil
		}
		// raced by another activation, pick again
	}
	return 0, ErrNoAvailability
}

// Release marks a locker free. Idempotent: the sweeper, opportunistic expiry
// at unlock time and manual cancellation may race, and releasing an
// already-free locker is a no-op.
func (r *Repo) Release(ctx context.Context, number int) error {
	return releaseTx(r.DB.WithContext(ctx), number)
}

func releaseTx(tx *gorm.DB, number int) error {
	return tx.Model(&models.Locker{}).
		Where("number = ?", number).
		Update("status", models.LockerFree).Error
}

// ListLockers returns the whole bank, for the operator console.
func (r *Repo) ListLockers(ctx context.Context) ([]models.Locker, error) {
	var lockers []models.Locker
	err := r.DB.WithContext(ctx).Order("number").Find(&lockers).Error
	return lockers, err
}
