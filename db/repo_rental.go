package db

import (
	"context"
	"errors"
	"time"

	"lockerbox/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rentals (the ledger). State machine:
// pending_payment -> active -> unlocked -> expired
// pending_payment -> cancelled (payment failed or pool exhausted)
// active -> expired (never unlocked before end_time)

// CreateRental opens a pending rental for the requested size. No locker is
// bound yet: binding happens at confirmation, so an abandoned checkout never
// occupies a locker. The returned rental carries a provisional payment ref;
// AttachPaymentSession swaps it for the gateway session id.
func (r *Repo) CreateRental(ctx context.Context, size models.LockerSize) (*models.Rental, error) {
	if !models.ValidSize(size) {
		return nil, ErrInvalidSize
	}

	// 只是预检：真正的防双订在 confirm 里的 guarded update
	var free int64
	if err := r.DB.WithContext(ctx).Model(&models.Locker{}).
		Where("size = ? AND status = ?", size, models.LockerFree).
		Count(&free).Error; err != nil {
		return nil, err
	}
	if free == 0 {
		return nil, ErrNoAvailability
	}

	rental := &models.Rental{
		ID:         uuid.NewString(),
		Size:       size,
		State:      models.RentalPending,
		PaymentRef: uuid.NewString(),
		Amount:     models.LockerPrices[size],
		Currency:   "EUR",
	}
	if err := r.DB.WithContext(ctx).Create(rental).Error; err != nil {
		return nil, err
	}
	return rental, nil
}

// AttachPaymentSession binds the gateway checkout session to the rental and
// opens its transaction record. payment_ref becomes the session id, which is
// also what the polling UI keys on.
func (r *Repo) AttachPaymentSession(ctx context.Context, rentalID, sessionID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Rental{}).
			Where("id = ? AND state = ?", rentalID, models.RentalPending).
			Update("payment_ref", sessionID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var rental models.Rental
		if err := tx.First(&rental, "id = ?", rentalID).Error; err != nil {
			return err
		}
		txn := &models.PaymentTransaction{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			RentalID:  rentalID,
			Amount:    rental.Amount,
			Currency:  rental.Currency,
			Status:    models.PaymentPending,
		}
		return tx.Create(txn).Error
	})
}

// FindRentalByRef looks a rental up by payment ref. Safe to call repeatedly
// while pending; this backs the status-polling endpoint.
func (r *Repo) FindRentalByRef(ctx context.Context, paymentRef string) (*models.Rental, error) {
	var rental models.Rental
	err := r.DB.WithContext(ctx).First(&rental, "payment_ref = ?", paymentRef).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// ConfirmPayment activates the rental for a paid session: binds a concrete
// locker, issues the PIN, stamps the 24h window. Idempotent — confirming an
// already-active rental returns it unchanged. If the pool was exhausted
// between creation and confirmation the rental is cancelled and
// ErrAllocationRace is returned for refund handling.
func (r *Repo) ConfirmPayment(ctx context.Context, paymentRef string, now time.Time, window time.Duration) (*models.Rental, error) {
	var rental models.Rental
	var raceErr error // reported after commit so the cancellation sticks
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rental, "payment_ref = ?", paymentRef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Duplicate confirmation (webhook + polling) is success, not error.
		if rental.State != models.RentalPending {
			return nil
		}

		number, err := tryReserveTx(tx, rental.Size)
		if errors.Is(err, ErrNoAvailability) {
			// 付了钱但柜子被别的租约抢光了：取消并留痕，等人工退款
			res := tx.Model(&models.Rental{}).
				Where("id = ? AND state = ?", rental.ID, models.RentalPending).
				Update("state", models.RentalCancelled)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// lost the race to a concurrent confirm after all
				return tx.First(&rental, "id = ?", rental.ID).Error
			}
			if err := tx.Model(&models.PaymentTransaction{}).
				Where("rental_id = ?", rental.ID).
				Updates(map[string]interface{}{
					"status": models.PaymentFailed,
					"note":   "allocation race, refund required",
				}).Error; err != nil {
				return err
			}
			raceErr = ErrAllocationRace
			return tx.First(&rental, "id = ?", rental.ID).Error
		}
		if err != nil {
			return err
		}

		pin, err := r.unusedPIN(tx)
		if err != nil {
			return err
		}

		start := now
		end := now.Add(window)
		res := tx.Model(&models.Rental{}).
			Where("id = ? AND state = ?", rental.ID, models.RentalPending).
			Updates(map[string]interface{}{
				"state":         models.RentalActive,
				"locker_number": number,
				"access_pin":    pin,
				"start_time":    start,
				"end_time":      end,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent confirmation won; give back the locker we took
			// and return whatever it produced.
			if err := releaseTx(tx, number); err != nil {
				return err
			}
			return tx.First(&rental, "id = ?", rental.ID).Error
		}

		if err := tx.Model(&models.PaymentTransaction{}).
			Where("rental_id = ?", rental.ID).
			Update("status", models.PaymentSuccess).Error; err != nil {
			return err
		}
		return tx.First(&rental, "id = ?", rental.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if raceErr != nil {
		return nil, raceErr
	}
	return &rental, nil
}

// unusedPIN draws PINs until one is free among live rentals. The partial
// unique index has the last word if two activations draw the same PIN in
// parallel transactions.
func (r *Repo) unusedPIN(tx *gorm.DB) (string, error) {
	for {
		pin, err := generatePIN()
		if err != nil {
			return "", err
		}
		var n int64
		if err := tx.Model(&models.Rental{}).
			Where("access_pin = ? AND state IN ?", pin,
				[]models.RentalState{models.RentalActive, models.RentalUnlocked}).
			Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return pin, nil
		}
	}
}

// Unlock authorizes a (locker number, PIN) pair. A stale rental found past
// its end_time is expired on the spot, exactly as the sweeper would, and the
// caller still gets the generic denial. Unlocking an already-unlocked rental
// inside its window succeeds again; it never shortens end_time.
func (r *Repo) Unlock(ctx context.Context, lockerNumber int, pin string, now time.Time) (*models.Rental, error) {
	var rental models.Rental
	var denyErr error // reported after commit so opportunistic expiry sticks
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("locker_number = ? AND access_pin = ? AND state IN ?",
			lockerNumber, pin,
			[]models.RentalState{models.RentalActive, models.RentalUnlocked}).
			First(&rental).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 不区分“柜号不存在”和“PIN 错”，防枚举
			return ErrUnauthorized
		}
		if err != nil {
			return err
		}

		if rental.EndTime == nil || !now.Before(*rental.EndTime) {
			if err := expireTx(tx, &rental); err != nil {
				return err
			}
			denyErr = ErrUnauthorized
			return nil
		}

		if rental.State == models.RentalActive {
			res := tx.Model(&models.Rental{}).
				Where("id = ? AND state = ?", rental.ID, models.RentalActive).
				Update("state", models.RentalUnlocked)
			if res.Error != nil {
				return res.Error
			}
			// 0 rows means the sweeper or a twin request got there first;
			// re-read below decides what the caller sees.
			if err := tx.First(&rental, "id = ?", rental.ID).Error; err != nil {
				return err
			}
			if !rental.State.Live() {
				denyErr = ErrUnauthorized
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if denyErr != nil {
		return nil, denyErr
	}
	return &rental, nil
}

// expireTx moves one live rental to expired and frees its locker.
// Guarded, so sweep / unlock / manual end can race without double effects.
func expireTx(tx *gorm.DB, rental *models.Rental) error {
	res := tx.Model(&models.Rental{}).
		Where("id = ? AND state IN ?", rental.ID,
			[]models.RentalState{models.RentalActive, models.RentalUnlocked}).
		Update("state", models.RentalExpired)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 || rental.LockerNumber == nil {
		return nil
	}
	return releaseTx(tx, *rental.LockerNumber)
}

// ExpireDue releases every live rental whose window has elapsed at now.
// The sweeper passes one clock reading per pass, so all comparisons in the
// pass agree. Returns how many rentals were expired.
func (r *Repo) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	var due []models.Rental
	if err := r.DB.WithContext(ctx).
		Where("state IN ? AND end_time <= ?",
			[]models.RentalState{models.RentalActive, models.RentalUnlocked}, now).
		Find(&due).Error; err != nil {
		return 0, err
	}

	released := 0
	for i := range due {
		rental := due[i]
		err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return expireTx(tx, &rental)
		})
		if err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}

// EndRental is the operator's manual stop: live rentals expire immediately
// and free their locker, pending ones are cancelled. Terminal states are
// left alone (idempotent).
func (r *Repo) EndRental(ctx context.Context, rentalID string) (*models.Rental, error) {
	var rental models.Rental
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rental, "id = ?", rentalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		switch rental.State {
		case models.RentalActive, models.RentalUnlocked:
			if err := expireTx(tx, &rental); err != nil {
				return err
			}
		case models.RentalPending:
			res := tx.Model(&models.Rental{}).
				Where("id = ? AND state = ?", rental.ID, models.RentalPending).
				Update("state", models.RentalCancelled)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				if err := tx.Model(&models.PaymentTransaction{}).
					Where("rental_id = ? AND status = ?", rental.ID, models.PaymentPending).
					Updates(map[string]interface{}{
						"status": models.PaymentFailed,
						"note":   "cancelled by operator",
					}).Error; err != nil {
					return err
				}
			}
		}
		return tx.First(&rental, "id = ?", rental.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// ListRentals returns all rentals, newest first, for the operator console.
func (r *Repo) ListRentals(ctx context.Context) ([]models.Rental, error) {
	var rentals []models.Rental
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&rentals).Error
	return rentals, err
}
