// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lockerbox/app"
	"lockerbox/hardware"
	"lockerbox/models"
	"lockerbox/payment"
	"lockerbox/session"
)

// Store interfaces are what the handlers need from db.Repo; tests swap in
// fakes behind them.

type RentalStore interface {
	CreateRental(ctx context.Context, size models.LockerSize) (*models.Rental, error)
	AttachPaymentSession(ctx context.Context, rentalID, sessionID string) error
	FindRentalByRef(ctx context.Context, paymentRef string) (*models.Rental, error)
	ConfirmPayment(ctx context.Context, paymentRef string, now time.Time, window time.Duration) (*models.Rental, error)
	Unlock(ctx context.Context, lockerNumber int, pin string, now time.Time) (*models.Rental, error)
	EndRental(ctx context.Context, rentalID string) (*models.Rental, error)
	ListRentals(ctx context.Context) ([]models.Rental, error)
}

type LockerStore interface {
	ListAvailability(ctx context.Context) ([]models.Availability, error)
	ListLockers(ctx context.Context) ([]models.Locker, error)
}

type AuditStore interface {
	LogUnlock(ctx context.Context, entry *models.UnlockLog) error
	ListUnlockLogs(ctx context.Context, limit int) ([]models.UnlockLog, error)
}

type Srv struct {
	Rentals  RentalStore
	Lockers  LockerStore
	Audit    AuditStore
	Gateway  payment.Gateway
	Actuator hardware.Actuator
	Sess     *session.AdminSessionStore
	Cfg      app.Config
}

// 统一设置管理会话 Cookie；maxAgeSec < 0 删除
func (s *Srv) setAdminCookie(w http.ResponseWriter, sessionID string, maxAgeSec int) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AdminSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   maxAgeSec,
	})
}
