package controllers

import (
	"context"
	"errors"
	"time"

	"lockerbox/app"
	"lockerbox/models"
	"lockerbox/payment"

	"github.com/gin-gonic/gin"
)

// hand-rolled fakes behind the Srv interfaces

type stubRentals struct {
	createFn  func(size models.LockerSize) (*models.Rental, error)
	findFn    func(ref string) (*models.Rental, error)
	confirmFn func(ref string) (*models.Rental, error)
	unlockFn  func(n int, pin string) (*models.Rental, error)

	attached map[string]string // rentalID -> sessionID
	ended    []string
}

func newStubRentals() *stubRentals {
	return &stubRentals{attached: map[string]string{}}
}

func (s *stubRentals) CreateRental(_ context.Context, size models.LockerSize) (*models.Rental, error) {
	return s.createFn(size)
}

func (s *stubRentals) AttachPaymentSession(_ context.Context, rentalID, sessionID string) error {
	s.attached[rentalID] = sessionID
	return nil
}

func (s *stubRentals) FindRentalByRef(_ context.Context, ref string) (*models.Rental, error) {
	return s.findFn(ref)
}

func (s *stubRentals) ConfirmPayment(_ context.Context, ref string, _ time.Time, _ time.Duration) (*models.Rental, error) {
	return s.confirmFn(ref)
}

func (s *stubRentals) Unlock(_ context.Context, n int, pin string, _ time.Time) (*models.Rental, error) {
	return s.unlockFn(n, pin)
}

func (s *stubRentals) EndRental(_ context.Context, id string) (*models.Rental, error) {
	s.ended = append(s.ended, id)
	return &models.Rental{ID: id, State: models.RentalCancelled}, nil
}

func (s *stubRentals) ListRentals(_ context.Context) ([]models.Rental, error) { return nil, nil }

type stubLockers struct {
	availability []models.Availability
}

func (s *stubLockers) ListAvailability(_ context.Context) ([]models.Availability, error) {
	return s.availability, nil
}

func (s *stubLockers) ListLockers(_ context.Context) ([]models.Locker, error) { return nil, nil }

type stubAudit struct{ entries []models.UnlockLog }

func (s *stubAudit) LogUnlock(_ context.Context, e *models.UnlockLog) error {
	s.entries = append(s.entries, *e)
	return nil
}

func (s *stubAudit) ListUnlockLogs(_ context.Context, _ int) ([]models.UnlockLog, error) {
	return s.entries, nil
}

type stubGateway struct {
	session    *payment.CheckoutSession
	createErr  error
	status     *payment.Status
	statusErr  error
	webhookEv  *payment.WebhookEvent
	webhookErr error

	created []payment.CheckoutReq
}

func (g *stubGateway) CreateCheckout(_ context.Context, req payment.CheckoutReq) (*payment.CheckoutSession, error) {
	g.created = append(g.created, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.session, nil
}

func (g *stubGateway) CheckoutStatus(_ context.Context, _ string) (*payment.Status, error) {
	return g.status, g.statusErr
}

func (g *stubGateway) ParseWebhook(_ []byte, _ string) (*payment.WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	if g.webhookEv == nil {
		return nil, errors.New("no event configured")
	}
	return g.webhookEv, nil
}

type stubActuator struct{ unlocked []int }

func (a *stubActuator) Unlock(_ context.Context, n int) { a.unlocked = append(a.unlocked, n) }

func newTestSrv() (*Srv, *stubRentals, *stubGateway, *stubActuator, *stubAudit) {
	rentals := newStubRentals()
	gateway := &stubGateway{}
	actuator := &stubActuator{}
	audit := &stubAudit{}
	srv := &Srv{
		Rentals:  rentals,
		Lockers:  &stubLockers{},
		Audit:    audit,
		Gateway:  gateway,
		Actuator: actuator,
		Cfg: app.Config{
			WebOrigin:    "http://localhost:3000",
			RentalWindow: 24 * time.Hour,
		},
	}
	return srv, rentals, gateway, actuator, audit
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
