package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lockerbox/db"
	"lockerbox/models"
	"lockerbox/payment"

	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestCreateRentalHappyPath(t *testing.T) {
	srv, rentals, gateway, _, _ := newTestSrv()
	rentals.createFn = func(size models.LockerSize) (*models.Rental, error) {
		require.Equal(t, models.SizeSmall, size)
		return &models.Rental{ID: "r1", Size: size, State: models.RentalPending, Amount: 2, Currency: "EUR"}, nil
	}
	gateway.session = &payment.CheckoutSession{SessionID: "cs_1", URL: "https://pay.example/cs_1"}

	r := newTestRouter()
	r.POST("/api/rentals", NewRentalController(srv).CreateRental)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rentals", strings.NewReader(`{"size":"small"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "r1", out["rental_id"])
	require.Equal(t, "cs_1", out["session_id"])
	require.Equal(t, "https://pay.example/cs_1", out["checkout_url"])

	require.Equal(t, "cs_1", rentals.attached["r1"])
	require.Len(t, gateway.created, 1)
	require.Equal(t, "r1", gateway.created[0].RentalID)
	require.Equal(t, 2.0, gateway.created[0].Amount)
}

func TestCreateRentalErrors(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"unknown size", `{"size":"gigantic"}`, db.ErrInvalidSize, http.StatusBadRequest},
		{"no availability", `{"size":"small"}`, db.ErrNoAvailability, http.StatusConflict},
		{"missing size", `{}`, nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, rentals, _, _, _ := newTestSrv()
			rentals.createFn = func(models.LockerSize) (*models.Rental, error) { return nil, tc.err }

			r := newTestRouter()
			r.POST("/api/rentals", NewRentalController(srv).CreateRental)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/rentals", strings.NewReader(tc.body))
			r.ServeHTTP(w, req)
			require.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestCreateRentalGatewayFailureCancelsRental(t *testing.T) {
	srv, rentals, gateway, _, _ := newTestSrv()
	rentals.createFn = func(size models.LockerSize) (*models.Rental, error) {
		return &models.Rental{ID: "r1", Size: size, State: models.RentalPending}, nil
	}
	gateway.createErr = errors.New("gateway down")

	r := newTestRouter()
	r.POST("/api/rentals", NewRentalController(srv).CreateRental)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rentals", strings.NewReader(`{"size":"small"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, []string{"r1"}, rentals.ended)
}

func TestPaymentStatusPendingUnpaid(t *testing.T) {
	srv, rentals, gateway, _, _ := newTestSrv()
	rentals.findFn = func(ref string) (*models.Rental, error) {
		return &models.Rental{ID: "r1", PaymentRef: ref, State: models.RentalPending}, nil
	}
	gateway.status = &payment.Status{Paid: false, Raw: "unpaid"}

	r := newTestRouter()
	r.GET("/api/payments/status/:sessionId", NewRentalController(srv).PaymentStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/status/cs_1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, string(models.RentalPending), out["state"])
	require.Equal(t, "unpaid", out["payment_status"])
	require.NotContains(t, out, "access_pin")
}

func TestPaymentStatusConfirmsWhenPaid(t *testing.T) {
	srv, rentals, gateway, _, _ := newTestSrv()
	end := time.Now().UTC().Add(24 * time.Hour)
	rentals.findFn = func(ref string) (*models.Rental, error) {
		return &models.Rental{ID: "r1", PaymentRef: ref, State: models.RentalPending}, nil
	}
	rentals.confirmFn = func(ref string) (*models.Rental, error) {
		return &models.Rental{
			ID: "r1", PaymentRef: ref, State: models.RentalActive,
			LockerNumber: intPtr(7), AccessPin: "123456", EndTime: &end,
		}, nil
	}
	gateway.status = &payment.Status{Paid: true, Raw: "paid"}

	r := newTestRouter()
	r.GET("/api/payments/status/:sessionId", NewRentalController(srv).PaymentStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/status/cs_1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, string(models.RentalActive), out["state"])
	require.Equal(t, float64(7), out["locker_number"])
	require.Equal(t, "123456", out["access_pin"])
}

func TestPaymentStatusAllocationRace(t *testing.T) {
	srv, rentals, gateway, _, _ := newTestSrv()
	rentals.findFn = func(ref string) (*models.Rental, error) {
		return &models.Rental{ID: "r1", PaymentRef: ref, State: models.RentalPending}, nil
	}
	rentals.confirmFn = func(string) (*models.Rental, error) { return nil, db.ErrAllocationRace }
	gateway.status = &payment.Status{Paid: true, Raw: "paid"}

	r := newTestRouter()
	r.GET("/api/payments/status/:sessionId", NewRentalController(srv).PaymentStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/status/cs_1", nil))

	require.Equal(t, http.StatusConflict, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, string(models.RentalCancelled), out["state"])
}

func TestPaymentStatusNotFound(t *testing.T) {
	srv, rentals, _, _, _ := newTestSrv()
	rentals.findFn = func(string) (*models.Rental, error) { return nil, db.ErrNotFound }

	r := newTestRouter()
	r.GET("/api/payments/status/:sessionId", NewRentalController(srv).PaymentStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/status/cs_missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentStatusActiveSkipsGateway(t *testing.T) {
	srv, rentals, gateway, _, _ := newTestSrv()
	end := time.Now().UTC().Add(time.Hour)
	rentals.findFn = func(ref string) (*models.Rental, error) {
		return &models.Rental{
			ID: "r1", PaymentRef: ref, State: models.RentalUnlocked,
			LockerNumber: intPtr(3), AccessPin: "654321", EndTime: &end,
		}, nil
	}
	gateway.statusErr = errors.New("must not be called")

	r := newTestRouter()
	r.GET("/api/payments/status/:sessionId", NewRentalController(srv).PaymentStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/status/cs_1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, string(models.RentalUnlocked), out["state"])
	require.Equal(t, "654321", out["access_pin"])
}
