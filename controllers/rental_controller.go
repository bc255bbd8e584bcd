package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"lockerbox/app"
	"lockerbox/db"
	"lockerbox/models"
	"lockerbox/payment"

	"github.com/gin-gonic/gin"
)

type RentalController struct{ *Srv }

func NewRentalController(s *Srv) *RentalController { return &RentalController{Srv: s} }

// CreateRental opens a pending rental and hands back the checkout URL.
// No locker is bound until the payment confirms.
func (rc *RentalController) CreateRental(c *gin.Context) {
	var in struct {
		Size string `json:"size" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	rental, err := rc.Rentals.CreateRental(c.Request.Context(), models.LockerSize(in.Size))
	if err != nil {
		switch {
		case errors.Is(err, db.ErrInvalidSize):
			c.JSON(http.StatusBadRequest, app.H{"error": "unknown locker size"})
		case errors.Is(err, db.ErrNoAvailability):
			c.JSON(http.StatusConflict, app.H{"error": "no lockers of that size available"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}

	sess, err := rc.Gateway.CreateCheckout(c.Request.Context(), payment.CheckoutReq{
		Amount:     rental.Amount,
		Currency:   rental.Currency,
		RentalID:   rental.ID,
		SuccessURL: rc.Cfg.WebOrigin + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  rc.Cfg.WebOrigin + "/payment-cancelled",
	})
	if err != nil {
		// the pending rental holds no locker, but close it out anyway
		if _, endErr := rc.Rentals.EndRental(c.Request.Context(), rental.ID); endErr != nil {
			log.Printf("cancel rental %s after checkout failure: %v", rental.ID, endErr)
		}
		c.JSON(http.StatusBadGateway, app.H{"error": "payment gateway unavailable"})
		return
	}

	if err := rc.Rentals.AttachPaymentSession(c.Request.Context(), rental.ID, sess.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, app.H{
		"rental_id":    rental.ID,
		"checkout_url": sess.URL,
		"session_id":   sess.SessionID,
	})
}

// PaymentStatus is what the post-checkout page polls. While pending it asks
// the gateway and, on paid, runs the idempotent confirmation; once live it
// answers from the ledger alone.
func (rc *RentalController) PaymentStatus(c *gin.Context) {
	sessionID := c.Param("sessionId")

	rental, err := rc.Rentals.FindRentalByRef(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "rental not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	if rental.State == models.RentalPending {
		status, err := rc.Gateway.CheckoutStatus(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusBadGateway, app.H{"error": "payment gateway unavailable"})
			return
		}
		if !status.Paid {
			c.JSON(http.StatusOK, app.H{
				"state":          rental.State,
				"payment_status": status.Raw,
			})
			return
		}

		rental, err = rc.Rentals.ConfirmPayment(c.Request.Context(), sessionID, time.Now().UTC(), rc.Cfg.RentalWindow)
		if err != nil {
			if errors.Is(err, db.ErrAllocationRace) {
				c.JSON(http.StatusConflict, app.H{
					"state": models.RentalCancelled,
					"error": "no locker could be allocated, refund pending",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
			return
		}
	}

	rc.renderStatus(c, rental)
}

func (rc *RentalController) renderStatus(c *gin.Context, rental *models.Rental) {
	out := app.H{"state": rental.State}
	if rental.State.Live() {
		out["payment_status"] = "paid"
		out["locker_number"] = rental.LockerNumber
		out["access_pin"] = rental.AccessPin
		out["end_time"] = rental.EndTime
	}
	c.JSON(http.StatusOK, out)
}
