package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"lockerbox/app"
	"lockerbox/db"

	"github.com/gin-gonic/gin"
)

type PaymentController struct{ *Srv }

func NewPaymentController(s *Srv) *PaymentController { return &PaymentController{Srv: s} }

// StripeWebhook is the push side of confirmation, so a customer who closes
// the browser right after paying still gets their locker. Confirmation is
// idempotent with the polling path.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot read body"})
		return
	}

	ev, err := pc.Gateway.ParseWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid webhook"})
		return
	}
	if ev.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, app.H{"status": "ignored"})
		return
	}

	_, err = pc.Rentals.ConfirmPayment(c.Request.Context(), ev.SessionID, time.Now().UTC(), pc.Cfg.RentalWindow)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrAllocationRace):
		// paid but pool exhausted; recorded for refund, ack the gateway
		log.Printf("webhook: allocation race for session %s", ev.SessionID)
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "unknown session"})
		return
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app.H{"status": "success"})
}
