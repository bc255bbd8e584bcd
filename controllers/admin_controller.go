package controllers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"lockerbox/app"
	"lockerbox/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminController struct{ *Srv }

func NewAdminController(s *Srv) *AdminController { return &AdminController{Srv: s} }

// Login trades the operator token for a Redis-backed session cookie.
func (ac *AdminController) Login(c *gin.Context) {
	var in struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if ac.Cfg.AdminToken == "" ||
		subtle.ConstantTimeCompare([]byte(in.Token), []byte(ac.Cfg.AdminToken)) != 1 {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}

	id := uuid.NewString()
	if err := ac.Sess.Create(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	ac.setAdminCookie(c.Writer, id, int(ac.Cfg.AdminSessionTTL.Seconds()))
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AdminController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AdminSessionCookie); err == nil && ck.Value != "" {
		_ = ac.Sess.Delete(c.Request.Context(), ck.Value)
	}
	ac.setAdminCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AdminController) ListLockers(c *gin.Context) {
	lockers, err := ac.Lockers.ListLockers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"lockers": lockers})
}

func (ac *AdminController) ListRentals(c *gin.Context) {
	rentals, err := ac.Rentals.ListRentals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"rentals": rentals})
}

func (ac *AdminController) ListUnlockLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := ac.Audit.ListUnlockLogs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"entries": logs})
}

// EndRental is the manual stop: frees the locker of a live rental, cancels a
// pending one. Idempotent on terminal states.
func (ac *AdminController) EndRental(c *gin.Context) {
	id := c.Param("id")
	rental, err := ac.Rentals.EndRental(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "rental not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rental)
}
