package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"lockerbox/app"
	"lockerbox/db"
	"lockerbox/models"

	"github.com/gin-gonic/gin"
)

type LockerController struct{ *Srv }

func NewLockerController(s *Srv) *LockerController { return &LockerController{Srv: s} }

// Availability 首页卡片用：每个尺寸的空柜数量和价格
func (lc *LockerController) Availability(c *gin.Context) {
	av, err := lc.Lockers.ListAvailability(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, av)
}

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

// Unlock validates a (locker number, PIN) pair from the terminal. Denials
// are deliberately uniform: the caller never learns whether the number or
// the PIN was wrong.
func (lc *LockerController) Unlock(c *gin.Context) {
	var in struct {
		LockerNumber int    `json:"locker_number" binding:"required"`
		AccessPin    string `json:"access_pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.LockerNumber <= 0 || !pinPattern.MatchString(in.AccessPin) {
		c.JSON(http.StatusBadRequest, app.H{"error": "malformed locker number or pin"})
		return
	}

	now := time.Now().UTC()
	rental, err := lc.Rentals.Unlock(c.Request.Context(), in.LockerNumber, in.AccessPin, now)
	if err != nil {
		if errors.Is(err, db.ErrUnauthorized) {
			lc.audit(c, in.LockerNumber, nil, false, "invalid credentials")
			c.JSON(http.StatusUnauthorized, app.H{
				"success": false,
				"error":   "invalid PIN or locker number",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	// Fire the relay and answer; no hardware ack is expected.
	lc.Actuator.Unlock(c.Request.Context(), in.LockerNumber)
	lc.audit(c, in.LockerNumber, &rental.ID, true, "")

	c.JSON(http.StatusOK, app.H{
		"success":       true,
		"message":       "locker unlocked",
		"locker_number": in.LockerNumber,
	})
}

func (lc *LockerController) audit(c *gin.Context, lockerNumber int, rentalID *string, granted bool, reason string) {
	entry := &models.UnlockLog{
		LockerNumber: lockerNumber,
		RentalID:     rentalID,
		Granted:      granted,
		Reason:       reason,
		ClientIP:     c.ClientIP(),
	}
	// 审计失败不阻塞开柜
	_ = lc.Audit.LogUnlock(c.Request.Context(), entry)
}
