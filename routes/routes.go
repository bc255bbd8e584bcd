package routes

import (
	"time"

	"lockerbox/app"
	"lockerbox/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App, s *controllers.Srv) {
	// 控制器与依赖
	lockerCtl := controllers.NewLockerController(s)
	rentalCtl := controllers.NewRentalController(s)
	paymentCtl := controllers.NewPaymentController(s)
	adminCtl := controllers.NewAdminController(s)

	// 复用的中间件
	adminMW := app.AdminRequired(s.Sess)
	unlockThrottle := app.UnlockRateLimit(a.RDB, 10, time.Minute)

	api := r.Group("/api")
	{
		// kiosk / browser surface
		api.GET("/lockers/availability", lockerCtl.Availability)
		api.POST("/rentals", rentalCtl.CreateRental)
		api.GET("/payments/status/:sessionId", rentalCtl.PaymentStatus)
		api.POST("/lockers/unlock", unlockThrottle, lockerCtl.Unlock)

		// gateway push
		api.POST("/webhook/stripe", paymentCtl.StripeWebhook)

		// operator console
		api.POST("/admin/login", adminCtl.Login)
		admin := api.Group("/admin", adminMW)
		{
			admin.POST("/logout", adminCtl.Logout)
			admin.GET("/lockers", adminCtl.ListLockers)
			admin.GET("/rentals", adminCtl.ListRentals)
			admin.GET("/unlock-log", adminCtl.ListUnlockLog)
			admin.POST("/rentals/:id/end", adminCtl.EndRental)
		}
	}
}
