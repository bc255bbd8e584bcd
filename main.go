package main

import (
	"context"
	"log"
	"os"

	"lockerbox/app"
	"lockerbox/config"
	"lockerbox/controllers"
	"lockerbox/db"
	"lockerbox/hardware"
	"lockerbox/payment"
	"lockerbox/routes"
	"lockerbox/session"
	"lockerbox/sweeper"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	repo := db.NewRepo(application.DB)

	var gateway payment.Gateway
	if application.Config.StripeAPIKey != "" {
		gateway = payment.NewStripe(application.Config.StripeAPIKey, application.Config.StripeWebhookSecret)
	} else {
		log.Println("STRIPE_API_KEY not set, using fake payment gateway")
		gateway = payment.NewFake()
	}

	srv := &controllers.Srv{
		Rentals:  repo,
		Lockers:  repo,
		Audit:    repo,
		Gateway:  gateway,
		Actuator: hardware.LogActuator{},
		Sess:     session.NewAdminSessionStore(application.RDB, application.Config.AdminSessionTTL),
		Cfg:      application.Config,
	}

	// background sweep: reclaims lockers past their rental window
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sw := sweeper.New(repo, application.Config.SweepInterval, application.RDB)
	go sw.Run(ctx)

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application, srv)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
