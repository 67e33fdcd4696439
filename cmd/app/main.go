package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"minsponsor/cmd/fx/charges_fx"
	"minsponsor/cmd/fx/checkout_fx"
	"minsponsor/cmd/fx/db_fx"
	"minsponsor/cmd/fx/onboarding_fx"
	"minsponsor/cmd/fx/providers_fx"
	"minsponsor/cmd/fx/webhook_fx"
	"minsponsor/internal/api/controllers"
	"minsponsor/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	app := fx.New(
		db_fx.Module,
		providers_fx.Module,
		checkout_fx.Module,
		webhook_fx.Module,
		charges_fx.Module,
		onboarding_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Printf("Starting HTTP server at :%s", port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	checkoutController *controllers.CheckoutController,
	webhookController *controllers.WebhookController,
	chargesController *controllers.ChargesController,
	callbackController *controllers.VippsCallbackController,
	onboardingController *controllers.OnboardingController,
) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, checkoutController, webhookController, chargesController, callbackController, onboardingController)

	return r
}

func RegisterRoutes(
	r *gin.Engine,
	checkoutController *controllers.CheckoutController,
	webhookController *controllers.WebhookController,
	chargesController *controllers.ChargesController,
	callbackController *controllers.VippsCallbackController,
	onboardingController *controllers.OnboardingController,
) {
	api := r.Group("/api")
	api.POST("/checkout", checkoutController.Checkout)
	api.POST("/webhooks/stripe", webhookController.HandleStripe)
	api.POST("/webhooks/vipps", webhookController.HandleVipps)

	cron := api.Group("/cron")
	cron.Use(middleware.BearerSecretMiddleware(os.Getenv("CRON_SECRET")))
	cron.GET("/vipps-charges", chargesController.Run)

	admin := api.Group("/admin")
	admin.Use(middleware.BearerSecretMiddleware(os.Getenv("ADMIN_API_SECRET")))
	admin.POST("/onboarding", onboardingController.Start)
	admin.POST("/organizations/:id/stripe-link", onboardingController.StripeLink)

	r.GET("/checkout/vipps/callback", callbackController.Callback)
}
