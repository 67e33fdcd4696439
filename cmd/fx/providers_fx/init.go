package providers_fx

import (
	"os"

	"go.uber.org/fx"

	"minsponsor/internal/providers/stripe"
	"minsponsor/internal/providers/vipps"
	"minsponsor/internal/services"
)

var Module = fx.Provide(
	provideStripeGateway,
	provideVippsClient,
	provideSiteConfig,
)

func provideStripeGateway() stripe.Gateway {
	return stripe.NewGateway(stripe.Config{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		BaseURL:       os.Getenv("PUBLIC_BASE_URL"),
	})
}

func provideVippsClient() vipps.Client {
	return vipps.NewClient(vipps.Config{
		ClientID:        os.Getenv("VIPPS_CLIENT_ID"),
		ClientSecret:    os.Getenv("VIPPS_CLIENT_SECRET"),
		SubscriptionKey: os.Getenv("VIPPS_SUBSCRIPTION_KEY"),
		TestMode:        os.Getenv("VIPPS_USE_TEST_MODE") == "true",
	})
}

func provideSiteConfig() services.SiteConfig {
	return services.SiteConfig{BaseURL: os.Getenv("PUBLIC_BASE_URL")}
}
