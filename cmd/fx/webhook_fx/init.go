package webhook_fx

import (
	"os"

	"go.uber.org/fx"

	"minsponsor/internal/api/controllers"
	"minsponsor/internal/services"
)

var Module = fx.Provide(
	services.NewStripeWebhookService,
	services.NewVippsWebhookService,
	provideWebhookController,
)

func provideWebhookController(
	stripeService services.StripeWebhookServiceInterface,
	vippsService services.VippsWebhookServiceInterface,
) *controllers.WebhookController {
	return controllers.NewWebhookController(stripeService, vippsService, os.Getenv("VIPPS_WEBHOOK_SECRET"))
}
