package checkout_fx

import (
	"go.uber.org/fx"

	"minsponsor/internal/api/controllers"
	"minsponsor/internal/services"
)

var Module = fx.Provide(
	services.NewCheckoutService,
	controllers.NewCheckoutController,
	services.NewVippsCallbackService,
	controllers.NewVippsCallbackController,
)
