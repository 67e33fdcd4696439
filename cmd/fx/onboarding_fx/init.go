package onboarding_fx

import (
	"go.uber.org/fx"

	"minsponsor/internal/api/controllers"
	"minsponsor/internal/services"
)

var Module = fx.Provide(
	services.NewOnboardingService,
	controllers.NewOnboardingController,
)
