package charges_fx

import (
	"go.uber.org/fx"

	"minsponsor/internal/api/controllers"
	"minsponsor/internal/providers/vipps"
	"minsponsor/internal/repositories"
	"minsponsor/internal/services"
)

var Module = fx.Provide(
	provideScheduler,
	controllers.NewChargesController,
)

func provideScheduler(
	subRepo repositories.ISubscriptionRepository,
	txnRepo repositories.ITransactionRepository,
	vippsClient vipps.Client,
) services.ChargeSchedulerServiceInterface {
	return services.NewChargeSchedulerService(subRepo, txnRepo, vippsClient)
}
