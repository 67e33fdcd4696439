package db_fx

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"minsponsor/internal/infra"
	"minsponsor/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	repositories.NewOrganizationRepository,
	repositories.NewSubscriptionRepository,
	repositories.NewTransactionRepository,
	repositories.NewProcessedEventRepository,
)

func provideDB(lc fx.Lifecycle) *gorm.DB {
	db := infra.InitPostgresql()
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db)
			return nil
		},
	})
	return db
}
