package components

import (
	"sharpii-ledger/internal/pkg/clock"
	"sharpii-ledger/internal/pkg/config"
	"sharpii-ledger/internal/usecase/commands"
	"sharpii-ledger/internal/usecase/queries"
	"sharpii-ledger/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(cfg config.Config) config.LedgerConfig {
		return cfg.Ledger
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewLedgerUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		func(store queries.BalanceReadStore, cache shared.BalanceCache, clk clock.Clock, cfg config.LedgerConfig) queries.BalanceQueries {
			return queries.NewBalanceQueries(store, cache, clk, cfg.ExpiringSoonWindow)
		},
		queries.NewHistoryQueries,
	),
)
