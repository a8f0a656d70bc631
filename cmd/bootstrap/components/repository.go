package components

import (
	"sharpii-ledger/internal/infra/cache"
	"sharpii-ledger/internal/infra/readstore"
	repo_impl "sharpii-ledger/internal/infra/repository"
	"sharpii-ledger/internal/infra/uow"
	"sharpii-ledger/internal/pkg/config"
	"sharpii-ledger/internal/usecase/queries"
	"sharpii-ledger/internal/usecase/shared"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			repo_impl.NewLedgerRepository,
			fx.As(new(shared.LedgerRepository)),
		),
		// Read-side stores for queries
		fx.Annotate(
			readstore.NewBalanceReadStore,
			fx.As(new(queries.BalanceReadStore)),
		),
		fx.Annotate(
			readstore.NewHistoryReadStore,
			fx.As(new(queries.HistoryReadStore)),
		),
		fx.Annotate(
			NewBalanceCache,
			fx.As(new(shared.BalanceCache)),
		),
		fx.Annotate(
			cache.NewEventPublisher,
			fx.As(new(shared.BalanceNotifier)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) shared.DBTX {
	return pool
}

func NewBalanceCache(client *redis.Client, cfg config.Config) *cache.BalanceCache {
	return cache.NewBalanceCache(client, cfg.Redis.CacheTTL)
}
