package components

import (
	"sharpii-ledger/internal/handler"
	"sharpii-ledger/internal/handler/api"
	"sharpii-ledger/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewLedgerHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
