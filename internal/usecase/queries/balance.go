package queries

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"sharpii-ledger/internal/pkg/clock"
	"sharpii-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

type BalanceQueries interface {
	// GetBalance returns the spendable balance plus its breakdown by
	// permanence and the amount parked under active holds.
	GetBalance(ctx context.Context, accountID uuid.UUID) (*BalanceView, error)
}

type balanceQueriesImpl struct {
	store          BalanceReadStore
	cache          shared.BalanceCache
	clock          clock.Clock
	expiringWindow time.Duration
}

func NewBalanceQueries(store BalanceReadStore, cache shared.BalanceCache, clk clock.Clock, expiringWindow time.Duration) BalanceQueries {
	return &balanceQueriesImpl{
		store:          store,
		cache:          cache,
		clock:          clk,
		expiringWindow: expiringWindow,
	}
}

func (q *balanceQueriesImpl) GetBalance(ctx context.Context, accountID uuid.UUID) (*BalanceView, error) {
	if payload, ok := q.cache.Get(ctx, accountID); ok {
		var view BalanceView
		if err := json.Unmarshal(payload, &view); err == nil {
			return &view, nil
		}
		// A corrupt entry falls through to the store and gets overwritten.
		slog.Warn("discarding unreadable balance cache entry", "account_id", accountID)
	}

	now := q.clock.Now()
	view, err := q.store.Snapshot(ctx, accountID, now, now.Add(q.expiringWindow))
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(view); err == nil {
		q.cache.Set(ctx, accountID, payload)
	}
	return view, nil
}
