package readstore

import (
	"context"
	"time"

	"sharpii-ledger/internal/infra"
	"sharpii-ledger/internal/usecase/queries"
	"sharpii-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

type BalanceReadStore struct {
	db shared.DBTX
}

func NewBalanceReadStore(db shared.DBTX) *BalanceReadStore {
	return &BalanceReadStore{db: db}
}

// Snapshot aggregates the account's active batches in a single pass. An
// account with no batches yields an all-zero view rather than a not-found.
func (r *BalanceReadStore) Snapshot(ctx context.Context, accountID uuid.UUID, now, expiringBefore time.Time) (*queries.BalanceView, error) {
	view := &queries.BalanceView{AccountID: accountID, AsOf: now}

	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(remaining), 0),
			COALESCE(SUM(held), 0),
			COALESCE(SUM(remaining) FILTER (WHERE expires_at IS NULL), 0),
			COALESCE(SUM(remaining) FILTER (WHERE expires_at IS NOT NULL AND expires_at <= $3), 0)
		FROM credit_batches
		WHERE account_id = $1
		  AND (remaining > 0 OR held > 0)
		  AND (expires_at IS NULL OR expires_at > $2)`,
		accountID, now, expiringBefore).
		Scan(&view.Available, &view.Held, &view.Permanent, &view.ExpiringSoon)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to aggregate balance", err)
	}
	return view, nil
}
