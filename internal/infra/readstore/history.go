package readstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sharpii-ledger/internal/infra"
	"sharpii-ledger/internal/usecase/queries"
	"sharpii-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type HistoryReadStore struct {
	db shared.DBTX
}

func NewHistoryReadStore(db shared.DBTX) *HistoryReadStore {
	return &HistoryReadStore{db: db}
}

const transactionColumns = `id, account_id, kind, reason, amount, related_task_id, related_reservation_id,
	balance_before, balance_after, created_at`

func (r *HistoryReadStore) FindTransactionsFirstPage(ctx context.Context, accountID uuid.UUID, filter queries.HistoryFilter, limit int32) ([]*queries.TransactionView, error) {
	where, args := buildHistoryFilter(accountID, filter)
	args = append(args, limit)

	sql := fmt.Sprintf(`
		SELECT %s FROM ledger_transactions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		transactionColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list transactions first page", err)
	}
	defer rows.Close()

	return scanTransactionViews(rows)
}

// Keyset pagination on (created_at, id) stays stable while new rows are
// appended ahead of the cursor.
func (r *HistoryReadStore) FindTransactionsKeyset(ctx context.Context, accountID uuid.UUID, filter queries.HistoryFilter, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.TransactionView, error) {
	where, args := buildHistoryFilter(accountID, filter)
	args = append(args, lastCreatedAt, lastID)
	where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	args = append(args, limit)

	sql := fmt.Sprintf(`
		SELECT %s FROM ledger_transactions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		transactionColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list transactions keyset page", err)
	}
	defer rows.Close()

	return scanTransactionViews(rows)
}

func (r *HistoryReadStore) FindReservationByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	var (
		view       queries.ReservationView
		resultTxID uuid.NullUUID
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, task_id, amount, status, result_transaction_id, created_at, updated_at
		FROM reservations WHERE id = $1`,
		id).Scan(&view.ID, &view.AccountID, &view.TaskID, &view.Amount, &view.Status,
		&resultTxID, &view.CreatedAt, &view.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get reservation view", err)
	}
	if resultTxID.Valid {
		id := resultTxID.UUID
		view.ResultTransactionID = &id
	}
	return &view, nil
}

func buildHistoryFilter(accountID uuid.UUID, filter queries.HistoryFilter) ([]string, []any) {
	where := []string{"account_id = $1"}
	args := []any{accountID}

	appendCond := func(cond string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Kind != nil {
		appendCond("kind = $%d", *filter.Kind)
	}
	if filter.Reason != nil {
		appendCond("reason = $%d", *filter.Reason)
	}
	if filter.TaskID != nil {
		appendCond("related_task_id = $%d", *filter.TaskID)
	}
	if filter.From != nil {
		appendCond("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		appendCond("created_at < $%d", *filter.To)
	}
	return where, args
}

func scanTransactionViews(rows pgx.Rows) ([]*queries.TransactionView, error) {
	var items []*queries.TransactionView
	for rows.Next() {
		var (
			v             queries.TransactionView
			taskID        uuid.NullUUID
			reservationID uuid.NullUUID
		)
		if err := rows.Scan(&v.ID, &v.AccountID, &v.Kind, &v.Reason, &v.Amount, &taskID, &reservationID,
			&v.BalanceBefore, &v.BalanceAfter, &v.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan transaction row", err)
		}
		if taskID.Valid {
			id := taskID.UUID
			v.RelatedTaskID = &id
		}
		if reservationID.Valid {
			id := reservationID.UUID
			v.RelatedReservationID = &id
		}
		items = append(items, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate transaction rows", err)
	}
	return items, nil
}
