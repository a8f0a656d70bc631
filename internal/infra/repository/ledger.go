package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sharpii-ledger/internal/domain/ledger"
	"sharpii-ledger/internal/infra"
	"sharpii-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrCodeUniqueViolation = "23505"

// LedgerRepository owns all writes to accounts, credit_batches,
// ledger_transactions and reservations. It is stateless; callers hand it the
// transaction they are running in.
type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

func (r *LedgerRepository) LockAccount(ctx context.Context, db shared.DBTX, accountID uuid.UUID) (bool, error) {
	_, err := db.Exec(ctx,
		`INSERT INTO accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		accountID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to ensure account row", err)
	}

	var frozen bool
	err = db.QueryRow(ctx,
		`SELECT frozen FROM accounts WHERE id = $1 FOR UPDATE`,
		accountID).Scan(&frozen)
	if err != nil {
		return false, infra.WrapRepoErr("failed to lock account row", err)
	}
	return frozen, nil
}

func (r *LedgerRepository) FreezeAccount(ctx context.Context, db shared.DBTX, accountID uuid.UUID) error {
	_, err := db.Exec(ctx,
		`UPDATE accounts SET frozen = TRUE, updated_at = now() WHERE id = $1`,
		accountID)
	if err != nil {
		return infra.WrapRepoErr("failed to freeze account", err)
	}
	return nil
}

func (r *LedgerRepository) OutstandingBatches(ctx context.Context, db shared.DBTX, accountID uuid.UUID) ([]*ledger.Batch, error) {
	rows, err := db.Query(ctx, `
		SELECT id, account_id, amount, remaining, held, source, expires_at, created_at
		FROM credit_batches
		WHERE account_id = $1 AND (remaining > 0 OR held > 0)
		ORDER BY created_at, id`,
		accountID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list outstanding batches", err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

func (r *LedgerRepository) BatchesByIDs(ctx context.Context, db shared.DBTX, ids []uuid.UUID) ([]*ledger.Batch, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	textIDs := make([]string, len(ids))
	for i, id := range ids {
		textIDs[i] = id.String()
	}

	rows, err := db.Query(ctx, `
		SELECT id, account_id, amount, remaining, held, source, expires_at, created_at
		FROM credit_batches
		WHERE id = ANY($1::uuid[])
		ORDER BY created_at, id`,
		textIDs)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load batches by ids", err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

func scanBatches(rows pgx.Rows) ([]*ledger.Batch, error) {
	var batches []*ledger.Batch
	for rows.Next() {
		var (
			b         ledger.Batch
			source    string
			expiresAt *time.Time
		)
		if err := rows.Scan(&b.ID, &b.AccountID, &b.Amount, &b.Remaining, &b.Held, &source, &expiresAt, &b.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan batch row", err)
		}
		b.Source = ledger.Source(source)
		b.ExpiresAt = expiresAt
		batches = append(batches, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate batch rows", err)
	}
	return batches, nil
}

func (r *LedgerRepository) InsertBatch(ctx context.Context, db shared.DBTX, batch *ledger.Batch) error {
	_, err := db.Exec(ctx, `
		INSERT INTO credit_batches (id, account_id, amount, remaining, held, source, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		batch.ID, batch.AccountID, batch.Amount, batch.Remaining, batch.Held,
		string(batch.Source), batch.ExpiresAt, batch.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to insert batch", err, pgErrKind(err))
	}
	return nil
}

func (r *LedgerRepository) UpdateBatch(ctx context.Context, db shared.DBTX, batch *ledger.Batch) error {
	tag, err := db.Exec(ctx, `
		UPDATE credit_batches SET remaining = $2, held = $3 WHERE id = $1`,
		batch.ID, batch.Remaining, batch.Held)
	if err != nil {
		return infra.WrapRepoErr("failed to update batch", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("batch not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *LedgerRepository) InsertTransaction(ctx context.Context, db shared.DBTX, tx *ledger.Transaction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO ledger_transactions
			(id, account_id, kind, reason, amount, related_task_id, related_reservation_id,
			 balance_before, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tx.ID, tx.AccountID, string(tx.Kind), string(tx.Reason), tx.Amount,
		tx.RelatedTaskID, tx.RelatedReservationID, tx.BalanceBefore, tx.BalanceAfter, tx.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to append transaction", err, pgErrKind(err))
	}
	return nil
}

func (r *LedgerRepository) GetTransaction(ctx context.Context, db shared.DBTX, id uuid.UUID) (*ledger.Transaction, error) {
	var (
		tx            ledger.Transaction
		kind, reason  string
		taskID        uuid.NullUUID
		reservationID uuid.NullUUID
	)
	err := db.QueryRow(ctx, `
		SELECT id, account_id, kind, reason, amount, related_task_id, related_reservation_id,
		       balance_before, balance_after, created_at
		FROM ledger_transactions WHERE id = $1`,
		id).Scan(&tx.ID, &tx.AccountID, &kind, &reason, &tx.Amount, &taskID, &reservationID,
		&tx.BalanceBefore, &tx.BalanceAfter, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("transaction not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get transaction", err)
	}

	tx.Kind = ledger.TxKind(kind)
	tx.Reason = ledger.TxReason(reason)
	tx.RelatedTaskID = nullableUUID(taskID)
	tx.RelatedReservationID = nullableUUID(reservationID)
	return &tx, nil
}

func (r *LedgerRepository) InsertReservation(ctx context.Context, db shared.DBTX, res *ledger.Reservation) error {
	allocations, err := json.Marshal(res.Allocations)
	if err != nil {
		return infra.WrapRepoErr("failed to encode allocations", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO reservations
			(id, account_id, task_id, amount, status, allocations, result_transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ID, res.AccountID, res.TaskID, res.Amount, string(res.Status), allocations,
		res.ResultTransactionID, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to insert reservation", err, pgErrKind(err))
	}
	return nil
}

func (r *LedgerRepository) GetReservation(ctx context.Context, db shared.DBTX, id uuid.UUID) (*ledger.Reservation, error) {
	var (
		res         ledger.Reservation
		status      string
		allocations []byte
		resultTxID  uuid.NullUUID
	)
	err := db.QueryRow(ctx, `
		SELECT id, account_id, task_id, amount, status, allocations, result_transaction_id, created_at, updated_at
		FROM reservations WHERE id = $1`,
		id).Scan(&res.ID, &res.AccountID, &res.TaskID, &res.Amount, &status, &allocations,
		&resultTxID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get reservation", err)
	}

	res.Status = ledger.ReservationStatus(status)
	res.ResultTransactionID = nullableUUID(resultTxID)
	if err := json.Unmarshal(allocations, &res.Allocations); err != nil {
		return nil, infra.WrapRepoErr("failed to decode allocations", err)
	}
	return &res, nil
}

func (r *LedgerRepository) UpdateReservation(ctx context.Context, db shared.DBTX, res *ledger.Reservation) error {
	tag, err := db.Exec(ctx, `
		UPDATE reservations
		SET status = $2, result_transaction_id = $3, updated_at = $4
		WHERE id = $1`,
		res.ID, string(res.Status), res.ResultTransactionID, res.UpdatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *LedgerRepository) AccountsWithDueBatches(ctx context.Context, db shared.DBTX, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT account_id
		FROM credit_batches
		WHERE expires_at IS NOT NULL AND expires_at <= $1 AND (remaining > 0 OR held > 0)
		LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan for due batches", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func (r *LedgerRepository) StaleHeldReservations(ctx context.Context, db shared.DBTX, heldBefore time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, `
		SELECT id
		FROM reservations
		WHERE status = 'held' AND created_at <= $1
		ORDER BY created_at
		LIMIT $2`,
		heldBefore, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan for stale reservations", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan id row", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate id rows", err)
	}
	return ids, nil
}

func nullableUUID(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := v.UUID
	return &id
}

func pgErrKind(err error) infra.RepositoryErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
		return infra.KindDuplicateKey
	}
	return infra.KindDBFailure
}
