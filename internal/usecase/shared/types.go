package shared

import (
	"context"
	"time"

	"sharpii-ledger/internal/domain/ledger"

	"github.com/google/uuid"
)

// LedgerRepository is the sole writer of batches, transactions and
// reservations. Locking an account row serializes every mutating operation
// for that account; operations on different accounts proceed in parallel.
type LedgerRepository interface {
	// LockAccount upserts the account anchor row and takes its row lock,
	// returning the frozen flag. All mutating ledger work for the account
	// happens behind this lock.
	LockAccount(ctx context.Context, db DBTX, accountID uuid.UUID) (frozen bool, err error)
	FreezeAccount(ctx context.Context, db DBTX, accountID uuid.UUID) error

	// OutstandingBatches returns every batch still carrying value
	// (remaining + held > 0), including batches past expiry that the lazy
	// sweep has not retired yet.
	OutstandingBatches(ctx context.Context, db DBTX, accountID uuid.UUID) ([]*ledger.Batch, error)
	BatchesByIDs(ctx context.Context, db DBTX, ids []uuid.UUID) ([]*ledger.Batch, error)
	InsertBatch(ctx context.Context, db DBTX, batch *ledger.Batch) error
	UpdateBatch(ctx context.Context, db DBTX, batch *ledger.Batch) error

	InsertTransaction(ctx context.Context, db DBTX, tx *ledger.Transaction) error
	GetTransaction(ctx context.Context, db DBTX, id uuid.UUID) (*ledger.Transaction, error)

	InsertReservation(ctx context.Context, db DBTX, res *ledger.Reservation) error
	GetReservation(ctx context.Context, db DBTX, id uuid.UUID) (*ledger.Reservation, error)
	UpdateReservation(ctx context.Context, db DBTX, res *ledger.Reservation) error

	// Sweep scans; read outside the account lock, re-checked under it.
	AccountsWithDueBatches(ctx context.Context, db DBTX, now time.Time, limit int) ([]uuid.UUID, error)
	StaleHeldReservations(ctx context.Context, db DBTX, heldBefore time.Time, limit int) ([]uuid.UUID, error)
}

// BalanceEvent is pushed to subscribers after a balance-affecting operation
// commits, replacing ambient UI refresh polling with an explicit channel.
type BalanceEvent struct {
	AccountID uuid.UUID     `json:"account_id"`
	Kind      ledger.TxKind `json:"kind"`
	Amount    int64         `json:"amount"`
	Balance   int64         `json:"balance"`
	At        time.Time     `json:"at"`
}

// BalanceNotifier delivery is best effort; failures are logged and never
// surface to the mutating caller.
type BalanceNotifier interface {
	BalanceChanged(ctx context.Context, event BalanceEvent)
}

// BalanceCache fronts the balance projection with a short-TTL snapshot.
// Mutating commands invalidate; the projector populates on read.
type BalanceCache interface {
	Get(ctx context.Context, accountID uuid.UUID) ([]byte, bool)
	Set(ctx context.Context, accountID uuid.UUID, payload []byte)
	Invalidate(ctx context.Context, accountID uuid.UUID)
}
