package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type BalanceView struct {
	AccountID    uuid.UUID `json:"account_id"`
	Available    int64     `json:"available"`
	Held         int64     `json:"held"`
	Permanent    int64     `json:"permanent"`
	ExpiringSoon int64     `json:"expiring_soon"`
	AsOf         time.Time `json:"as_of"`
}

// Total is the ledger-visible balance: spendable credits plus credits
// parked under active holds.
func (v BalanceView) Total() int64 {
	return v.Available + v.Held
}

type TransactionView struct {
	ID                   uuid.UUID  `json:"id"`
	AccountID            uuid.UUID  `json:"account_id"`
	Kind                 string     `json:"kind"`
	Reason               string     `json:"reason"`
	Amount               int64      `json:"amount"`
	RelatedTaskID        *uuid.UUID `json:"related_task_id,omitempty"`
	RelatedReservationID *uuid.UUID `json:"related_reservation_id,omitempty"`
	BalanceBefore        int64      `json:"balance_before"`
	BalanceAfter         int64      `json:"balance_after"`
	CreatedAt            time.Time  `json:"created_at"`
}

type ReservationView struct {
	ID                  uuid.UUID  `json:"id"`
	AccountID           uuid.UUID  `json:"account_id"`
	TaskID              uuid.UUID  `json:"task_id"`
	Amount              int64      `json:"amount"`
	Status              string     `json:"status"`
	ResultTransactionID *uuid.UUID `json:"result_transaction_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// HistoryFilter narrows the transaction listing. Nil fields mean no filter.
type HistoryFilter struct {
	Kind   *string
	Reason *string
	TaskID *uuid.UUID
	From   *time.Time
	To     *time.Time
}

type BalanceReadStore interface {
	// Snapshot aggregates active batches in one query. Batches past expiry
	// are excluded even before the sweeper retires them.
	Snapshot(ctx context.Context, accountID uuid.UUID, now, expiringBefore time.Time) (*BalanceView, error)
}

type HistoryReadStore interface {
	FindTransactionsFirstPage(ctx context.Context, accountID uuid.UUID, filter HistoryFilter, limit int32) ([]*TransactionView, error)
	FindTransactionsKeyset(ctx context.Context, accountID uuid.UUID, filter HistoryFilter, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*TransactionView, error)
	FindReservationByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
}
