package ledger

import (
	"time"

	"github.com/google/uuid"
)

type TxKind string

const (
	KindCredit  TxKind = "credit"
	KindDebit   TxKind = "debit"
	KindExpire  TxKind = "expire"
	KindRelease TxKind = "release"
)

func ParseTxKind(s string) (TxKind, bool) {
	switch TxKind(s) {
	case KindCredit, KindDebit, KindExpire, KindRelease:
		return TxKind(s), true
	default:
		return "", false
	}
}

type TxReason string

const (
	ReasonPurchase            TxReason = "purchase"
	ReasonSubscriptionRenewal TxReason = "subscription_renewal"
	ReasonBonus               TxReason = "bonus"
	ReasonAdjustment          TxReason = "adjustment"
	ReasonTaskConsumption     TxReason = "task_consumption"
	ReasonExpired             TxReason = "expired"
	ReasonReleased            TxReason = "released"
)

// Transaction is an immutable, append-only ledger entry. Amount is signed
// from the account's perspective and BalanceAfter - BalanceBefore == Amount
// holds for every row, so replaying an account's log reproduces its balance
// exactly. Balance here counts every credit not yet consumed or expired,
// held or not.
type Transaction struct {
	ID                   uuid.UUID
	AccountID            uuid.UUID
	Kind                 TxKind
	Reason               TxReason
	Amount               int64
	RelatedTaskID        *uuid.UUID
	RelatedReservationID *uuid.UUID
	BalanceBefore        int64
	BalanceAfter         int64
	CreatedAt            time.Time
}

func NewTransaction(
	accountID uuid.UUID,
	kind TxKind,
	reason TxReason,
	amount int64,
	balanceBefore int64,
	taskID, reservationID *uuid.UUID,
	now time.Time,
) (*Transaction, error) {
	tx := &Transaction{
		ID:                   uuid.New(),
		AccountID:            accountID,
		Kind:                 kind,
		Reason:               reason,
		Amount:               amount,
		RelatedTaskID:        taskID,
		RelatedReservationID: reservationID,
		BalanceBefore:        balanceBefore,
		BalanceAfter:         balanceBefore + amount,
		CreatedAt:            now,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func (t *Transaction) Validate() error {
	if t.BalanceAfter-t.BalanceBefore != t.Amount {
		return ErrBatchInvariant
	}
	if t.BalanceAfter < 0 {
		return ErrBatchInvariant
	}
	return nil
}
