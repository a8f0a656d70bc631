package ledger

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	StatusHeld           ReservationStatus = "held"
	StatusCommitted      ReservationStatus = "committed"
	StatusReleased       ReservationStatus = "released"
	StatusExpiredTimeout ReservationStatus = "expired_timeout"
)

// Allocation records how much of a hold one batch funded. The ordered list on
// a reservation pins down exactly which batches to settle at commit time and
// which to refill, in reverse, at release time.
type Allocation struct {
	BatchID uuid.UUID `json:"batch_id"`
	Amount  int64     `json:"amount"`
}

// Reservation is an intent to consume credits, tied 1:1 to an enhancement
// task. It transitions held -> committed or held -> released exactly once;
// both are terminal. expired_timeout is the sweeper's variant of released for
// holds abandoned past the timeout bound.
type Reservation struct {
	ID                  uuid.UUID
	AccountID           uuid.UUID
	TaskID              uuid.UUID
	Amount              int64
	Status              ReservationStatus
	Allocations         []Allocation
	ResultTransactionID *uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewReservation(accountID, taskID uuid.UUID, amount int64, allocations []Allocation, now time.Time) (*Reservation, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	var total int64
	for _, a := range allocations {
		total += a.Amount
	}
	if total != amount {
		return nil, ErrBatchInvariant
	}
	return &Reservation{
		ID:          uuid.New(),
		AccountID:   accountID,
		TaskID:      taskID,
		Amount:      amount,
		Status:      StatusHeld,
		Allocations: allocations,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *Reservation) Terminal() bool {
	return r.Status != StatusHeld
}

// StaleAt reports whether a still-held reservation has outlived the timeout
// bound and should be force-released by the sweeper.
func (r *Reservation) StaleAt(now time.Time, timeout time.Duration) bool {
	return r.Status == StatusHeld && now.Sub(r.CreatedAt) >= timeout
}

func (r *Reservation) MarkCommitted(txID uuid.UUID, now time.Time) error {
	if r.Status != StatusHeld {
		return ErrReservationClosed
	}
	r.Status = StatusCommitted
	r.ResultTransactionID = &txID
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) MarkReleased(status ReservationStatus, txID uuid.UUID, now time.Time) error {
	if status != StatusReleased && status != StatusExpiredTimeout {
		return ErrReservationClosed
	}
	if r.Status != StatusHeld {
		return ErrReservationClosed
	}
	r.Status = status
	r.ResultTransactionID = &txID
	r.UpdatedAt = now
	return nil
}
