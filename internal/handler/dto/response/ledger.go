package response

import (
	"time"

	"sharpii-ledger/internal/domain/ledger"
	"sharpii-ledger/internal/usecase/queries"

	"github.com/google/uuid"
)

type BalanceResponse struct {
	AccountID    uuid.UUID `json:"accountId"`
	Total        int64     `json:"total"`
	Available    int64     `json:"available"`
	Held         int64     `json:"held"`
	Permanent    int64     `json:"permanent"`
	ExpiringSoon int64     `json:"expiringSoon"`
	AsOf         time.Time `json:"asOf"`
}

type BatchResponse struct {
	ID        uuid.UUID  `json:"id"`
	AccountID uuid.UUID  `json:"accountId"`
	Amount    int64      `json:"amount"`
	Remaining int64      `json:"remaining"`
	Source    string     `json:"source"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type TransactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"accountId"`
	Kind          string     `json:"kind"`
	Reason        string     `json:"reason"`
	Amount        int64      `json:"amount"`
	TaskID        *uuid.UUID `json:"taskId,omitempty"`
	ReservationID *uuid.UUID `json:"reservationId,omitempty"`
	BalanceBefore int64      `json:"balanceBefore"`
	BalanceAfter  int64      `json:"balanceAfter"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type ReservationResponse struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"accountId"`
	TaskID        uuid.UUID  `json:"taskId"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	TransactionID *uuid.UUID `json:"transactionId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type CreditResponse struct {
	Batch       *BatchResponse       `json:"batch"`
	Transaction *TransactionResponse `json:"transaction"`
}

type CommitResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Replayed    bool                 `json:"replayed"`
}

type ReleaseResponse struct {
	Returned int64 `json:"returned"`
	Replayed bool  `json:"replayed"`
}

type TransactionListResponse struct {
	Items      []*TransactionResponse `json:"items"`
	NextCursor *string                `json:"nextCursor,omitempty"`
}

func FromBalanceView(v *queries.BalanceView) *BalanceResponse {
	return &BalanceResponse{
		AccountID:    v.AccountID,
		Total:        v.Total(),
		Available:    v.Available,
		Held:         v.Held,
		Permanent:    v.Permanent,
		ExpiringSoon: v.ExpiringSoon,
		AsOf:         v.AsOf,
	}
}

func FromBatch(b *ledger.Batch) *BatchResponse {
	return &BatchResponse{
		ID:        b.ID,
		AccountID: b.AccountID,
		Amount:    b.Amount,
		Remaining: b.Remaining,
		Source:    string(b.Source),
		ExpiresAt: b.ExpiresAt,
		CreatedAt: b.CreatedAt,
	}
}

func FromTransaction(t *ledger.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID,
		AccountID:     t.AccountID,
		Kind:          string(t.Kind),
		Reason:        string(t.Reason),
		Amount:        t.Amount,
		TaskID:        t.RelatedTaskID,
		ReservationID: t.RelatedReservationID,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		CreatedAt:     t.CreatedAt,
	}
}

func FromTransactionView(v *queries.TransactionView) *TransactionResponse {
	return &TransactionResponse{
		ID:            v.ID,
		AccountID:     v.AccountID,
		Kind:          v.Kind,
		Reason:        v.Reason,
		Amount:        v.Amount,
		TaskID:        v.RelatedTaskID,
		ReservationID: v.RelatedReservationID,
		BalanceBefore: v.BalanceBefore,
		BalanceAfter:  v.BalanceAfter,
		CreatedAt:     v.CreatedAt,
	}
}

func FromReservation(r *ledger.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:            r.ID,
		AccountID:     r.AccountID,
		TaskID:        r.TaskID,
		Amount:        r.Amount,
		Status:        string(r.Status),
		TransactionID: r.ResultTransactionID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func FromReservationView(v *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:            v.ID,
		AccountID:     v.AccountID,
		TaskID:        v.TaskID,
		Amount:        v.Amount,
		Status:        v.Status,
		TransactionID: v.ResultTransactionID,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}
