package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Source classifies where a credit grant came from.
type Source string

const (
	SourcePurchase            Source = "purchase"
	SourceSubscriptionRenewal Source = "subscription_renewal"
	SourceBonus               Source = "bonus"
	SourceAdjustment          Source = "adjustment"
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourcePurchase, SourceSubscriptionRenewal, SourceBonus, SourceAdjustment:
		return Source(s), nil
	default:
		return "", ErrInvalidSource
	}
}

// Reason returns the transaction reason recorded for a grant from this source.
func (s Source) Reason() TxReason {
	switch s {
	case SourcePurchase:
		return ReasonPurchase
	case SourceSubscriptionRenewal:
		return ReasonSubscriptionRenewal
	case SourceBonus:
		return ReasonBonus
	default:
		return ReasonAdjustment
	}
}

// Batch is a discrete grant of credits with its own remaining balance and
// optional expiry. Amount is the original grant and never changes; Remaining
// and Held move under the account lock only. Expired batches are kept with
// Remaining = 0 for audit.
type Batch struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Amount    int64
	Remaining int64
	Held      int64
	Source    Source
	ExpiresAt *time.Time
	CreatedAt time.Time
}

func NewBatch(accountID uuid.UUID, amount int64, source Source, expiresAt *time.Time, now time.Time) (*Batch, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Batch{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    amount,
		Remaining: amount,
		Held:      0,
		Source:    source,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ExpiredAt reports whether the batch's expiry horizon has passed.
func (b *Batch) ExpiredAt(now time.Time) bool {
	return b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

// Outstanding is the value still attributable to this batch: spendable
// credits plus credits earmarked by in-flight reservations.
func (b *Batch) Outstanding() int64 {
	return b.Remaining + b.Held
}

// Hold moves amount from Remaining to Held.
func (b *Batch) Hold(amount int64) error {
	if amount <= 0 || amount > b.Remaining {
		return ErrBatchInvariant
	}
	b.Remaining -= amount
	b.Held += amount
	return b.CheckInvariant()
}

// CommitHold consumes a held amount permanently.
func (b *Batch) CommitHold(amount int64) error {
	if amount <= 0 || amount > b.Held {
		return ErrBatchInvariant
	}
	b.Held -= amount
	return b.CheckInvariant()
}

// ReleaseHold returns as much of the hold as still exists back to Remaining
// and reports how much was returned. A batch that was force-expired while the
// hold was in flight has Held = 0, so nothing is resurrected.
func (b *Batch) ReleaseHold(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	returned := amount
	if returned > b.Held {
		returned = b.Held
	}
	b.Held -= returned
	b.Remaining += returned
	return returned
}

// ForceExpire zeroes both Remaining and Held, reporting the total value
// retired. Zeroing Held makes any in-flight reservation against this batch
// fail closed at commit time.
func (b *Batch) ForceExpire() int64 {
	retired := b.Remaining + b.Held
	b.Remaining = 0
	b.Held = 0
	return retired
}

func (b *Batch) CheckInvariant() error {
	if b.Remaining < 0 || b.Held < 0 || b.Remaining+b.Held > b.Amount {
		return ErrBatchInvariant
	}
	return nil
}
