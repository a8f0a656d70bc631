package ledger

import (
	"sort"
	"time"
)

// SortForConsumption orders batches by the consumption policy: batches with
// an expiry come first, nearest expiry ahead, so credits that would otherwise
// be wasted are spent before credits that never expire. Ties and non-expiring
// batches fall back to oldest-first.
func SortForConsumption(batches []*Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		switch {
		case a.ExpiresAt != nil && b.ExpiresAt == nil:
			return true
		case a.ExpiresAt == nil && b.ExpiresAt != nil:
			return false
		case a.ExpiresAt != nil && b.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

// PlanAllocations walks active batches in consumption order and assigns the
// requested amount across them. It is a pure planning step: no batch is
// mutated, and a shortfall returns ErrInsufficientBalance with no plan at
// all, which keeps reserve all-or-nothing.
func PlanAllocations(batches []*Batch, amount int64, now time.Time) ([]Allocation, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	active := make([]*Batch, 0, len(batches))
	for _, b := range batches {
		if !b.ExpiredAt(now) && b.Remaining > 0 {
			active = append(active, b)
		}
	}
	SortForConsumption(active)

	var allocations []Allocation
	needed := amount
	for _, b := range active {
		if needed == 0 {
			break
		}
		take := b.Remaining
		if take > needed {
			take = needed
		}
		allocations = append(allocations, Allocation{BatchID: b.ID, Amount: take})
		needed -= take
	}

	if needed > 0 {
		return nil, ErrInsufficientBalance
	}
	return allocations, nil
}

// OutstandingBalance sums the ledger-visible balance over active batches:
// spendable credits plus held credits. This is the figure bracketed by
// transaction rows.
func OutstandingBalance(batches []*Batch, now time.Time) int64 {
	var total int64
	for _, b := range batches {
		if !b.ExpiredAt(now) {
			total += b.Outstanding()
		}
	}
	return total
}
