package queries

import (
	"context"

	"sharpii-ledger/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrInvalidCursor = errs.New("invalid pagination cursor")

type HistoryQueries interface {
	// ListTransactions pages through the append-only ledger, newest first.
	// The returned cursor is nil when the page was not full.
	ListTransactions(ctx context.Context, accountID uuid.UUID, filter HistoryFilter, after *Cursor, limit int) ([]*TransactionView, *Cursor, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error)
}

type historyQueriesImpl struct {
	store HistoryReadStore
}

func NewHistoryQueries(store HistoryReadStore) HistoryQueries {
	return &historyQueriesImpl{store: store}
}

func (q *historyQueriesImpl) ListTransactions(ctx context.Context, accountID uuid.UUID, filter HistoryFilter, after *Cursor, limit int) ([]*TransactionView, *Cursor, error) {
	limit = ValidateLimit(limit)

	var (
		items []*TransactionView
		err   error
	)
	if after == nil || after.After == "" {
		items, err = q.store.FindTransactionsFirstPage(ctx, accountID, filter, int32(limit))
	} else {
		lastCreatedAt, lastID, decodeErr := DecodeAfterCursor(after.After)
		if decodeErr != nil {
			return nil, nil, errs.Mark(decodeErr, ErrInvalidCursor)
		}
		items, err = q.store.FindTransactionsKeyset(ctx, accountID, filter, lastCreatedAt, lastID, int32(limit))
	}
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(items) == limit {
		last := items[len(items)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
	}
	return items, next, nil
}

func (q *historyQueriesImpl) GetReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	return q.store.FindReservationByID(ctx, id)
}
