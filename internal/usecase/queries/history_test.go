//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"sharpii-ledger/internal/pkg/errs"
	"sharpii-ledger/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHistoryStore struct {
	firstPage []*queries.TransactionView
	keyset    []*queries.TransactionView

	gotFilter    queries.HistoryFilter
	gotCreatedAt time.Time
	gotID        uuid.UUID
	gotLimit     int32
	keysetCalled bool
}

func (s *stubHistoryStore) FindTransactionsFirstPage(_ context.Context, _ uuid.UUID, filter queries.HistoryFilter, limit int32) ([]*queries.TransactionView, error) {
	s.gotFilter = filter
	s.gotLimit = limit
	return s.firstPage, nil
}

func (s *stubHistoryStore) FindTransactionsKeyset(_ context.Context, _ uuid.UUID, filter queries.HistoryFilter, lastCreatedAt time.Time, lastID uuid.UUID, limit int32) ([]*queries.TransactionView, error) {
	s.keysetCalled = true
	s.gotFilter = filter
	s.gotCreatedAt = lastCreatedAt
	s.gotID = lastID
	s.gotLimit = limit
	return s.keyset, nil
}

func (s *stubHistoryStore) FindReservationByID(context.Context, uuid.UUID) (*queries.ReservationView, error) {
	return nil, nil
}

func makeViews(n int, from time.Time) []*queries.TransactionView {
	views := make([]*queries.TransactionView, n)
	for i := range views {
		views[i] = &queries.TransactionView{
			ID:        uuid.New(),
			CreatedAt: from.Add(-time.Duration(i) * time.Minute),
		}
	}
	return views
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("full page yields a cursor pointing at the last row", func(t *testing.T) {
		store := &stubHistoryStore{firstPage: makeViews(5, base)}
		q := queries.NewHistoryQueries(store)

		items, next, err := q.ListTransactions(ctx, accountID, queries.HistoryFilter{}, nil, 5)
		require.NoError(t, err)
		require.Len(t, items, 5)
		require.NotNil(t, next)

		gotAt, gotID, err := queries.DecodeAfterCursor(next.After)
		require.NoError(t, err)
		assert.True(t, items[4].CreatedAt.Equal(gotAt))
		assert.Equal(t, items[4].ID, gotID)
	})

	t.Run("short page ends pagination", func(t *testing.T) {
		store := &stubHistoryStore{firstPage: makeViews(3, base)}
		q := queries.NewHistoryQueries(store)

		items, next, err := q.ListTransactions(ctx, accountID, queries.HistoryFilter{}, nil, 5)
		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Nil(t, next)
	})

	t.Run("cursor routes to the keyset query", func(t *testing.T) {
		store := &stubHistoryStore{keyset: makeViews(1, base)}
		q := queries.NewHistoryQueries(store)

		lastAt := base.Add(-time.Hour)
		lastID := uuid.New()
		after := &queries.Cursor{After: queries.EncodeAfterCursor(lastAt, lastID)}

		_, _, err := q.ListTransactions(ctx, accountID, queries.HistoryFilter{}, after, 5)
		require.NoError(t, err)
		assert.True(t, store.keysetCalled)
		assert.True(t, lastAt.Equal(store.gotCreatedAt))
		assert.Equal(t, lastID, store.gotID)
	})

	t.Run("garbage cursor is rejected", func(t *testing.T) {
		q := queries.NewHistoryQueries(&stubHistoryStore{})

		_, _, err := q.ListTransactions(ctx, accountID, queries.HistoryFilter{}, &queries.Cursor{After: "garbage"}, 5)
		require.Error(t, err)
		assert.True(t, errs.Is(err, queries.ErrInvalidCursor), "error should carry the invalid-cursor mark")
	})

	t.Run("limit is clamped and filter forwarded", func(t *testing.T) {
		store := &stubHistoryStore{}
		q := queries.NewHistoryQueries(store)

		kind := "debit"
		_, _, err := q.ListTransactions(ctx, accountID, queries.HistoryFilter{Kind: &kind}, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(20), store.gotLimit)
		require.NotNil(t, store.gotFilter.Kind)
		assert.Equal(t, "debit", *store.gotFilter.Kind)
	})
}
