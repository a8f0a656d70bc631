//go:build unit

package ledger_test

import (
	"testing"
	"time"

	"sharpii-ledger/internal/domain/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeldReservation(t *testing.T, amount int64) *ledger.Reservation {
	t.Helper()
	r, err := ledger.NewReservation(uuid.New(), uuid.New(), amount,
		[]ledger.Allocation{{BatchID: uuid.New(), Amount: amount}}, testNow)
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	t.Run("allocations must sum to the amount", func(t *testing.T) {
		_, err := ledger.NewReservation(uuid.New(), uuid.New(), 100,
			[]ledger.Allocation{{BatchID: uuid.New(), Amount: 60}}, testNow)
		require.ErrorIs(t, err, ledger.ErrBatchInvariant)
	})

	t.Run("starts held", func(t *testing.T) {
		r := newHeldReservation(t, 100)
		assert.Equal(t, ledger.StatusHeld, r.Status)
		assert.False(t, r.Terminal())
		assert.Nil(t, r.ResultTransactionID)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		_, err := ledger.NewReservation(uuid.New(), uuid.New(), 0, nil, testNow)
		require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})
}

func TestReservationTransitions(t *testing.T) {
	txID := uuid.New()

	t.Run("held to committed", func(t *testing.T) {
		r := newHeldReservation(t, 100)
		require.NoError(t, r.MarkCommitted(txID, testNow))
		assert.Equal(t, ledger.StatusCommitted, r.Status)
		assert.True(t, r.Terminal())
		require.NotNil(t, r.ResultTransactionID)
		assert.Equal(t, txID, *r.ResultTransactionID)
	})

	t.Run("held to released", func(t *testing.T) {
		r := newHeldReservation(t, 100)
		require.NoError(t, r.MarkReleased(ledger.StatusReleased, txID, testNow))
		assert.Equal(t, ledger.StatusReleased, r.Status)
		assert.True(t, r.Terminal())
	})

	t.Run("held to expired_timeout", func(t *testing.T) {
		r := newHeldReservation(t, 100)
		require.NoError(t, r.MarkReleased(ledger.StatusExpiredTimeout, txID, testNow))
		assert.Equal(t, ledger.StatusExpiredTimeout, r.Status)
	})

	t.Run("terminal states cannot transition again", func(t *testing.T) {
		r := newHeldReservation(t, 100)
		require.NoError(t, r.MarkCommitted(txID, testNow))

		require.ErrorIs(t, r.MarkCommitted(uuid.New(), testNow), ledger.ErrReservationClosed)
		require.ErrorIs(t, r.MarkReleased(ledger.StatusReleased, uuid.New(), testNow), ledger.ErrReservationClosed)
	})

	t.Run("release requires a terminal release status", func(t *testing.T) {
		r := newHeldReservation(t, 100)
		require.ErrorIs(t, r.MarkReleased(ledger.StatusHeld, txID, testNow), ledger.ErrReservationClosed)
	})
}

func TestReservationStaleAt(t *testing.T) {
	r := newHeldReservation(t, 100)
	timeout := 30 * time.Minute

	assert.False(t, r.StaleAt(testNow, timeout))
	assert.False(t, r.StaleAt(testNow.Add(29*time.Minute), timeout))
	assert.True(t, r.StaleAt(testNow.Add(30*time.Minute), timeout))

	require.NoError(t, r.MarkCommitted(uuid.New(), testNow))
	assert.False(t, r.StaleAt(testNow.Add(time.Hour), timeout), "terminal reservations never go stale")
}
