//go:build unit

package ledger_test

import (
	"testing"
	"time"

	"sharpii-ledger/internal/domain/ledger"
	"sharpii-ledger/internal/pkg/ptr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(t *testing.T, amount int64, expiresAt *time.Time, createdAt time.Time) *ledger.Batch {
	t.Helper()
	b, err := ledger.NewBatch(uuid.New(), amount, ledger.SourcePurchase, expiresAt, createdAt)
	require.NoError(t, err)
	return b
}

func TestSortForConsumption(t *testing.T) {
	expiringSoon := newTestBatch(t, 10, ptr.To(testNow.Add(24*time.Hour)), testNow)
	expiringLater := newTestBatch(t, 10, ptr.To(testNow.Add(72*time.Hour)), testNow.Add(-time.Hour))
	permanentOld := newTestBatch(t, 10, nil, testNow.Add(-48*time.Hour))
	permanentNew := newTestBatch(t, 10, nil, testNow)

	batches := []*ledger.Batch{permanentNew, expiringLater, permanentOld, expiringSoon}
	ledger.SortForConsumption(batches)

	assert.Equal(t, []*ledger.Batch{expiringSoon, expiringLater, permanentOld, permanentNew}, batches)
}

func TestSortForConsumption_EqualExpiryFallsBackToOldest(t *testing.T) {
	expiry := testNow.Add(24 * time.Hour)
	older := newTestBatch(t, 10, &expiry, testNow.Add(-2*time.Hour))
	newer := newTestBatch(t, 10, &expiry, testNow)

	batches := []*ledger.Batch{newer, older}
	ledger.SortForConsumption(batches)

	assert.Equal(t, []*ledger.Batch{older, newer}, batches)
}

func TestPlanAllocations(t *testing.T) {
	t.Run("draws from expiring batch first", func(t *testing.T) {
		expiring := newTestBatch(t, 100, ptr.To(testNow.Add(48*time.Hour)), testNow)
		permanent := newTestBatch(t, 50, nil, testNow.Add(-time.Hour))

		allocs, err := ledger.PlanAllocations([]*ledger.Batch{permanent, expiring}, 60, testNow)
		require.NoError(t, err)

		require.Len(t, allocs, 1)
		assert.Equal(t, expiring.ID, allocs[0].BatchID)
		assert.Equal(t, int64(60), allocs[0].Amount)
	})

	t.Run("spills over into the next batch", func(t *testing.T) {
		expiring := newTestBatch(t, 100, ptr.To(testNow.Add(48*time.Hour)), testNow)
		permanent := newTestBatch(t, 50, nil, testNow)

		allocs, err := ledger.PlanAllocations([]*ledger.Batch{permanent, expiring}, 120, testNow)
		require.NoError(t, err)

		require.Len(t, allocs, 2)
		assert.Equal(t, ledger.Allocation{BatchID: expiring.ID, Amount: 100}, allocs[0])
		assert.Equal(t, ledger.Allocation{BatchID: permanent.ID, Amount: 20}, allocs[1])
	})

	t.Run("shortfall yields no plan", func(t *testing.T) {
		expiring := newTestBatch(t, 100, ptr.To(testNow.Add(48*time.Hour)), testNow)
		permanent := newTestBatch(t, 50, nil, testNow)

		allocs, err := ledger.PlanAllocations([]*ledger.Batch{permanent, expiring}, 200, testNow)
		require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		assert.Nil(t, allocs)
	})

	t.Run("expired batches are skipped", func(t *testing.T) {
		expired := newTestBatch(t, 100, ptr.To(testNow.Add(-time.Hour)), testNow.Add(-48*time.Hour))
		permanent := newTestBatch(t, 50, nil, testNow)

		allocs, err := ledger.PlanAllocations([]*ledger.Batch{expired, permanent}, 50, testNow)
		require.NoError(t, err)
		require.Len(t, allocs, 1)
		assert.Equal(t, permanent.ID, allocs[0].BatchID)

		_, err = ledger.PlanAllocations([]*ledger.Batch{expired, permanent}, 51, testNow)
		require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		permanent := newTestBatch(t, 50, nil, testNow)
		_, err := ledger.PlanAllocations([]*ledger.Batch{permanent}, 0, testNow)
		require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})
}

func TestOutstandingBalance(t *testing.T) {
	expiring := newTestBatch(t, 100, ptr.To(testNow.Add(48*time.Hour)), testNow)
	permanent := newTestBatch(t, 50, nil, testNow)
	expired := newTestBatch(t, 30, ptr.To(testNow.Add(-time.Hour)), testNow.Add(-72*time.Hour))

	require.NoError(t, expiring.Hold(40))

	total := ledger.OutstandingBalance([]*ledger.Batch{expiring, permanent, expired}, testNow)
	assert.Equal(t, int64(150), total, "held credits still count; expired batches do not")
}
