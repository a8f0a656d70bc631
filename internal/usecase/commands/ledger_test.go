//go:build unit

package commands_test

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"sharpii-ledger/internal/domain/ledger"
	"sharpii-ledger/internal/infra"
	"sharpii-ledger/internal/pkg/clock"
	"sharpii-ledger/internal/pkg/config"
	"sharpii-ledger/internal/pkg/ptr"
	"sharpii-ledger/internal/usecase/commands"
	"sharpii-ledger/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// =============================================================================
// In-memory store with transactional rollback
// =============================================================================

type fakeStore struct {
	frozen       map[uuid.UUID]bool
	batches      map[uuid.UUID]*ledger.Batch
	transactions map[uuid.UUID]*ledger.Transaction
	txOrder      []uuid.UUID
	reservations map[uuid.UUID]*ledger.Reservation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		frozen:       make(map[uuid.UUID]bool),
		batches:      make(map[uuid.UUID]*ledger.Batch),
		transactions: make(map[uuid.UUID]*ledger.Transaction),
		reservations: make(map[uuid.UUID]*ledger.Reservation),
	}
}

func copyBatch(b *ledger.Batch) *ledger.Batch {
	c := *b
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func copyTransaction(t *ledger.Transaction) *ledger.Transaction {
	c := *t
	if t.RelatedTaskID != nil {
		c.RelatedTaskID = ptr.To(*t.RelatedTaskID)
	}
	if t.RelatedReservationID != nil {
		c.RelatedReservationID = ptr.To(*t.RelatedReservationID)
	}
	return &c
}

func copyReservation(r *ledger.Reservation) *ledger.Reservation {
	c := *r
	c.Allocations = append([]ledger.Allocation(nil), r.Allocations...)
	if r.ResultTransactionID != nil {
		c.ResultTransactionID = ptr.To(*r.ResultTransactionID)
	}
	return &c
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for id, v := range s.frozen {
		c.frozen[id] = v
	}
	for id, b := range s.batches {
		c.batches[id] = copyBatch(b)
	}
	for id, t := range s.transactions {
		c.transactions[id] = copyTransaction(t)
	}
	c.txOrder = append([]uuid.UUID(nil), s.txOrder...)
	for id, r := range s.reservations {
		c.reservations[id] = copyReservation(r)
	}
	return c
}

func (s *fakeStore) LockAccount(_ context.Context, _ shared.DBTX, accountID uuid.UUID) (bool, error) {
	if _, ok := s.frozen[accountID]; !ok {
		s.frozen[accountID] = false
	}
	return s.frozen[accountID], nil
}

func (s *fakeStore) FreezeAccount(_ context.Context, _ shared.DBTX, accountID uuid.UUID) error {
	s.frozen[accountID] = true
	return nil
}

func (s *fakeStore) OutstandingBatches(_ context.Context, _ shared.DBTX, accountID uuid.UUID) ([]*ledger.Batch, error) {
	var out []*ledger.Batch
	for _, b := range s.batches {
		if b.AccountID == accountID && b.Outstanding() > 0 {
			out = append(out, copyBatch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (s *fakeStore) BatchesByIDs(_ context.Context, _ shared.DBTX, ids []uuid.UUID) ([]*ledger.Batch, error) {
	var out []*ledger.Batch
	for _, id := range ids {
		if b, ok := s.batches[id]; ok {
			out = append(out, copyBatch(b))
		}
	}
	return out, nil
}

func (s *fakeStore) InsertBatch(_ context.Context, _ shared.DBTX, batch *ledger.Batch) error {
	s.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (s *fakeStore) UpdateBatch(_ context.Context, _ shared.DBTX, batch *ledger.Batch) error {
	if _, ok := s.batches[batch.ID]; !ok {
		return infra.WrapRepoErr("batch not found", nil, infra.KindNotFound)
	}
	s.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (s *fakeStore) InsertTransaction(_ context.Context, _ shared.DBTX, tx *ledger.Transaction) error {
	if _, ok := s.transactions[tx.ID]; ok {
		return infra.WrapRepoErr("duplicate transaction", nil, infra.KindDuplicateKey)
	}
	s.transactions[tx.ID] = copyTransaction(tx)
	s.txOrder = append(s.txOrder, tx.ID)
	return nil
}

func (s *fakeStore) GetTransaction(_ context.Context, _ shared.DBTX, id uuid.UUID) (*ledger.Transaction, error) {
	tx, ok := s.transactions[id]
	if !ok {
		return nil, infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
	}
	return copyTransaction(tx), nil
}

func (s *fakeStore) InsertReservation(_ context.Context, _ shared.DBTX, res *ledger.Reservation) error {
	for _, existing := range s.reservations {
		if existing.TaskID == res.TaskID && existing.Status == ledger.StatusHeld {
			return infra.WrapRepoErr("duplicate task hold", nil, infra.KindDuplicateKey)
		}
	}
	s.reservations[res.ID] = copyReservation(res)
	return nil
}

func (s *fakeStore) GetReservation(_ context.Context, _ shared.DBTX, id uuid.UUID) (*ledger.Reservation, error) {
	res, ok := s.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return copyReservation(res), nil
}

func (s *fakeStore) UpdateReservation(_ context.Context, _ shared.DBTX, res *ledger.Reservation) error {
	if _, ok := s.reservations[res.ID]; !ok {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	s.reservations[res.ID] = copyReservation(res)
	return nil
}

func (s *fakeStore) AccountsWithDueBatches(_ context.Context, _ shared.DBTX, now time.Time, limit int) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, b := range s.batches {
		if b.ExpiredAt(now) && b.Outstanding() > 0 && !seen[b.AccountID] {
			seen[b.AccountID] = true
			ids = append(ids, b.AccountID)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

func (s *fakeStore) StaleHeldReservations(_ context.Context, _ shared.DBTX, heldBefore time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, r := range s.reservations {
		if r.Status == ledger.StatusHeld && !r.CreatedAt.After(heldBefore) {
			ids = append(ids, r.ID)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

// orderedTransactions returns the account's ledger rows in append order.
func (s *fakeStore) orderedTransactions(accountID uuid.UUID) []*ledger.Transaction {
	var out []*ledger.Transaction
	for _, id := range s.txOrder {
		if tx := s.transactions[id]; tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}

type fakeUoW struct {
	store *fakeStore
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	snapshot := u.store.clone()
	if err := fn(ctx, &fakeTx{store: u.store}); err != nil {
		*u.store = *snapshot
		return err
	}
	return nil
}

func (u *fakeUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, db shared.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, db shared.DBTX) error) error {
	return fn(ctx, nil)
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Ledger() shared.LedgerRepository { return t.store }
func (t *fakeTx) DB() shared.DBTX                 { return nil }

type fakeCache struct {
	invalidations int
}

func (c *fakeCache) Get(context.Context, uuid.UUID) ([]byte, bool) { return nil, false }
func (c *fakeCache) Set(context.Context, uuid.UUID, []byte)        {}
func (c *fakeCache) Invalidate(context.Context, uuid.UUID)         { c.invalidations++ }

type fakeNotifier struct {
	events []shared.BalanceEvent
}

func (n *fakeNotifier) BalanceChanged(_ context.Context, event shared.BalanceEvent) {
	n.events = append(n.events, event)
}

type testEnv struct {
	cmds  commands.LedgerCommands
	store *fakeStore
	clk   *clock.MockClock
	cache *fakeCache
	notes *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	clk := clock.NewMockClock(testNow)
	cache := &fakeCache{}
	notes := &fakeNotifier{}
	cfg := config.LedgerConfig{
		ExpiringSoonWindow: 168 * time.Hour,
		ReservationTimeout: 30 * time.Minute,
		SweepPageSize:      100,
	}
	cmds := commands.NewLedgerUseCase(&fakeUoW{store: store}, store, cache, notes, clk, cfg)
	return &testEnv{cmds: cmds, store: store, clk: clk, cache: cache, notes: notes}
}

func (e *testEnv) spendable(t *testing.T, accountID uuid.UUID) int64 {
	t.Helper()
	var total int64
	for _, b := range e.store.batches {
		if b.AccountID == accountID && !b.ExpiredAt(e.clk.Now()) {
			total += b.Remaining
		}
	}
	return total
}

func (e *testEnv) held(t *testing.T, accountID uuid.UUID) int64 {
	t.Helper()
	var total int64
	for _, b := range e.store.batches {
		if b.AccountID == accountID {
			total += b.Held
		}
	}
	return total
}

// =============================================================================
// Credit
// =============================================================================

func TestCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("grants a batch and appends a credit transaction", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()

		result, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		assert.Equal(t, int64(100), result.Batch.Remaining)
		assert.Equal(t, ledger.KindCredit, result.Transaction.Kind)
		assert.Equal(t, ledger.ReasonPurchase, result.Transaction.Reason)
		assert.Equal(t, int64(0), result.Transaction.BalanceBefore)
		assert.Equal(t, int64(100), result.Transaction.BalanceAfter)
		assert.Equal(t, int64(100), env.spendable(t, accountID))

		require.Len(t, env.notes.events, 1)
		assert.Equal(t, int64(100), env.notes.events[0].Balance)
		assert.Equal(t, 1, env.cache.invalidations)
	})

	t.Run("subsequent grants bracket the running balance", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()

		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		result, err := env.cmds.Credit(ctx, accountID, 50, ledger.SourceBonus, nil)
		require.NoError(t, err)

		assert.Equal(t, int64(100), result.Transaction.BalanceBefore)
		assert.Equal(t, int64(150), result.Transaction.BalanceAfter)
		assert.Equal(t, ledger.ReasonBonus, result.Transaction.Reason)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.cmds.Credit(ctx, uuid.New(), 0, ledger.SourcePurchase, nil)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

		_, err = env.cmds.Credit(ctx, uuid.New(), -5, ledger.SourcePurchase, nil)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})

	t.Run("rejects an expiry in the past", func(t *testing.T) {
		env := newTestEnv(t)

		past := testNow.Add(-time.Hour)
		_, err := env.cmds.Credit(ctx, uuid.New(), 10, ledger.SourceBonus, &past)
		assert.ErrorIs(t, err, commands.ErrExpiredGrant)
	})

	t.Run("frozen account refuses grants", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		env.store.frozen[accountID] = true

		_, err := env.cmds.Credit(ctx, accountID, 10, ledger.SourcePurchase, nil)
		assert.ErrorIs(t, err, ledger.ErrAccountFrozen)
	})
}

// =============================================================================
// Reserve
// =============================================================================

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("moves credits from spendable to held without a ledger row", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		result, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)

		assert.Equal(t, ledger.StatusHeld, result.Reservation.Status)
		assert.Equal(t, int64(70), env.spendable(t, accountID))
		assert.Equal(t, int64(30), env.held(t, accountID))
		assert.Len(t, env.store.orderedTransactions(accountID), 1) // only the credit
	})

	t.Run("consumes expiring batches before permanent ones", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()

		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		expiring, err := env.cmds.Credit(ctx, accountID, 20, ledger.SourceBonus, ptr.To(testNow.Add(24*time.Hour)))
		require.NoError(t, err)

		result, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 15)
		require.NoError(t, err)

		require.Len(t, result.Reservation.Allocations, 1)
		assert.Equal(t, expiring.Batch.ID, result.Reservation.Allocations[0].BatchID)
		assert.Equal(t, int64(15), result.Reservation.Allocations[0].Amount)
	})

	t.Run("spills over across batches in consumption order", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()

		expiring, err := env.cmds.Credit(ctx, accountID, 20, ledger.SourceBonus, ptr.To(testNow.Add(24*time.Hour)))
		require.NoError(t, err)
		permanent, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		result, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 50)
		require.NoError(t, err)

		require.Len(t, result.Reservation.Allocations, 2)
		assert.Equal(t, expiring.Batch.ID, result.Reservation.Allocations[0].BatchID)
		assert.Equal(t, int64(20), result.Reservation.Allocations[0].Amount)
		assert.Equal(t, permanent.Batch.ID, result.Reservation.Allocations[1].BatchID)
		assert.Equal(t, int64(30), result.Reservation.Allocations[1].Amount)
	})

	t.Run("insufficient balance leaves no partial state", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 40, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		_, err = env.cmds.Reserve(ctx, accountID, uuid.New(), 50)
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

		assert.Equal(t, int64(40), env.spendable(t, accountID))
		assert.Equal(t, int64(0), env.held(t, accountID))
		assert.Empty(t, env.store.reservations)
	})

	t.Run("held credits are not double-reservable", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 50, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		_, err = env.cmds.Reserve(ctx, accountID, uuid.New(), 40)
		require.NoError(t, err)

		_, err = env.cmds.Reserve(ctx, accountID, uuid.New(), 20)
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	})

	t.Run("rejects a second hold for the same task", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		taskID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		_, err = env.cmds.Reserve(ctx, accountID, taskID, 10)
		require.NoError(t, err)
		_, err = env.cmds.Reserve(ctx, accountID, taskID, 10)
		assert.ErrorIs(t, err, commands.ErrDuplicateTask)
	})
}

// =============================================================================
// Commit
// =============================================================================

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("debits held credits and appends a consumption row", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		taskID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, taskID, 30)
		require.NoError(t, err)

		result, err := env.cmds.Commit(ctx, reserved.Reservation.ID)
		require.NoError(t, err)

		assert.Equal(t, ledger.KindDebit, result.Transaction.Kind)
		assert.Equal(t, ledger.ReasonTaskConsumption, result.Transaction.Reason)
		assert.Equal(t, int64(-30), result.Transaction.Amount)
		assert.Equal(t, int64(100), result.Transaction.BalanceBefore)
		assert.Equal(t, int64(70), result.Transaction.BalanceAfter)
		assert.Equal(t, taskID, *result.Transaction.RelatedTaskID)

		assert.Equal(t, int64(70), env.spendable(t, accountID))
		assert.Equal(t, int64(0), env.held(t, accountID))
		assert.Equal(t, ledger.StatusCommitted, env.store.reservations[reserved.Reservation.ID].Status)
	})

	t.Run("re-commit replays the stored result without a second debit", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)

		first, err := env.cmds.Commit(ctx, reserved.Reservation.ID)
		require.NoError(t, err)
		second, err := env.cmds.Commit(ctx, reserved.Reservation.ID)
		require.NoError(t, err)

		assert.True(t, second.Replayed)
		assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
		assert.Equal(t, int64(70), env.spendable(t, accountID))
		assert.Len(t, env.store.orderedTransactions(accountID), 2) // credit + one debit
	})

	t.Run("commit after release is refused", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)
		_, err = env.cmds.Release(ctx, reserved.Reservation.ID)
		require.NoError(t, err)

		_, err = env.cmds.Commit(ctx, reserved.Reservation.ID)
		assert.ErrorIs(t, err, ledger.ErrReservationClosed)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.cmds.Commit(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrUnknownReservation)
	})

	t.Run("fails closed when a funding batch expired under the hold", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 20, ledger.SourceBonus, ptr.To(testNow.Add(time.Hour)))
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 20)
		require.NoError(t, err)

		env.clk.Advance(2 * time.Hour)

		_, err = env.cmds.Commit(ctx, reserved.Reservation.ID)
		assert.ErrorIs(t, err, ledger.ErrReservationExpired)

		// The hold was funded entirely by the expired batch, so nothing
		// comes back and the reservation ends released.
		assert.Equal(t, int64(0), env.spendable(t, accountID))
		assert.Equal(t, int64(0), env.held(t, accountID))
		assert.Equal(t, ledger.StatusReleased, env.store.reservations[reserved.Reservation.ID].Status)

		// Ledger shows the expiry write-off.
		txs := env.store.orderedTransactions(accountID)
		require.Len(t, txs, 3) // credit, expire, release marker
		assert.Equal(t, ledger.KindExpire, txs[1].Kind)
		assert.Equal(t, int64(-20), txs[1].Amount)
		assert.Equal(t, int64(0), txs[1].BalanceAfter)
	})

	t.Run("partially expired funding returns the surviving hold", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 20, ledger.SourceBonus, ptr.To(testNow.Add(time.Hour)))
		require.NoError(t, err)
		_, err = env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 50) // 20 expiring + 30 permanent
		require.NoError(t, err)

		env.clk.Advance(2 * time.Hour)

		_, err = env.cmds.Commit(ctx, reserved.Reservation.ID)
		assert.ErrorIs(t, err, ledger.ErrReservationExpired)

		// The permanent batch's 30 held credits return to spendable.
		assert.Equal(t, int64(100), env.spendable(t, accountID))
		assert.Equal(t, int64(0), env.held(t, accountID))
	})
}

// =============================================================================
// Release
// =============================================================================

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the hold without debiting", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)

		result, err := env.cmds.Release(ctx, reserved.Reservation.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(30), result.Returned)
		assert.Equal(t, ledger.KindRelease, result.Transaction.Kind)
		assert.Equal(t, int64(0), result.Transaction.Amount)
		assert.Equal(t, int64(100), env.spendable(t, accountID))
		assert.Equal(t, int64(0), env.held(t, accountID))
	})

	t.Run("re-release replays", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)

		first, err := env.cmds.Release(ctx, reserved.Reservation.ID)
		require.NoError(t, err)
		second, err := env.cmds.Release(ctx, reserved.Reservation.ID)
		require.NoError(t, err)

		assert.True(t, second.Replayed)
		assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
		assert.Equal(t, int64(100), env.spendable(t, accountID))
	})

	t.Run("release after commit is refused", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)
		_, err = env.cmds.Commit(ctx, reserved.Reservation.ID)
		require.NoError(t, err)

		_, err = env.cmds.Release(ctx, reserved.Reservation.ID)
		assert.ErrorIs(t, err, ledger.ErrReservationClosed)
		assert.Equal(t, int64(70), env.spendable(t, accountID))
	})

	t.Run("unknown reservation", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.cmds.Release(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrUnknownReservation)
	})
}

// =============================================================================
// Expiry and sweep entry points
// =============================================================================

func TestExpireDueBatches(t *testing.T) {
	ctx := context.Background()

	t.Run("retires due batches with an expire row", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		_, err = env.cmds.Credit(ctx, accountID, 25, ledger.SourceBonus, ptr.To(testNow.Add(time.Hour)))
		require.NoError(t, err)

		env.clk.Advance(2 * time.Hour)

		retired, err := env.cmds.ExpireDueBatches(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, int64(25), retired)
		assert.Equal(t, int64(100), env.spendable(t, accountID))

		txs := env.store.orderedTransactions(accountID)
		require.Len(t, txs, 3)
		assert.Equal(t, ledger.KindExpire, txs[2].Kind)
		assert.Equal(t, int64(-25), txs[2].Amount)
		assert.Equal(t, int64(125), txs[2].BalanceBefore)
		assert.Equal(t, int64(100), txs[2].BalanceAfter)
	})

	t.Run("expiry happens lazily on the next mutation", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 25, ledger.SourceBonus, ptr.To(testNow.Add(time.Hour)))
		require.NoError(t, err)

		env.clk.Advance(2 * time.Hour)

		// The grant settles the expired batch before adding the new one.
		result, err := env.cmds.Credit(ctx, accountID, 10, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Transaction.BalanceBefore)
		assert.Equal(t, int64(10), result.Transaction.BalanceAfter)

		txs := env.store.orderedTransactions(accountID)
		require.Len(t, txs, 3)
		assert.Equal(t, ledger.KindExpire, txs[1].Kind)
	})

	t.Run("nothing due is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		retired, err := env.cmds.ExpireDueBatches(ctx, accountID)
		require.NoError(t, err)
		assert.Zero(t, retired)
		assert.Len(t, env.store.orderedTransactions(accountID), 1)
	})
}

func TestReleaseTimedOut(t *testing.T) {
	ctx := context.Background()

	t.Run("force-releases a hold past the timeout", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)

		env.clk.Advance(31 * time.Minute)

		require.NoError(t, env.cmds.ReleaseTimedOut(ctx, reserved.Reservation.ID))
		assert.Equal(t, ledger.StatusExpiredTimeout, env.store.reservations[reserved.Reservation.ID].Status)
		assert.Equal(t, int64(100), env.spendable(t, accountID))
	})

	t.Run("fresh holds are left alone", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)

		env.clk.Advance(5 * time.Minute)

		require.NoError(t, env.cmds.ReleaseTimedOut(ctx, reserved.Reservation.ID))
		assert.Equal(t, ledger.StatusHeld, env.store.reservations[reserved.Reservation.ID].Status)
	})

	t.Run("already resolved reservations are a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		reserved, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 30)
		require.NoError(t, err)
		_, err = env.cmds.Commit(ctx, reserved.Reservation.ID)
		require.NoError(t, err)

		env.clk.Advance(time.Hour)

		require.NoError(t, env.cmds.ReleaseTimedOut(ctx, reserved.Reservation.ID))
		assert.Equal(t, ledger.StatusCommitted, env.store.reservations[reserved.Reservation.ID].Status)
	})
}

func TestSweepScans(t *testing.T) {
	ctx := context.Background()

	t.Run("finds accounts with due batches", func(t *testing.T) {
		env := newTestEnv(t)
		dueAccount := uuid.New()
		freshAccount := uuid.New()
		_, err := env.cmds.Credit(ctx, dueAccount, 10, ledger.SourceBonus, ptr.To(testNow.Add(time.Hour)))
		require.NoError(t, err)
		_, err = env.cmds.Credit(ctx, freshAccount, 10, ledger.SourcePurchase, nil)
		require.NoError(t, err)

		env.clk.Advance(2 * time.Hour)

		ids, err := env.cmds.DueAccounts(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{dueAccount}, ids)
	})

	t.Run("finds stale held reservations", func(t *testing.T) {
		env := newTestEnv(t)
		accountID := uuid.New()
		_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
		require.NoError(t, err)
		stale, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 10)
		require.NoError(t, err)

		env.clk.Advance(time.Hour)
		fresh, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 10)
		require.NoError(t, err)

		ids, err := env.cmds.StaleReservations(ctx, 10)
		require.NoError(t, err)
		assert.Contains(t, ids, stale.Reservation.ID)
		assert.NotContains(t, ids, fresh.Reservation.ID)
	})
}

// =============================================================================
// Ledger integrity across a mixed history
// =============================================================================

func TestLedgerConservation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	accountID := uuid.New()

	_, err := env.cmds.Credit(ctx, accountID, 100, ledger.SourcePurchase, nil)
	require.NoError(t, err)
	_, err = env.cmds.Credit(ctx, accountID, 40, ledger.SourceBonus, ptr.To(testNow.Add(time.Hour)))
	require.NoError(t, err)

	r1, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 50)
	require.NoError(t, err)
	_, err = env.cmds.Commit(ctx, r1.Reservation.ID)
	require.NoError(t, err)

	r2, err := env.cmds.Reserve(ctx, accountID, uuid.New(), 20)
	require.NoError(t, err)
	_, err = env.cmds.Release(ctx, r2.Reservation.ID)
	require.NoError(t, err)

	env.clk.Advance(2 * time.Hour)
	_, err = env.cmds.ExpireDueBatches(ctx, accountID)
	require.NoError(t, err)

	txs := env.store.orderedTransactions(accountID)
	require.NotEmpty(t, txs)

	// Every row brackets its own delta and chains onto the previous row.
	var running int64
	for _, tx := range txs {
		assert.Equal(t, running, tx.BalanceBefore, "row %s breaks the balance chain", tx.ID)
		assert.Equal(t, tx.BalanceBefore+tx.Amount, tx.BalanceAfter)
		assert.GreaterOrEqual(t, tx.BalanceAfter, int64(0))
		running = tx.BalanceAfter
	}

	// The replayed log agrees with the stored batches.
	assert.Equal(t, env.spendable(t, accountID)+env.held(t, accountID), running)
}
