package commands

import (
	"context"
	"log/slog"
	"time"

	"sharpii-ledger/internal/domain/ledger"
	"sharpii-ledger/internal/infra"
	"sharpii-ledger/internal/metrics"
	"sharpii-ledger/internal/pkg/clock"
	"sharpii-ledger/internal/pkg/config"
	"sharpii-ledger/internal/pkg/errs"
	"sharpii-ledger/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateTask rejects a reserve for a task that already has an
	// active hold. Tasks map 1:1 to reservations.
	ErrDuplicateTask = errs.New("task already has an active hold")

	ErrExpiredGrant = errs.New("grant expiry must be in the future")
)

type CreditResult struct {
	Batch       *ledger.Batch
	Transaction *ledger.Transaction
}

type ReserveResult struct {
	Reservation *ledger.Reservation
}

type CommitResult struct {
	Transaction *ledger.Transaction
	// Replayed is true when the reservation was already committed and the
	// stored result was returned instead of debiting again.
	Replayed bool
}

type ReleaseResult struct {
	Transaction *ledger.Transaction
	// Returned is how many credits went back to spendable. Less than the
	// reservation amount when a funding batch expired while the hold was open.
	Returned int64
	Replayed bool
}

type LedgerCommands interface {
	// Credit grants a new batch and appends the matching credit transaction.
	Credit(ctx context.Context, accountID uuid.UUID, amount int64, source ledger.Source, expiresAt *time.Time) (*CreditResult, error)

	// Reserve places an all-or-nothing hold for an enhancement task. No
	// transaction row is written; the balance is unchanged until commit.
	Reserve(ctx context.Context, accountID, taskID uuid.UUID, amount int64) (*ReserveResult, error)

	// Commit debits a held reservation. Re-committing a committed
	// reservation replays the stored result. If a funding batch expired
	// while the hold was open the commit fails closed: surviving holds are
	// returned, the reservation is released, and ErrReservationExpired is
	// returned.
	Commit(ctx context.Context, reservationID uuid.UUID) (*CommitResult, error)

	// Release returns a hold to spendable without debiting. Re-releasing
	// replays; releasing a committed reservation is ErrReservationClosed.
	Release(ctx context.Context, reservationID uuid.UUID) (*ReleaseResult, error)

	// ExpireDueBatches retires the account's batches past expiry, returning
	// the credits written off. Mutating operations do this lazily; the
	// sweeper calls it to bound staleness for idle accounts.
	ExpireDueBatches(ctx context.Context, accountID uuid.UUID) (int64, error)

	// ReleaseTimedOut force-releases a reservation held past the timeout
	// bound, marking it expired_timeout. A no-op if the reservation has
	// already been resolved or is not yet stale.
	ReleaseTimedOut(ctx context.Context, reservationID uuid.UUID) error

	// Sweep scans, read without the account lock and re-checked under it.
	DueAccounts(ctx context.Context, limit int) ([]uuid.UUID, error)
	StaleReservations(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type ledgerUseCaseImpl struct {
	uow      shared.UnitOfWork
	repo     shared.LedgerRepository
	cache    shared.BalanceCache
	notifier shared.BalanceNotifier
	clock    clock.Clock
	cfg      config.LedgerConfig
}

func NewLedgerUseCase(
	uow shared.UnitOfWork,
	repo shared.LedgerRepository,
	cache shared.BalanceCache,
	notifier shared.BalanceNotifier,
	clk clock.Clock,
	cfg config.LedgerConfig,
) LedgerCommands {
	return &ledgerUseCaseImpl{
		uow:      uow,
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
	}
}

// accountState is the view of an account after taking its lock and lazily
// retiring due batches. balance is the ledger-visible figure the next
// transaction row brackets.
type accountState struct {
	batches []*ledger.Batch
	balance int64
	retired int64
}

// lockAndSettle serializes on the account row, then retires every batch past
// expiry before the caller's operation sees the account. Each retirement
// appends its own expire transaction so the ledger explains the balance drop.
func (u *ledgerUseCaseImpl) lockAndSettle(ctx context.Context, tx shared.Tx, accountID uuid.UUID, now time.Time) (*accountState, error) {
	frozen, err := tx.Ledger().LockAccount(ctx, tx.DB(), accountID)
	if err != nil {
		return nil, err
	}
	if frozen {
		return nil, ledger.ErrAccountFrozen
	}

	batches, err := tx.Ledger().OutstandingBatches(ctx, tx.DB(), accountID)
	if err != nil {
		return nil, err
	}

	var balance int64
	for _, b := range batches {
		balance += b.Outstanding()
	}

	state := &accountState{balance: balance}
	for _, b := range batches {
		if !b.ExpiredAt(now) {
			state.batches = append(state.batches, b)
			continue
		}

		retired := b.ForceExpire()
		if retired == 0 {
			continue
		}
		if err := tx.Ledger().UpdateBatch(ctx, tx.DB(), b); err != nil {
			return nil, err
		}
		expireTx, err := ledger.NewTransaction(
			accountID, ledger.KindExpire, ledger.ReasonExpired,
			-retired, state.balance, nil, nil, now)
		if err != nil {
			return nil, err
		}
		if err := tx.Ledger().InsertTransaction(ctx, tx.DB(), expireTx); err != nil {
			return nil, err
		}
		state.balance -= retired
		state.retired += retired
	}

	return state, nil
}

func (u *ledgerUseCaseImpl) Credit(ctx context.Context, accountID uuid.UUID, amount int64, source ledger.Source, expiresAt *time.Time) (*CreditResult, error) {
	defer u.observe("credit")()

	now := u.clock.Now()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, ErrExpiredGrant
	}

	var result CreditResult
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		state, err := u.lockAndSettle(ctx, tx, accountID, now)
		if err != nil {
			return err
		}

		batch, err := ledger.NewBatch(accountID, amount, source, expiresAt, now)
		if err != nil {
			return err
		}
		if err := tx.Ledger().InsertBatch(ctx, tx.DB(), batch); err != nil {
			return err
		}

		creditTx, err := ledger.NewTransaction(
			accountID, ledger.KindCredit, source.Reason(),
			amount, state.balance, nil, nil, now)
		if err != nil {
			return err
		}
		if err := tx.Ledger().InsertTransaction(ctx, tx.DB(), creditTx); err != nil {
			return err
		}

		result = CreditResult{Batch: batch, Transaction: creditTx}
		return nil
	})
	if err != nil {
		return nil, u.handleInvariant(ctx, accountID, err)
	}

	metrics.CreditsGranted.WithLabelValues(string(source)).Add(float64(amount))
	u.afterMutation(ctx, accountID, result.Transaction)
	return &result, nil
}

func (u *ledgerUseCaseImpl) Reserve(ctx context.Context, accountID, taskID uuid.UUID, amount int64) (*ReserveResult, error) {
	defer u.observe("reserve")()

	now := u.clock.Now()

	var result ReserveResult
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		state, err := u.lockAndSettle(ctx, tx, accountID, now)
		if err != nil {
			return err
		}

		allocations, err := ledger.PlanAllocations(state.batches, amount, now)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*ledger.Batch, len(state.batches))
		for _, b := range state.batches {
			byID[b.ID] = b
		}
		for _, alloc := range allocations {
			b := byID[alloc.BatchID]
			if err := b.Hold(alloc.Amount); err != nil {
				return err
			}
			if err := tx.Ledger().UpdateBatch(ctx, tx.DB(), b); err != nil {
				return err
			}
		}

		res, err := ledger.NewReservation(accountID, taskID, amount, allocations, now)
		if err != nil {
			return err
		}
		if err := tx.Ledger().InsertReservation(ctx, tx.DB(), res); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDuplicateTask
			}
			return err
		}

		result = ReserveResult{Reservation: res}
		return nil
	})
	if err != nil {
		if errs.Is(err, ledger.ErrInsufficientBalance) {
			metrics.ReservationsRejected.WithLabelValues("insufficient_balance").Inc()
		}
		return nil, u.handleInvariant(ctx, accountID, err)
	}

	metrics.ReservationsOpened.Inc()
	// Holds shift the spendable/held breakdown even though the total is
	// unchanged.
	u.cache.Invalidate(ctx, accountID)
	return &result, nil
}

func (u *ledgerUseCaseImpl) Commit(ctx context.Context, reservationID uuid.UUID) (*CommitResult, error) {
	defer u.observe("commit")()

	now := u.clock.Now()
	accountID, err := u.reservationAccount(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	var (
		result  CommitResult
		expired bool
	)
	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		result = CommitResult{}
		expired = false

		state, err := u.lockAndSettle(ctx, tx, accountID, now)
		if err != nil {
			return err
		}

		res, err := u.getReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.Terminal() {
			if res.Status != ledger.StatusCommitted {
				return ledger.ErrReservationClosed
			}
			replayTx, err := u.resultTransaction(ctx, tx, res)
			if err != nil {
				return err
			}
			result = CommitResult{Transaction: replayTx, Replayed: true}
			return nil
		}

		byID := make(map[uuid.UUID]*ledger.Batch, len(state.batches))
		for _, b := range state.batches {
			byID[b.ID] = b
		}

		// A funding batch that was retired while the hold was open had its
		// held credits zeroed; the hold can no longer be settled in full.
		for _, alloc := range res.Allocations {
			b, ok := byID[alloc.BatchID]
			if !ok || b.Held < alloc.Amount {
				expired = true
				break
			}
		}
		if expired {
			_, releaseTx, err := u.releaseAllocations(ctx, tx, res, byID, state.balance, now)
			if err != nil {
				return err
			}
			if err := res.MarkReleased(ledger.StatusReleased, releaseTx.ID, now); err != nil {
				return err
			}
			return tx.Ledger().UpdateReservation(ctx, tx.DB(), res)
		}

		for _, alloc := range res.Allocations {
			b := byID[alloc.BatchID]
			if err := b.CommitHold(alloc.Amount); err != nil {
				return err
			}
			if err := tx.Ledger().UpdateBatch(ctx, tx.DB(), b); err != nil {
				return err
			}
		}

		debitTx, err := ledger.NewTransaction(
			accountID, ledger.KindDebit, ledger.ReasonTaskConsumption,
			-res.Amount, state.balance, &res.TaskID, &res.ID, now)
		if err != nil {
			return err
		}
		if err := tx.Ledger().InsertTransaction(ctx, tx.DB(), debitTx); err != nil {
			return err
		}
		if err := res.MarkCommitted(debitTx.ID, now); err != nil {
			return err
		}
		if err := tx.Ledger().UpdateReservation(ctx, tx.DB(), res); err != nil {
			return err
		}

		result = CommitResult{Transaction: debitTx}
		return nil
	})
	if err != nil {
		return nil, u.handleInvariant(ctx, accountID, err)
	}
	if expired {
		metrics.ReservationsResolved.WithLabelValues("expired").Inc()
		u.cache.Invalidate(ctx, accountID)
		return nil, ledger.ErrReservationExpired
	}
	if result.Replayed {
		return &result, nil
	}

	metrics.CreditsConsumed.Add(float64(-result.Transaction.Amount))
	metrics.ReservationsResolved.WithLabelValues("committed").Inc()
	u.afterMutation(ctx, accountID, result.Transaction)
	return &result, nil
}

func (u *ledgerUseCaseImpl) Release(ctx context.Context, reservationID uuid.UUID) (*ReleaseResult, error) {
	defer u.observe("release")()

	result, accountID, err := u.release(ctx, reservationID, ledger.StatusReleased, nil)
	if err != nil {
		return nil, err
	}
	if !result.Replayed {
		metrics.ReservationsResolved.WithLabelValues("released").Inc()
		u.cache.Invalidate(ctx, accountID)
	}
	return result, nil
}

func (u *ledgerUseCaseImpl) ReleaseTimedOut(ctx context.Context, reservationID uuid.UUID) error {
	defer u.observe("release_timed_out")()

	stale := func(res *ledger.Reservation, now time.Time) bool {
		return res.StaleAt(now, u.cfg.ReservationTimeout)
	}
	result, accountID, err := u.release(ctx, reservationID, ledger.StatusExpiredTimeout, stale)
	if err != nil {
		// Already-resolved reservations are not an error for the sweeper.
		if errs.Is(err, ledger.ErrReservationClosed) {
			return nil
		}
		return err
	}
	if result != nil && !result.Replayed {
		metrics.ReservationsResolved.WithLabelValues("timed_out").Inc()
		u.cache.Invalidate(ctx, accountID)
	}
	return nil
}

// release is the shared path for client releases and sweeper timeouts. guard,
// when non-nil, can veto the release under the lock; a vetoed release returns
// a nil result and no error.
func (u *ledgerUseCaseImpl) release(
	ctx context.Context,
	reservationID uuid.UUID,
	status ledger.ReservationStatus,
	guard func(*ledger.Reservation, time.Time) bool,
) (*ReleaseResult, uuid.UUID, error) {
	now := u.clock.Now()
	accountID, err := u.reservationAccount(ctx, reservationID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	var result *ReleaseResult
	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		result = nil

		state, err := u.lockAndSettle(ctx, tx, accountID, now)
		if err != nil {
			return err
		}

		res, err := u.getReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.Terminal() {
			if res.Status == ledger.StatusCommitted {
				return ledger.ErrReservationClosed
			}
			replayTx, err := u.resultTransaction(ctx, tx, res)
			if err != nil {
				return err
			}
			result = &ReleaseResult{Transaction: replayTx, Replayed: true}
			return nil
		}
		if guard != nil && !guard(res, now) {
			return nil
		}

		byID := make(map[uuid.UUID]*ledger.Batch, len(state.batches))
		for _, b := range state.batches {
			byID[b.ID] = b
		}
		returned, releaseTx, err := u.releaseAllocations(ctx, tx, res, byID, state.balance, now)
		if err != nil {
			return err
		}
		if err := res.MarkReleased(status, releaseTx.ID, now); err != nil {
			return err
		}
		if err := tx.Ledger().UpdateReservation(ctx, tx.DB(), res); err != nil {
			return err
		}

		result = &ReleaseResult{Transaction: releaseTx, Returned: returned}
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, u.handleInvariant(ctx, accountID, err)
	}
	return result, accountID, nil
}

// releaseAllocations gives surviving holds back to their batches and appends
// the zero-amount release marker. The marker carries no balance change
// because releasing moves value between held and spendable, both inside the
// ledger-visible balance.
func (u *ledgerUseCaseImpl) releaseAllocations(
	ctx context.Context,
	tx shared.Tx,
	res *ledger.Reservation,
	byID map[uuid.UUID]*ledger.Batch,
	balance int64,
	now time.Time,
) (int64, *ledger.Transaction, error) {
	var returned int64
	for _, alloc := range res.Allocations {
		b, ok := byID[alloc.BatchID]
		if !ok {
			continue
		}
		got := b.ReleaseHold(alloc.Amount)
		if got == 0 {
			continue
		}
		returned += got
		if err := tx.Ledger().UpdateBatch(ctx, tx.DB(), b); err != nil {
			return 0, nil, err
		}
	}

	releaseTx, err := ledger.NewTransaction(
		res.AccountID, ledger.KindRelease, ledger.ReasonReleased,
		0, balance, &res.TaskID, &res.ID, now)
	if err != nil {
		return 0, nil, err
	}
	if err := tx.Ledger().InsertTransaction(ctx, tx.DB(), releaseTx); err != nil {
		return 0, nil, err
	}
	return returned, releaseTx, nil
}

func (u *ledgerUseCaseImpl) ExpireDueBatches(ctx context.Context, accountID uuid.UUID) (int64, error) {
	defer u.observe("expire_due_batches")()

	var retired int64
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		state, err := u.lockAndSettle(ctx, tx, accountID, u.clock.Now())
		if err != nil {
			return err
		}
		retired = state.retired
		return nil
	})
	if err != nil {
		return 0, u.handleInvariant(ctx, accountID, err)
	}
	if retired > 0 {
		metrics.CreditsExpired.Add(float64(retired))
		u.cache.Invalidate(ctx, accountID)
	}
	return retired, nil
}

func (u *ledgerUseCaseImpl) DueAccounts(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := u.uow.WithDB(ctx, func(ctx context.Context, db shared.DBTX) error {
		var err error
		ids, err = u.repo.AccountsWithDueBatches(ctx, db, u.clock.Now(), limit)
		return err
	})
	return ids, err
}

func (u *ledgerUseCaseImpl) StaleReservations(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := u.uow.WithDB(ctx, func(ctx context.Context, db shared.DBTX) error {
		var err error
		heldBefore := u.clock.Now().Add(-u.cfg.ReservationTimeout)
		ids, err = u.repo.StaleHeldReservations(ctx, db, heldBefore, limit)
		return err
	})
	return ids, err
}

func (u *ledgerUseCaseImpl) reservationAccount(ctx context.Context, reservationID uuid.UUID) (uuid.UUID, error) {
	var accountID uuid.UUID
	err := u.uow.WithDB(ctx, func(ctx context.Context, db shared.DBTX) error {
		res, err := u.repo.GetReservation(ctx, db, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ledger.ErrUnknownReservation
			}
			return err
		}
		accountID = res.AccountID
		return nil
	})
	return accountID, err
}

func (u *ledgerUseCaseImpl) getReservation(ctx context.Context, tx shared.Tx, id uuid.UUID) (*ledger.Reservation, error) {
	res, err := tx.Ledger().GetReservation(ctx, tx.DB(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ledger.ErrUnknownReservation
		}
		return nil, err
	}
	return res, nil
}

func (u *ledgerUseCaseImpl) resultTransaction(ctx context.Context, tx shared.Tx, res *ledger.Reservation) (*ledger.Transaction, error) {
	if res.ResultTransactionID == nil {
		return nil, nil
	}
	return tx.Ledger().GetTransaction(ctx, tx.DB(), *res.ResultTransactionID)
}

// handleInvariant freezes the account when a mutation tripped the batch
// invariant. The freeze runs outside the failed transaction so it survives
// the rollback; every later mutation on the account is then refused until an
// operator intervenes.
func (u *ledgerUseCaseImpl) handleInvariant(ctx context.Context, accountID uuid.UUID, err error) error {
	if !errs.Is(err, ledger.ErrBatchInvariant) {
		return err
	}

	metrics.InvariantViolations.Inc()
	slog.Error("batch invariant violation, freezing account",
		"account_id", accountID,
		"error", err.Error())

	freezeErr := u.uow.WithDB(ctx, func(ctx context.Context, db shared.DBTX) error {
		return u.repo.FreezeAccount(ctx, db, accountID)
	})
	if freezeErr != nil {
		slog.Error("failed to freeze account after invariant violation",
			"account_id", accountID,
			"error", freezeErr.Error())
	}
	return err
}

func (u *ledgerUseCaseImpl) afterMutation(ctx context.Context, accountID uuid.UUID, tx *ledger.Transaction) {
	u.cache.Invalidate(ctx, accountID)
	if tx == nil {
		return
	}
	u.notifier.BalanceChanged(ctx, shared.BalanceEvent{
		AccountID: accountID,
		Kind:      tx.Kind,
		Amount:    tx.Amount,
		Balance:   tx.BalanceAfter,
		At:        tx.CreatedAt,
	})
}

func (u *ledgerUseCaseImpl) observe(operation string) func() {
	start := time.Now()
	return func() {
		metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
