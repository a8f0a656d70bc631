package ledger

import "sharpii-ledger/internal/pkg/errs"

var (
	// ErrInvalidAmount rejects non-positive credit or reserve amounts before
	// any mutation happens.
	ErrInvalidAmount = errs.New("amount must be positive")

	// ErrInsufficientBalance means the account's free balance cannot cover a
	// reserve request; the reserve leaves no partial state behind.
	ErrInsufficientBalance = errs.New("insufficient balance")

	// ErrUnknownReservation marks commit/release calls that reference a
	// reservation id that was never created.
	ErrUnknownReservation = errs.New("unknown reservation")

	// ErrReservationClosed marks a commit on a released reservation or a
	// release on a committed one. Re-calls of the op that closed the
	// reservation are idempotent and do not hit this error.
	ErrReservationClosed = errs.New("reservation already resolved")

	// ErrReservationExpired means a funding batch was force-expired while the
	// hold was in flight; the commit fails closed and the reservation is
	// released.
	ErrReservationExpired = errs.New("reservation hold expired")

	// ErrBatchInvariant signals ledger corruption (negative remaining/held or
	// remaining+held exceeding the grant). Writes to the account halt until an
	// operator intervenes.
	ErrBatchInvariant = errs.New("batch invariant violation")

	// ErrAccountFrozen blocks mutations on an account halted after an
	// invariant violation.
	ErrAccountFrozen = errs.New("account frozen")

	ErrInvalidSource = errs.New("invalid credit source")
)
