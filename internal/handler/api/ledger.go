package api

import (
	"net/http"

	"sharpii-ledger/internal/domain/ledger"
	reqdto "sharpii-ledger/internal/handler/dto/request"
	resdto "sharpii-ledger/internal/handler/dto/response"
	"sharpii-ledger/internal/handler/httperr"
	"sharpii-ledger/internal/handler/middleware"
	"sharpii-ledger/internal/infra"
	"sharpii-ledger/internal/pkg/errs"
	"sharpii-ledger/internal/usecase/commands"
	"sharpii-ledger/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errAccountScope = errs.New("caller may not access this account")

type LedgerHandler struct {
	cmds    commands.LedgerCommands
	balance queries.BalanceQueries
	history queries.HistoryQueries
}

func NewLedgerHandler(cmds commands.LedgerCommands, balance queries.BalanceQueries, history queries.HistoryQueries) *LedgerHandler {
	return &LedgerHandler{cmds: cmds, balance: balance, history: history}
}

// @Summary Grant credits
// @Description Grant a new credit batch to an account
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param request body reqdto.CreditRequest true "Credit request"
// @Success 201 {object} resdto.CreditResponse
// @Failure 400 {object} map[string]string
// @Failure 423 {object} map[string]string
// @Router /accounts/{id}/credits [post]
func (h *LedgerHandler) Credit(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid account id", nil)
		return
	}
	var req reqdto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	source, err := ledger.ParseSource(req.Source)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid source", nil)
		return
	}

	result, err := h.cmds.Credit(c.Request.Context(), accountID, req.Amount, source, req.ExpiresAt)
	if err != nil {
		abortLedgerError(c, err, "Credit failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.CreditResponse{
		Batch:       resdto.FromBatch(result.Batch),
		Transaction: resdto.FromTransaction(result.Transaction),
	})
}

// @Summary Reserve credits
// @Description Place a hold against an account for an enhancement task
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param request body reqdto.ReserveRequest true "Reserve request"
// @Success 201 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 402 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /accounts/{id}/reservations [post]
func (h *LedgerHandler) Reserve(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid account id", nil)
		return
	}
	var req reqdto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid task id", nil)
		return
	}

	result, err := h.cmds.Reserve(c.Request.Context(), accountID, taskID, req.Amount)
	if err != nil {
		abortLedgerError(c, err, "Reserve failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.FromReservation(result.Reservation))
}

// @Summary Commit reservation
// @Description Debit a held reservation after the task succeeded
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.CommitResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/commit [post]
func (h *LedgerHandler) Commit(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation id", nil)
		return
	}

	result, err := h.cmds.Commit(c.Request.Context(), reservationID)
	if err != nil {
		abortLedgerError(c, err, "Commit failed")
		return
	}

	resp := resdto.CommitResponse{Replayed: result.Replayed}
	if result.Transaction != nil {
		resp.Transaction = resdto.FromTransaction(result.Transaction)
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Release reservation
// @Description Return a hold to spendable after the task failed or was cancelled
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReleaseResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/release [post]
func (h *LedgerHandler) Release(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation id", nil)
		return
	}

	result, err := h.cmds.Release(c.Request.Context(), reservationID)
	if err != nil {
		abortLedgerError(c, err, "Release failed")
		return
	}
	c.JSON(http.StatusOK, resdto.ReleaseResponse{
		Returned: result.Returned,
		Replayed: result.Replayed,
	})
}

// @Summary Get balance
// @Description Current spendable balance with its breakdown
// @Tags balance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} resdto.BalanceResponse
// @Failure 403 {object} map[string]string
// @Router /accounts/{id}/balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid account id", nil)
		return
	}
	if !middleware.CanAccessAccount(c, accountID) {
		httperr.AbortWithError(c, http.StatusForbidden, errAccountScope, "Forbidden", nil)
		return
	}

	view, err := h.balance.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		abortLedgerError(c, err, "Failed to load balance")
		return
	}
	c.JSON(http.StatusOK, resdto.FromBalanceView(view))
}

// @Summary List transactions
// @Description Page through the account's ledger history, newest first
// @Tags history
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param kind query string false "Filter by kind"
// @Param reason query string false "Filter by reason"
// @Param task_id query string false "Filter by related task"
// @Param from query string false "RFC 3339 lower bound (inclusive)"
// @Param to query string false "RFC 3339 upper bound (exclusive)"
// @Param after query string false "Cursor from a previous page"
// @Param limit query int false "Page size"
// @Success 200 {object} resdto.TransactionListResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /accounts/{id}/transactions [get]
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid account id", nil)
		return
	}
	if !middleware.CanAccessAccount(c, accountID) {
		httperr.AbortWithError(c, http.StatusForbidden, errAccountScope, "Forbidden", nil)
		return
	}

	var req reqdto.ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}

	filter := queries.HistoryFilter{
		Kind:   req.Kind,
		Reason: req.Reason,
		From:   req.From,
		To:     req.To,
	}
	if req.TaskID != nil {
		taskID, err := uuid.Parse(*req.TaskID)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid task id", nil)
			return
		}
		filter.TaskID = &taskID
	}
	var after *queries.Cursor
	if req.After != "" {
		after = &queries.Cursor{After: req.After}
	}

	items, next, err := h.history.ListTransactions(c.Request.Context(), accountID, filter, after, req.Limit)
	if err != nil {
		abortLedgerError(c, err, "Failed to list transactions")
		return
	}

	resp := resdto.TransactionListResponse{Items: make([]*resdto.TransactionResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, resdto.FromTransactionView(item))
	}
	if next != nil {
		resp.NextCursor = &next.After
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get reservation
// @Description Look up a reservation's current state
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *LedgerHandler) GetReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation id", nil)
		return
	}

	view, err := h.history.GetReservation(c.Request.Context(), reservationID)
	if err != nil {
		abortLedgerError(c, err, "Failed to load reservation")
		return
	}
	if !middleware.CanAccessAccount(c, view.AccountID) {
		httperr.AbortWithError(c, http.StatusForbidden, errAccountScope, "Forbidden", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// abortLedgerError maps domain errors onto HTTP statuses. 402 for shortfalls
// keeps quota exhaustion distinguishable from malformed requests; 423 marks
// an account halted after an invariant violation.
func abortLedgerError(c *gin.Context, err error, msg string) {
	switch {
	case errs.Is(err, ledger.ErrInvalidAmount),
		errs.Is(err, ledger.ErrInvalidSource),
		errs.Is(err, commands.ErrExpiredGrant),
		errs.Is(err, queries.ErrInvalidCursor):
		httperr.AbortWithError(c, http.StatusBadRequest, err, msg, nil)
	case errs.Is(err, ledger.ErrInsufficientBalance):
		httperr.AbortWithError(c, http.StatusPaymentRequired, err, "Insufficient balance", nil)
	case errs.Is(err, ledger.ErrUnknownReservation):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
	case infra.IsKind(err, infra.KindNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	case errs.Is(err, commands.ErrDuplicateTask),
		errs.Is(err, ledger.ErrReservationClosed),
		errs.Is(err, ledger.ErrReservationExpired):
		httperr.AbortWithError(c, http.StatusConflict, err, msg, nil)
	case errs.Is(err, ledger.ErrAccountFrozen):
		httperr.AbortWithError(c, http.StatusLocked, err, "Account frozen", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
