package request

import "time"

type CreditRequest struct {
	Amount    int64      `json:"amount" binding:"required,gt=0"`
	Source    string     `json:"source" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type ReserveRequest struct {
	TaskID string `json:"task_id" binding:"required,uuid"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// ListTransactionsRequest binds the history listing query string. From/To
// take RFC 3339 timestamps; After is an opaque cursor from a previous page.
type ListTransactionsRequest struct {
	Kind   *string    `form:"kind"`
	Reason *string    `form:"reason"`
	TaskID *string    `form:"task_id"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	After  string     `form:"after"`
	Limit  int        `form:"limit"`
}
