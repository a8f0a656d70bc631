package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"sharpii-ledger/internal/usecase/shared"

	"github.com/go-redis/redis/v8"
)

const eventChannelPrefix = "ledger:events:"

// EventPublisher pushes balance change events over Redis Pub/Sub so account
// frontends can refresh without polling. Publishing happens after the
// database transaction commits; a dropped event only delays a UI refresh.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) BalanceChanged(ctx context.Context, event shared.BalanceEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to encode balance event", "account_id", event.AccountID, "error", err.Error())
		return
	}
	channel := eventChannelPrefix + event.AccountID.String()
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		slog.Warn("failed to publish balance event", "channel", channel, "error", err.Error())
	}
}
