package events

import (
	"context"
	"time"
)

// FreezeEvent announces one confirmed and audited trustline authorization change.
type FreezeEvent struct {
	OperationID   string    `json:"operation_id"`
	TxHash        string    `json:"tx_hash"`
	Action        string    `json:"action"`
	Scope         string    `json:"scope"`
	TargetAccount string    `json:"target_account"`
	AssetCode     string    `json:"asset_code"`
	AssetIssuer   string    `json:"asset_issuer"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers freeze events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events ...FreezeEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...FreezeEvent) error { return nil }
