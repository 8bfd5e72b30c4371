package events

import (
	"context"
	"time"
)

type Type string

const (
	CartCreated     Type = "cart.created"
	ProductsAdded   Type = "cart.products_added"
	QuantityUpdated Type = "cart.quantity_updated"
	ItemRemoved     Type = "cart.item_removed"
	ItemDeleted     Type = "cart.item_deleted"
)

// CartEvent describes a change that was persisted to a cart.
// CartID is empty for collection-wide deletes.
type CartEvent struct {
	Type       Type      `json:"type"`
	CartID     string    `json:"cartId,omitempty"`
	ProductIDs []string  `json:"productIds,omitempty"`
	ProductQty int       `json:"productQty,omitempty"`
	Modified   int64     `json:"modified,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event CartEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, CartEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
