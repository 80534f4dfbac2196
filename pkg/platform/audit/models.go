// Package audit records who changed what. Events are emitted from request
// paths and persisted in the background; losing an event never fails the
// request that produced it.
package audit

import (
	"context"
	"time"

	id "welfarehub/pkg/domain"
)

// Action names an audited operation.
type Action string

const (
	ActionBookmarkCreated     Action = "bookmark_created"
	ActionBookmarkUpdated     Action = "bookmark_updated"
	ActionBookmarkDeleted     Action = "bookmark_deleted"
	ActionAdminRequest        Action = "admin_request"
	ActionLifecycleSweep      Action = "lifecycle_sweep"
	ActionSavingsProductSaved Action = "savings_product_saved"
)

// Event is one audit record. UserID is the affected user and may be nil for
// catalog-wide admin actions; ActorID is set when someone else acted.
type Event struct {
	Timestamp time.Time
	Action    Action
	UserID    id.UserID
	ActorID   string
	Subject   string
	Outcome   string
	RequestID string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, events ...Event) error
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Emitter is what domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}
