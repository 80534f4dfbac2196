// Package domain holds typed identifiers and small domain primitives shared
// across bounded contexts.
package domain

import (
	"github.com/google/uuid"

	dErrors "welfarehub/pkg/domain-errors"
)

// Typed IDs keep user, benefit, event and bookmark identifiers from being
// swapped by accident. They are all UUIDs on the wire.
type (
	UserID     uuid.UUID
	BenefitID  uuid.UUID
	EventID    uuid.UUID
	BookmarkID uuid.UUID
	ProductID  uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id BenefitID) String() string  { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }
func (id BookmarkID) String() string { return uuid.UUID(id).String() }
func (id ProductID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id BenefitID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BookmarkID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings.
func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id BenefitID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id BookmarkID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ProductID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func NewUserID() UserID         { return UserID(uuid.New()) }
func NewBenefitID() BenefitID   { return BenefitID(uuid.New()) }
func NewEventID() EventID       { return EventID(uuid.New()) }
func NewBookmarkID() BookmarkID { return BookmarkID(uuid.New()) }
func NewProductID() ProductID   { return ProductID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseBenefitID(s string) (BenefitID, error) {
	u, err := parseUUID(s, "benefit_id")
	return BenefitID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event_id")
	return EventID(u), err
}

func ParseBookmarkID(s string) (BookmarkID, error) {
	u, err := parseUUID(s, "bookmark_id")
	return BookmarkID(u), err
}

func ParseProductID(s string) (ProductID, error) {
	u, err := parseUUID(s, "product_id")
	return ProductID(u), err
}

// parseUUID rejects empty, malformed and nil UUIDs at trust boundaries.
func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
