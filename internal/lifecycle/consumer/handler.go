// Package consumer adapts lifecycle event creation to Kafka messages.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"welfarehub/internal/lifecycle/models"
	"welfarehub/internal/lifecycle/service"
	"welfarehub/internal/platform/kafka/consumer"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
)

// DefaultTopic carries lifecycle creation messages.
const DefaultTopic = "lifecycle.events"

type Recorder interface {
	Record(ctx context.Context, in service.NewEvent) (*models.Event, error)
}

// Payload is the message body. EventDate is YYYY-MM-DD.
type Payload struct {
	UserID      string `json:"user_id"`
	EventType   string `json:"event_type"`
	EventDate   string `json:"event_date"`
	ChildName   string `json:"child_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Encode marshals a payload for publishing; the key is the user ID so one
// user's events keep their order within a partition.
func Encode(p Payload) (key, value []byte, err error) {
	value, err = json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	return []byte(p.UserID), value, nil
}

type Handler struct {
	recorder Recorder
	logger   *slog.Logger
}

func NewHandler(recorder Recorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{recorder: recorder, logger: logger}
}

// Handle records one event. Malformed, invalid and duplicate messages are
// logged and acknowledged so they do not block the partition; only storage
// failures are returned for retry.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	in, err := decode(msg.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "dropping malformed lifecycle message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if _, err := h.recorder.Record(ctx, in); err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeConflict):
			h.logger.InfoContext(ctx, "duplicate lifecycle event ignored",
				"user_id", in.UserID.String(),
				"offset", msg.Offset,
			)
			return nil
		case dErrors.HasCode(err, dErrors.CodeValidation):
			h.logger.WarnContext(ctx, "dropping invalid lifecycle event",
				"user_id", in.UserID.String(),
				"offset", msg.Offset,
				"error", err,
			)
			return nil
		}
		return err
	}
	return nil
}

var errMissingField = errors.New("missing required field")

func decode(raw []byte) (service.NewEvent, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return service.NewEvent{}, err
	}
	if p.UserID == "" || p.EventType == "" || p.EventDate == "" {
		return service.NewEvent{}, errMissingField
	}
	userID, err := id.ParseUserID(p.UserID)
	if err != nil {
		return service.NewEvent{}, err
	}
	date, err := time.Parse(time.DateOnly, p.EventDate)
	if err != nil {
		return service.NewEvent{}, err
	}
	return service.NewEvent{
		UserID:      userID,
		Type:        p.EventType,
		EventDate:   date,
		ChildName:   p.ChildName,
		Description: p.Description,
	}, nil
}
