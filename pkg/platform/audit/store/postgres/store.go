package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "welfarehub/pkg/domain"
	audit "welfarehub/pkg/platform/audit"
	"welfarehub/pkg/platform/tx"
)

// Store appends audit events to the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes the batch in one transaction.
func (s *Store) Append(ctx context.Context, events ...audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		for _, e := range events {
			var userID *uuid.UUID
			if !e.UserID.IsNil() {
				uid := uuid.UUID(e.UserID)
				userID = &uid
			}
			_, err := exec.ExecContext(ctx, `
				INSERT INTO audit_events (id, occurred_at, action, user_id, actor_id, subject, outcome, request_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.New(), e.Timestamp, string(e.Action), userID, e.ActorID, e.Subject, e.Outcome, e.RequestID,
			)
			if err != nil {
				return fmt.Errorf("insert audit event: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, action, user_id, actor_id, subject, outcome, request_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`, uuid.UUID(userID), limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, action, user_id, actor_id, subject, outcome, request_id
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// limitOrAll maps a non-positive limit to NULL, which LIMIT treats as no limit.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var out []audit.Event
	for rows.Next() {
		var (
			e      audit.Event
			action string
			userID uuid.NullUUID
		)
		if err := rows.Scan(&e.Timestamp, &action, &userID, &e.ActorID, &e.Subject, &e.Outcome, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		if userID.Valid {
			e.UserID = id.UserID(userID.UUID)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
