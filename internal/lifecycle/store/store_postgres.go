package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"welfarehub/internal/lifecycle/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create checks the natural key inside a transaction before inserting; the
// unique constraint catches concurrent inserts that pass the check.
func (s *PostgresStore) Create(ctx context.Context, e *models.Event) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		var exists bool
		err := exec.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM lifecycle_events
				WHERE user_id = $1 AND event_type = $2 AND event_date = $3 AND child_name = $4
			)`,
			uuid.UUID(e.UserID), string(e.Type), e.EventDate, e.ChildName,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check duplicate lifecycle event: %w", err)
		}
		if exists {
			return sentinel.ErrConflict
		}
		_, err = exec.ExecContext(ctx, `
			INSERT INTO lifecycle_events (id, user_id, event_type, event_date, child_name, description, is_processed, processed_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.UUID(e.ID), uuid.UUID(e.UserID), string(e.Type), e.EventDate, e.ChildName,
			e.Description, e.IsProcessed, e.ProcessedAt, e.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert lifecycle event: %w", err)
		}
		return nil
	})
}

const eventColumns = `id, user_id, event_type, event_date, child_name, description, is_processed, processed_at, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM lifecycle_events WHERE id = $1`, uuid.UUID(eventID))
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find lifecycle event: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListDue(ctx context.Context, asOf time.Time) ([]*models.Event, error) {
	return s.query(ctx, `
		SELECT `+eventColumns+` FROM lifecycle_events
		WHERE is_processed = FALSE AND event_date <= $1
		ORDER BY event_date ASC, created_at ASC, id ASC`,
		asOf,
	)
}

func (s *PostgresStore) ListUnprocessedOn(ctx context.Context, dates []time.Time, userID *id.UserID) ([]*models.Event, error) {
	days := make([]string, len(dates))
	for i, d := range dates {
		days[i] = d.Format(time.DateOnly)
	}
	var user any
	if userID != nil {
		user = uuid.UUID(*userID)
	}
	return s.query(ctx, `
		SELECT `+eventColumns+` FROM lifecycle_events
		WHERE is_processed = FALSE
		  AND event_date = ANY($1::date[])
		  AND ($2::uuid IS NULL OR user_id = $2::uuid)
		ORDER BY event_date ASC, created_at ASC, id ASC`,
		pq.Array(days), user,
	)
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, eventID id.EventID, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE lifecycle_events SET is_processed = TRUE, processed_at = $2
		WHERE id = $1 AND is_processed = FALSE`,
		uuid.UUID(eventID), at,
	)
	if err != nil {
		return fmt.Errorf("mark lifecycle event processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(ctx, eventID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lifecycle events: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lifecycle event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lifecycle events: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.Event, error) {
	var (
		e           models.Event
		rawID       uuid.UUID
		rawUser     uuid.UUID
		eventType   string
		processedAt sql.NullTime
	)
	err := row.Scan(&rawID, &rawUser, &eventType, &e.EventDate, &e.ChildName, &e.Description,
		&e.IsProcessed, &processedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.ID = id.EventID(rawID)
	e.UserID = id.UserID(rawUser)
	e.Type = models.EventType(eventType)
	e.EventDate = models.DateOf(e.EventDate)
	if processedAt.Valid {
		t := processedAt.Time
		e.ProcessedAt = &t
	}
	return &e, nil
}
