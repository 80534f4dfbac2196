package bookmark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, b *models.Bookmark) error {
	var benefitID any
	if b.BenefitID != nil {
		benefitID = uuid.UUID(*b.BenefitID)
	}
	var externalID any
	if b.ExternalBenefitID != "" {
		externalID = b.ExternalBenefitID
	}
	query := `
		INSERT INTO welfare_bookmarks (id, user_id, benefit_id, external_benefit_id, memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(b.ID), uuid.UUID(b.UserID), benefitID, externalID, b.Memo, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save bookmark: %w", err)
	}
	return nil
}

const bookmarkColumns = `id, user_id, benefit_id, external_benefit_id, memo, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, bookmarkID id.BookmarkID) (*models.Bookmark, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookmarkColumns+` FROM welfare_bookmarks WHERE id = $1`, uuid.UUID(bookmarkID))
	b, err := scanBookmark(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find bookmark: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM welfare_bookmarks WHERE user_id = $1 ORDER BY created_at DESC, id ASC`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateMemo(ctx context.Context, bookmarkID id.BookmarkID, memo string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE welfare_bookmarks SET memo = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(bookmarkID), memo, now,
	)
	if err != nil {
		return fmt.Errorf("update bookmark memo: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, bookmarkID id.BookmarkID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM welfare_bookmarks WHERE id = $1`, uuid.UUID(bookmarkID))
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (*models.Bookmark, error) {
	var (
		b          models.Bookmark
		rawID      uuid.UUID
		rawUser    uuid.UUID
		benefitID  uuid.NullUUID
		externalID sql.NullString
	)
	if err := row.Scan(&rawID, &rawUser, &benefitID, &externalID, &b.Memo, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.ID = id.BookmarkID(rawID)
	b.UserID = id.UserID(rawUser)
	if benefitID.Valid {
		bid := id.BenefitID(benefitID.UUID)
		b.BenefitID = &bid
	}
	b.ExternalBenefitID = externalID.String
	return &b, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
