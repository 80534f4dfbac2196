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

	"welfarehub/internal/family/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/platform/tx"
)

// PostgresStore persists households in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, birth_date, sido_name, sigungu_name, is_married, is_pregnant, preferred_categories, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			birth_date = EXCLUDED.birth_date,
			sido_name = EXCLUDED.sido_name,
			sigungu_name = EXCLUDED.sigungu_name,
			is_married = EXCLUDED.is_married,
			is_pregnant = EXCLUDED.is_pregnant,
			preferred_categories = EXCLUDED.preferred_categories
	`
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	categories := user.PreferredCategories
	if categories == nil {
		categories = []string{}
	}
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Name, user.BirthDate, user.SidoName, user.SigunguName,
		user.IsMarried, user.IsPregnant, pq.Array(categories), createdAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddChild(ctx context.Context, child *models.Child) error {
	childID := child.ID
	if childID == "" {
		childID = uuid.NewString()
	}
	query := `
		INSERT INTO children (id, user_id, name, birth_date, school_type, has_special_needs)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		childID, uuid.UUID(child.UserID), child.Name, child.BirthDate, child.SchoolType, child.HasSpecialNeeds,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("add child: %w", err)
	}
	child.ID = childID
	return nil
}

func (s *PostgresStore) RecordSnapshot(ctx context.Context, snap *models.FinancialSnapshot) error {
	query := `
		INSERT INTO financial_snapshots (user_id, monthly_income, total_assets, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, recorded_at) DO UPDATE SET
			monthly_income = EXCLUDED.monthly_income,
			total_assets = EXCLUDED.total_assets
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(snap.UserID), snap.MonthlyIncome, snap.TotalAssets, snap.RecordedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("record financial snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT id, name, birth_date, sido_name, sigungu_name, is_married, is_pregnant, preferred_categories, created_at
		FROM users
		WHERE id = $1
	`
	var (
		u         models.User
		rawID     uuid.UUID
		birthDate sql.NullTime
	)
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID)).Scan(
		&rawID, &u.Name, &birthDate, &u.SidoName, &u.SigunguName,
		&u.IsMarried, &u.IsPregnant, pq.Array(&u.PreferredCategories), &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = id.UserID(rawID)
	if birthDate.Valid {
		t := birthDate.Time
		u.BirthDate = &t
	}
	return &u, nil
}

func (s *PostgresStore) ListChildren(ctx context.Context, userID id.UserID) ([]*models.Child, error) {
	query := `
		SELECT id, name, birth_date, school_type, has_special_needs
		FROM children
		WHERE user_id = $1
		ORDER BY birth_date ASC, id ASC
	`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var out []*models.Child
	for rows.Next() {
		c := models.Child{UserID: userID}
		if err := rows.Scan(&c.ID, &c.Name, &c.BirthDate, &c.SchoolType, &c.HasSpecialNeeds); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, userID id.UserID, asOf time.Time) (*models.FinancialSnapshot, error) {
	query := `
		SELECT monthly_income, total_assets, recorded_at
		FROM financial_snapshots
		WHERE user_id = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	snap := models.FinancialSnapshot{UserID: userID}
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID), asOf).Scan(
		&snap.MonthlyIncome, &snap.TotalAssets, &snap.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest financial snapshot: %w", err)
	}
	return &snap, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
