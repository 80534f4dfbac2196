package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"welfarehub/internal/savings/models"
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

func (s *PostgresStore) Save(ctx context.Context, p *models.Product) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO savings_products (id, name, bank, target_customer, min_monthly_amount, max_monthly_amount, interest_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			bank = EXCLUDED.bank,
			target_customer = EXCLUDED.target_customer,
			min_monthly_amount = EXCLUDED.min_monthly_amount,
			max_monthly_amount = EXCLUDED.max_monthly_amount,
			interest_rate = EXCLUDED.interest_rate`,
		uuid.UUID(p.ID), p.Name, p.Bank, p.TargetCustomer,
		nullInt(p.MinMonthlyAmount), nullInt(p.MaxMonthlyAmount), p.InterestRate,
	)
	if err != nil {
		return fmt.Errorf("save savings product: %w", err)
	}
	return nil
}

const productColumns = `id, name, bank, target_customer, min_monthly_amount, max_monthly_amount, interest_rate`

func (s *PostgresStore) FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM savings_products WHERE id = $1`, uuid.UUID(productID))
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find savings product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Product, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+productColumns+` FROM savings_products ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list savings products: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate savings products: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p      models.Product
		raw    uuid.UUID
		lo, hi sql.NullInt64
	)
	if err := row.Scan(&raw, &p.Name, &p.Bank, &p.TargetCustomer, &lo, &hi, &p.InterestRate); err != nil {
		return nil, err
	}
	p.ID = id.ProductID(raw)
	if lo.Valid {
		p.MinMonthlyAmount = &lo.Int64
	}
	if hi.Valid {
		p.MaxMonthlyAmount = &hi.Int64
	}
	return &p, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
