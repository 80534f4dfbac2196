package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
)

// PostgresStore persists the catalog in PostgreSQL. Each upsert is a single
// statement so concurrent readers never observe a half-written record.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const benefitColumns = `
	id, source_id, service_scope, name, description, category, life_cycle_tags,
	region, sub_region, min_age, max_age, requires_children, support_amount,
	keywords, status, target_audience, application_method, department, contact,
	detail_url, last_synced_at, created_at, updated_at`

// Upsert inserts or refreshes a record keyed by (source_id, service_scope).
// The prev CTE reads the pre-statement row so the outcome can be reported
// without a second round trip.
func (s *PostgresStore) Upsert(ctx context.Context, rec *models.BenefitRecord, now time.Time) (UpsertOutcome, error) {
	if rec == nil {
		return 0, fmt.Errorf("benefit record is required")
	}
	newID := rec.ID
	if newID.IsNil() {
		newID = id.NewBenefitID()
	}
	hash := rec.ContentHash()

	query := `
		WITH prev AS (
			SELECT content_hash, status FROM welfare_benefits
			WHERE source_id = $2 AND service_scope = $3
		)
		INSERT INTO welfare_benefits (
			id, source_id, service_scope, name, description, category, life_cycle_tags,
			region, sub_region, min_age, max_age, requires_children, support_amount,
			keywords, status, target_audience, application_method, department, contact,
			detail_url, content_hash, last_synced_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 'ACTIVE',
			$15, $16, $17, $18, $19, $20, $21, $21, $21
		)
		ON CONFLICT (source_id, service_scope) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			life_cycle_tags = EXCLUDED.life_cycle_tags,
			region = EXCLUDED.region,
			sub_region = EXCLUDED.sub_region,
			min_age = EXCLUDED.min_age,
			max_age = EXCLUDED.max_age,
			requires_children = EXCLUDED.requires_children,
			support_amount = EXCLUDED.support_amount,
			keywords = EXCLUDED.keywords,
			status = 'ACTIVE',
			target_audience = EXCLUDED.target_audience,
			application_method = EXCLUDED.application_method,
			department = EXCLUDED.department,
			contact = EXCLUDED.contact,
			detail_url = EXCLUDED.detail_url,
			content_hash = EXCLUDED.content_hash,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = CASE
				WHEN welfare_benefits.content_hash = EXCLUDED.content_hash
				 AND welfare_benefits.status = 'ACTIVE'
				THEN welfare_benefits.updated_at
				ELSE EXCLUDED.updated_at
			END
		RETURNING (SELECT content_hash FROM prev), (SELECT status FROM prev)
	`
	var prevHash, prevStatus sql.NullString
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(newID),
		rec.SourceID,
		string(rec.ServiceScope),
		rec.Name,
		rec.Description,
		rec.Category,
		pq.Array(nonNil(rec.LifeCycleTags)),
		rec.Region,
		rec.SubRegion,
		rec.MinAge,
		rec.MaxAge,
		rec.RequiresChildren,
		rec.SupportAmount,
		pq.Array(nonNil(rec.Keywords)),
		rec.TargetAudience,
		rec.ApplicationMethod,
		rec.Department,
		rec.Contact,
		rec.DetailURL,
		hash,
		now,
	).Scan(&prevHash, &prevStatus)
	if err != nil {
		return 0, fmt.Errorf("upsert benefit %s/%s: %w", rec.ServiceScope, rec.SourceID, err)
	}

	switch {
	case !prevHash.Valid:
		return OutcomeInserted, nil
	case prevHash.String == hash && prevStatus.String == string(models.StatusActive):
		return OutcomeUnchanged, nil
	default:
		return OutcomeUpdated, nil
	}
}

func (s *PostgresStore) FindByID(ctx context.Context, benefitID id.BenefitID) (*models.BenefitRecord, error) {
	query := `SELECT ` + benefitColumns + ` FROM welfare_benefits WHERE id = $1`
	rec, err := scanBenefit(s.db.QueryRowContext(ctx, query, uuid.UUID(benefitID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find benefit by id: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) FindBySourceKey(ctx context.Context, sourceID string, scope models.ServiceScope) (*models.BenefitRecord, error) {
	query := `SELECT ` + benefitColumns + ` FROM welfare_benefits WHERE source_id = $1 AND service_scope = $2`
	rec, err := scanBenefit(s.db.QueryRowContext(ctx, query, sourceID, string(scope)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find benefit by source key: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.BenefitRecord, error) {
	query := `SELECT ` + benefitColumns + ` FROM welfare_benefits WHERE status = 'ACTIVE' ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active benefits: %w", err)
	}
	defer rows.Close()

	var out []*models.BenefitRecord
	for rows.Next() {
		rec, err := scanBenefit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan benefit: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate benefits: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkUnseen(ctx context.Context, filter UnseenFilter, seenSince, now time.Time) (int, error) {
	query := `
		UPDATE welfare_benefits
		SET status = 'STALE', updated_at = $5
		WHERE status = 'ACTIVE'
		  AND service_scope = $1
		  AND ($2::text = '' OR region = $2::text)
		  AND ($3::text = '' OR sub_region = $3::text)
		  AND last_synced_at < $4
	`
	res, err := s.db.ExecContext(ctx, query, string(filter.Scope), filter.Region, filter.SubRegion, seenSince, now)
	if err != nil {
		return 0, fmt.Errorf("mark unseen benefits: %w", err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) DeactivateStaleBefore(ctx context.Context, cutoff, now time.Time) (int, error) {
	query := `
		UPDATE welfare_benefits
		SET status = 'STALE', updated_at = $2
		WHERE status = 'ACTIVE' AND last_synced_at < $1
	`
	res, err := s.db.ExecContext(ctx, query, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate stale benefits: %w", err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM welfare_benefits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count benefits: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBenefit(row rowScanner) (*models.BenefitRecord, error) {
	var (
		rec            models.BenefitRecord
		rawID          uuid.UUID
		scope, status  string
		region, sub    sql.NullString
		minAge, maxAge sql.NullInt32
		amount         sql.NullInt64
		tags, keywords []string
	)
	err := row.Scan(
		&rawID, &rec.SourceID, &scope, &rec.Name, &rec.Description, &rec.Category, pq.Array(&tags),
		&region, &sub, &minAge, &maxAge, &rec.RequiresChildren, &amount,
		pq.Array(&keywords), &status, &rec.TargetAudience, &rec.ApplicationMethod, &rec.Department, &rec.Contact,
		&rec.DetailURL, &rec.LastSyncedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.ID = id.BenefitID(rawID)
	rec.ServiceScope = models.ServiceScope(scope)
	rec.Status = models.Status(status)
	rec.LifeCycleTags = tags
	rec.Keywords = keywords
	if region.Valid {
		rec.Region = &region.String
	}
	if sub.Valid {
		rec.SubRegion = &sub.String
	}
	if minAge.Valid {
		v := int(minAge.Int32)
		rec.MinAge = &v
	}
	if maxAge.Valid {
		v := int(maxAge.Int32)
		rec.MaxAge = &v
	}
	if amount.Valid {
		rec.SupportAmount = &amount.Int64
	}
	return &rec, nil
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
