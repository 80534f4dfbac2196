//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"welfarehub/internal/welfare/catalog/store"
	"welfarehub/internal/welfare/models"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "welfare_bookmarks", "welfare_benefits")
	s.Require().NoError(err)
}

func seoulRecord(sourceID string) *models.BenefitRecord {
	region := "서울특별시"
	amount := int64(300_000)
	maxAge := 34
	return &models.BenefitRecord{
		SourceID:      sourceID,
		ServiceScope:  models.ScopeLocal,
		Name:          "청년 월세 지원 " + sourceID,
		Description:   "월 30만원",
		LifeCycleTags: []string{models.LifeYouth},
		Region:        &region,
		MaxAge:        &maxAge,
		SupportAmount: &amount,
		Keywords:      []string{"주거", "월세"},
	}
}

func (s *PostgresStoreSuite) TestUpsertRoundTripAndIdempotence() {
	ctx := context.Background()
	t0 := time.Now().UTC().Truncate(time.Microsecond)

	out, err := s.store.Upsert(ctx, seoulRecord("L1"), t0)
	s.Require().NoError(err)
	s.Equal(store.OutcomeInserted, out)

	out, err = s.store.Upsert(ctx, seoulRecord("L1"), t0.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(store.OutcomeUnchanged, out)

	got, err := s.store.FindBySourceKey(ctx, "L1", models.ScopeLocal)
	s.Require().NoError(err)
	s.Equal([]string{"주거", "월세"}, got.Keywords)
	s.Equal("서울특별시", *got.Region)
	s.Equal(34, *got.MaxAge)
	s.Nil(got.MinAge)
	s.True(got.UpdatedAt.Equal(t0), "unchanged content keeps updated_at")
	s.True(got.LastSyncedAt.Equal(t0.Add(time.Hour)))

	byID, err := s.store.FindByID(ctx, got.ID)
	s.Require().NoError(err)
	s.Equal(got.SourceID, byID.SourceID)

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

// TestConcurrentUpsertKeepsOneRow verifies the natural key holds under
// concurrent syncs of the same record.
func (s *PostgresStoreSuite) TestConcurrentUpsertKeepsOneRow() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rec := seoulRecord("RACE")
			rec.Description = fmt.Sprintf("variant %d", idx%3)
			_, err := s.store.Upsert(ctx, rec, time.Now())
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresStoreSuite) TestMarkUnseenAndDeactivate() {
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-48 * time.Hour)

	_, err := s.store.Upsert(ctx, seoulRecord("A"), t0)
	s.Require().NoError(err)
	_, err = s.store.Upsert(ctx, seoulRecord("B"), t0.Add(24*time.Hour))
	s.Require().NoError(err)

	n, err := s.store.MarkUnseen(ctx, store.UnseenFilter{Scope: models.ScopeLocal, Region: "서울특별시"}, t0.Add(time.Hour), time.Now())
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.DeactivateStaleBefore(ctx, time.Now(), time.Now())
	s.Require().NoError(err)
	s.Equal(1, n)

	active, err := s.store.ListActive(ctx)
	s.Require().NoError(err)
	s.Empty(active)

	_, err = s.store.FindBySourceKey(ctx, "missing", models.ScopeLocal)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
