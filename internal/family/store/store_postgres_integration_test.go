//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"welfarehub/internal/family/models"
	"welfarehub/internal/family/store"
	id "welfarehub/pkg/domain"
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
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "financial_snapshots", "children", "users"))
}

func (s *PostgresStoreSuite) TestHouseholdRoundTrip() {
	ctx := context.Background()
	birth := time.Date(1991, 4, 2, 0, 0, 0, 0, time.UTC)
	userID := id.NewUserID()
	s.Require().NoError(s.store.SaveUser(ctx, &models.User{
		ID:                  userID,
		Name:                "김하나",
		BirthDate:           &birth,
		SidoName:            "경기도",
		SigunguName:         "성남시",
		IsMarried:           true,
		PreferredCategories: []string{"보육", "주거"},
	}))
	s.Require().NoError(s.store.AddChild(ctx, &models.Child{UserID: userID, Name: "첫째", BirthDate: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)}))
	s.Require().NoError(s.store.RecordSnapshot(ctx, &models.FinancialSnapshot{UserID: userID, MonthlyIncome: 4_200_000, TotalAssets: 90_000_000, RecordedAt: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)}))

	u, err := s.store.FindUser(ctx, userID)
	s.Require().NoError(err)
	s.Equal("경기도", u.SidoName)
	s.Equal([]string{"보육", "주거"}, u.PreferredCategories)
	s.Require().NotNil(u.BirthDate)
	s.True(birth.Equal(*u.BirthDate))

	children, err := s.store.ListChildren(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(children, 1)
	s.Equal("첫째", children[0].Name)

	snap, err := s.store.LatestSnapshot(ctx, userID, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.EqualValues(4_200_000, snap.MonthlyIncome)
}

func (s *PostgresStoreSuite) TestUnknownUser() {
	ctx := context.Background()
	_, err := s.store.FindUser(ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.AddChild(ctx, &models.Child{UserID: id.NewUserID(), Name: "x", BirthDate: time.Now()})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
