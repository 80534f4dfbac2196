//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"welfarehub/internal/savings/models"
	"welfarehub/internal/savings/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "savings_products"))
}

func (s *PostgresStoreSuite) TestSaveAndList() {
	ctx := context.Background()
	lo := int64(10000)
	p := &models.Product{ID: id.NewProductID(), Name: "청년도약계좌", Bank: "국민은행", TargetCustomer: "청년", MinMonthlyAmount: &lo, InterestRate: 4.5}
	s.Require().NoError(s.store.Save(ctx, p))
	s.Require().NoError(s.store.Save(ctx, &models.Product{ID: id.NewProductID(), Name: "가족적금", InterestRate: 3.25}))

	p.InterestRate = 4.75
	s.Require().NoError(s.store.Save(ctx, p), "save by id is an upsert")

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.InDelta(4.75, got.InterestRate, 0.0001)
	s.Require().NotNil(got.MinMonthlyAmount)
	s.Equal(lo, *got.MinMonthlyAmount)
	s.Nil(got.MaxMonthlyAmount)

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("가족적금", all[0].Name)

	_, err = s.store.FindByID(ctx, id.NewProductID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
