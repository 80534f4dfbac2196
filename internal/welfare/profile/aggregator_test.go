package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	familymodels "welfarehub/internal/family/models"
	familystore "welfarehub/internal/family/store"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	"welfarehub/pkg/requestcontext"
)

type failingFamily struct{}

func (failingFamily) ListChildren(context.Context, id.UserID) ([]*familymodels.Child, error) {
	return nil, errors.New("connection reset")
}

type AggregatorSuite struct {
	suite.Suite
	store  *familystore.InMemoryStore
	agg    *Aggregator
	ctx    context.Context
	userID id.UserID
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.store = familystore.NewInMemory()
	s.agg = New(s.store, s.store, s.store)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))
	s.userID = id.NewUserID()

	birth := time.Date(1992, 5, 11, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.SaveUser(s.ctx, &familymodels.User{
		ID:                  s.userID,
		BirthDate:           &birth,
		SidoName:            " 서울 ",
		SigunguName:         "마포구",
		IsMarried:           true,
		PreferredCategories: []string{"보육", " 보육", ""},
	}))
}

func (s *AggregatorSuite) TestBuildsProfileAsOfRequestTime() {
	s.Require().NoError(s.store.AddChild(s.ctx, &familymodels.Child{UserID: s.userID, Name: "민준", BirthDate: time.Date(2022, 5, 10, 0, 0, 0, 0, time.UTC)}))
	s.Require().NoError(s.store.RecordSnapshot(s.ctx, &familymodels.FinancialSnapshot{UserID: s.userID, MonthlyIncome: 3_500_000, TotalAssets: 50_000_000, RecordedAt: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)}))

	p, err := s.agg.BuildProfile(s.ctx, s.userID)
	s.Require().NoError(err)

	s.Equal(33, p.Age, "birthday is tomorrow")
	s.Equal("서울특별시", p.SidoName)
	s.True(p.HasChildren)
	s.Equal(1, p.ChildrenCount)
	s.Equal(4, p.Children[0].Age)
	s.EqualValues(3_500_000, p.MonthlyIncome)
	s.Equal([]string{"보육"}, p.PreferredCategories)
}

func (s *AggregatorSuite) TestMissingFinanceAndChildren() {
	p, err := s.agg.BuildProfile(s.ctx, s.userID)
	s.Require().NoError(err)
	s.False(p.HasChildren)
	s.Empty(p.Children)
	s.Zero(p.MonthlyIncome)
}

func (s *AggregatorSuite) TestUnknownUser() {
	_, err := s.agg.BuildProfile(s.ctx, id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AggregatorSuite) TestNilUser() {
	_, err := s.agg.BuildProfile(s.ctx, id.UserID{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AggregatorSuite) TestReaderFailureIsInternal() {
	agg := New(s.store, failingFamily{}, s.store)
	_, err := agg.BuildProfile(s.ctx, s.userID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
