//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"welfarehub/internal/lifecycle/models"
	"welfarehub/internal/lifecycle/store"
	id "welfarehub/pkg/domain"
	"welfarehub/pkg/platform/sentinel"
	"welfarehub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	today    time.Time
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
	s.today = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "lifecycle_events"))
}

func (s *PostgresStoreSuite) event(userID id.UserID, t models.EventType, date time.Time, child string) *models.Event {
	return &models.Event{
		ID:        id.NewEventID(),
		UserID:    userID,
		Type:      t,
		EventDate: date,
		ChildName: child,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestDuplicateDetection() {
	ctx := context.Background()
	userID := id.NewUserID()
	s.Require().NoError(s.store.Create(ctx, s.event(userID, models.EventBirth, s.today, "첫째")))
	s.ErrorIs(s.store.Create(ctx, s.event(userID, models.EventBirth, s.today, "첫째")), sentinel.ErrConflict)
	s.NoError(s.store.Create(ctx, s.event(userID, models.EventBirth, s.today, "")))
}

func (s *PostgresStoreSuite) TestConcurrentDuplicates() {
	ctx := context.Background()
	userID := id.NewUserID()
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.store.Create(ctx, s.event(userID, models.EventMarriage, s.today, ""))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		s.ErrorIs(err, sentinel.ErrConflict)
	}
	s.Equal(1, created)
}

func (s *PostgresStoreSuite) TestDueAndProcessed() {
	ctx := context.Background()
	userID := id.NewUserID()
	past := s.event(userID, models.EventBirth, s.today.AddDate(0, 0, -1), "")
	future := s.event(userID, models.EventBirthday, s.today.AddDate(0, 0, 3), "")
	s.Require().NoError(s.store.Create(ctx, past))
	s.Require().NoError(s.store.Create(ctx, future))

	due, err := s.store.ListDue(ctx, s.today)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(past.ID, due[0].ID)
	s.Equal(past.EventDate, due[0].EventDate)

	at := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.MarkProcessed(ctx, past.ID, at))
	s.Require().NoError(s.store.MarkProcessed(ctx, past.ID, at.Add(time.Hour)))
	s.ErrorIs(s.store.MarkProcessed(ctx, id.NewEventID(), at), sentinel.ErrNotFound)

	got, err := s.store.FindByID(ctx, past.ID)
	s.Require().NoError(err)
	s.True(got.IsProcessed)
	s.Require().NotNil(got.ProcessedAt)
	s.True(at.Equal(*got.ProcessedAt), "second mark keeps the first timestamp")

	due, err = s.store.ListDue(ctx, s.today)
	s.Require().NoError(err)
	s.Empty(due)
}

func (s *PostgresStoreSuite) TestListUnprocessedOn() {
	ctx := context.Background()
	userID := id.NewUserID()
	other := id.NewUserID()
	in3 := s.today.AddDate(0, 0, 3)
	s.Require().NoError(s.store.Create(ctx, s.event(userID, models.EventHealthCheckupDue, in3, "첫째")))
	s.Require().NoError(s.store.Create(ctx, s.event(other, models.EventRelocation, in3, "")))
	s.Require().NoError(s.store.Create(ctx, s.event(userID, models.EventBirthday, s.today.AddDate(0, 0, 4), "")))

	dates := []time.Time{s.today.AddDate(0, 0, 7), in3, s.today.AddDate(0, 0, 1)}
	all, err := s.store.ListUnprocessedOn(ctx, dates, nil)
	s.Require().NoError(err)
	s.Len(all, 2)

	mine, err := s.store.ListUnprocessedOn(ctx, dates, &userID)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(userID, mine[0].UserID)
}
