package bookmark

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"welfarehub/internal/welfare/catalog/store"
	"welfarehub/internal/welfare/models"
	id "welfarehub/pkg/domain"
	dErrors "welfarehub/pkg/domain-errors"
	audit "welfarehub/pkg/platform/audit"
	"welfarehub/pkg/requestcontext"
)

type recordingAuditor struct {
	events []audit.Event
}

func (r *recordingAuditor) Emit(_ context.Context, e audit.Event) {
	r.events = append(r.events, e)
}

type ServiceSuite struct {
	suite.Suite
	audit   *recordingAuditor
	ctx     context.Context
	now     time.Time
	catalog *store.InMemoryStore
	service *Service
	owner   id.UserID
	benefit id.BenefitID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.catalog = store.NewInMemory()
	s.audit = &recordingAuditor{}
	s.service = New(NewInMemory(), s.catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditor(s.audit),
	)
	s.owner = id.NewUserID()

	_, err := s.catalog.Upsert(s.ctx, &models.BenefitRecord{SourceID: "WLF1", Name: "부모급여", ServiceScope: models.ScopeCentral}, s.now)
	s.Require().NoError(err)
	rec, err := s.catalog.FindBySourceKey(s.ctx, "WLF1", models.ScopeCentral)
	s.Require().NoError(err)
	s.benefit = rec.ID
}

func (s *ServiceSuite) TestCreateAndList() {
	b, err := s.service.Create(s.ctx, s.owner, Target{BenefitID: &s.benefit}, "  신청 준비  ")
	s.Require().NoError(err)
	s.Equal("신청 준비", b.Memo)
	s.Equal(s.now, b.CreatedAt)

	later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
	_, err = s.service.Create(later, s.owner, Target{ExternalBenefitID: "gov24-123"}, "")
	s.Require().NoError(err)

	list, err := s.service.List(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("gov24-123", list[0].ExternalBenefitID, "newest first")

	other, err := s.service.List(s.ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *ServiceSuite) TestDuplicateIsConflict() {
	_, err := s.service.Create(s.ctx, s.owner, Target{BenefitID: &s.benefit}, "")
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, s.owner, Target{BenefitID: &s.benefit}, "again")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// Another user may bookmark the same benefit.
	_, err = s.service.Create(s.ctx, id.NewUserID(), Target{BenefitID: &s.benefit}, "")
	s.NoError(err)
}

func (s *ServiceSuite) TestCreateValidation() {
	_, err := s.service.Create(s.ctx, s.owner, Target{}, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Create(s.ctx, s.owner, Target{BenefitID: &s.benefit, ExternalBenefitID: "x"}, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Create(s.ctx, s.owner, Target{ExternalBenefitID: "x"}, strings.Repeat("가", maxMemoRunes+1))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	missing := id.NewBenefitID()
	_, err = s.service.Create(s.ctx, s.owner, Target{BenefitID: &missing}, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestOnlyOwnerMutates() {
	b, err := s.service.Create(s.ctx, s.owner, Target{BenefitID: &s.benefit}, "memo")
	s.Require().NoError(err)
	intruder := id.NewUserID()

	_, err = s.service.UpdateMemo(s.ctx, intruder, b.ID, "hijack")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, intruder, b.ID), dErrors.CodeForbidden))

	updated, err := s.service.UpdateMemo(s.ctx, s.owner, b.ID, "updated")
	s.Require().NoError(err)
	s.Equal("updated", updated.Memo)

	s.Require().NoError(s.service.Delete(s.ctx, s.owner, b.ID))
	s.True(dErrors.HasCode(s.service.Delete(s.ctx, s.owner, b.ID), dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestMutationsAreAudited() {
	b, err := s.service.Create(s.ctx, s.owner, Target{BenefitID: &s.benefit}, "")
	s.Require().NoError(err)
	_, err = s.service.UpdateMemo(s.ctx, s.owner, b.ID, "서류 준비")
	s.Require().NoError(err)
	s.Require().NoError(s.service.Delete(s.ctx, s.owner, b.ID))

	_, err = s.service.Create(s.ctx, s.owner, Target{}, "")
	s.Require().Error(err)

	s.Require().Len(s.audit.events, 3)
	s.Equal(audit.ActionBookmarkCreated, s.audit.events[0].Action)
	s.Equal(audit.ActionBookmarkUpdated, s.audit.events[1].Action)
	s.Equal(audit.ActionBookmarkDeleted, s.audit.events[2].Action)
	for _, e := range s.audit.events {
		s.Equal(s.owner, e.UserID)
		s.Equal("bookmark:"+b.ID.String(), e.Subject)
	}
}
