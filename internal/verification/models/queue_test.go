package models

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
)

type QueueSuite struct {
	suite.Suite
	base    time.Time
	records []*VerificationRecord
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.base = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.records = nil
	s.add(PersonaStudent, StatusPending, "Ana Cruz", "North High", 1)
	s.add(PersonaStudent, StatusPreApproved, "Ben Reyes", "north high ", 2)
	s.add(PersonaStudent, StatusDenied, "Carla Diaz", "South Academy", 3)
	s.add(PersonaIndividualSponsor, StatusPending, "Dan Sy", "", 4)
	s.add(PersonaCorporateSponsor, StatusVerified, "Acme Corp", "", 5)
	s.add(PersonaSchool, StatusUnverified, "North High", "", 6)
}

func (s *QueueSuite) add(persona Persona, status Status, name, school string, minutes int) *VerificationRecord {
	at := s.base.Add(time.Duration(minutes) * time.Minute)
	r := NewDraft(id.NewVerificationID(), id.NewUserID(), persona, at)
	r.Status = status
	r.Subject = Subject{FullName: name, Email: fmt.Sprintf("user%d@example.com", minutes), SchoolName: school}
	if status != StatusUnverified {
		r.SubmittedAt = &at
	}
	s.records = append(s.records, r)
	return r
}

func (s *QueueSuite) TestOrdering() {
	s.Run("newest first", func() {
		res := Project(s.records, AdminScope(id.NewUserID()), QueueFilter{Limit: 100})
		s.Require().Len(res.Items, 6)
		s.Equal("North High", res.Items[0].Name)
		s.Equal("Ana Cruz", res.Items[5].Name)
	})

	s.Run("ties broken by id ascending", func() {
		a := s.add(PersonaStudent, StatusPending, "Tie A", "", 30)
		b := s.add(PersonaStudent, StatusPending, "Tie B", "", 30)
		res := Project(s.records, AdminScope(id.NewUserID()), QueueFilter{Limit: 2})
		first, second := a.ID, b.ID
		if b.ID.String() < a.ID.String() {
			first, second = b.ID, a.ID
		}
		s.Equal(first, res.Items[0].ID)
		s.Equal(second, res.Items[1].ID)
	})
}

func (s *QueueSuite) TestFilters() {
	admin := AdminScope(id.NewUserID())

	s.Run("status", func() {
		res := Project(s.records, admin, QueueFilter{Status: StatusPending})
		s.Len(res.Items, 2)
	})

	s.Run("coarse type covers both sponsor sub-roles", func() {
		res := Project(s.records, admin, QueueFilter{Type: TypeSponsor})
		s.Len(res.Items, 2)
		for _, it := range res.Items {
			s.Equal(TypeSponsor, it.Type)
		}
	})

	s.Run("search is case-insensitive over name and email", func() {
		s.Len(Project(s.records, admin, QueueFilter{Search: "acme"}).Items, 1)
		s.Len(Project(s.records, admin, QueueFilter{Search: "USER3@"}).Items, 1)
	})
}

func (s *QueueSuite) TestPagination() {
	res := Project(s.records, AdminScope(id.NewUserID()), QueueFilter{Page: 2, Limit: 4})
	s.Len(res.Items, 2)
	s.Equal(Pagination{Page: 2, Limit: 4, Total: 6, TotalPages: 2, HasNext: false, HasPrev: true}, res.Pagination)

	res = Project(s.records, AdminScope(id.NewUserID()), QueueFilter{Page: 1, Limit: 4})
	s.True(res.Pagination.HasNext)
	s.False(res.Pagination.HasPrev)

	res = Project(s.records, AdminScope(id.NewUserID()), QueueFilter{Page: 9, Limit: 4})
	s.Empty(res.Items)

	s.Run("huge page is clamped instead of overflowing the offset", func() {
		var res PagedResult
		s.NotPanics(func() {
			res = Project(s.records, AdminScope(id.NewUserID()), QueueFilter{Page: math.MaxInt / 50, Limit: 100})
		})
		s.Empty(res.Items)
		s.Equal(MaxPage, res.Pagination.Page)
		s.Equal(6, res.Pagination.Total)
		s.False(res.Pagination.HasNext)
		s.True(res.Pagination.HasPrev)
	})
}

func (s *QueueSuite) TestSchoolScope() {
	scope := SchoolScope(id.NewUserID(), "NORTH HIGH")

	s.Run("only the school's own students", func() {
		res := Project(s.records, scope, QueueFilter{Limit: 100})
		s.Require().Len(res.Items, 2)
		for _, it := range res.Items {
			s.Equal(PersonaStudent, it.Persona)
			s.Contains([]string{"North High", "north high "}, it.SchoolName)
		}
	})

	s.Run("asking for other personas is forbidden", func() {
		err := QueueFilter{Type: TypeSponsor}.CheckScope(scope)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.NoError(QueueFilter{Type: TypeStudent}.CheckScope(scope))
		s.NoError(QueueFilter{Type: TypeSponsor}.CheckScope(AdminScope(id.NewUserID())))
	})

	s.Run("empty school name admits nothing", func() {
		s.Empty(Project(s.records, SchoolScope(id.NewUserID(), ""), QueueFilter{}).Items)
	})
}

func (s *QueueSuite) TestStatsEqualSumOfQueues() {
	for _, scope := range []ReviewerScope{AdminScope(id.NewUserID()), SchoolScope(id.NewUserID(), "north high")} {
		stats := Tally(s.records, scope)
		sum := 0
		for _, st := range AllStatuses {
			n := Project(s.records, scope, QueueFilter{Status: st, Limit: MaxPageSize}).Pagination.Total
			s.Equal(n, stats.Count(st), "status %s in %s scope", st, scope.Kind)
			sum += n
		}
		s.Equal(stats.Total, sum)
	}
}

func (s *QueueSuite) TestNormalize() {
	f := QueueFilter{Page: -1, Limit: 1000, Search: "  x "}
	f.Normalize()
	s.Equal(1, f.Page)
	s.Equal(MaxPageSize, f.Limit)
	s.Equal("x", f.Search)

	f = QueueFilter{Page: math.MaxInt, Limit: MaxPageSize}
	f.Normalize()
	s.Equal(MaxPage, f.Page)
	s.GreaterOrEqual(f.Offset(), 0)
}
