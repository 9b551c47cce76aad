package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"smpserver/internal/identifier"
	"smpserver/internal/servicegroup/models"
	"smpserver/pkg/platform/sentinel"
)

type InMemoryServiceGroupStoreSuite struct {
	suite.Suite
	store   *InMemory
	factory *identifier.Factory
	ctx     context.Context
}

func TestInMemoryServiceGroupStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryServiceGroupStoreSuite))
}

func (s *InMemoryServiceGroupStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.factory = identifier.NewFactory()
	s.ctx = context.Background()
}

func (s *InMemoryServiceGroupStoreSuite) group(value string) *models.ServiceGroup {
	pid, err := s.factory.Create(identifier.DefaultScheme, value)
	s.Require().NoError(err)
	sg, err := models.NewServiceGroup(pid, uuid.New(), time.Now())
	s.Require().NoError(err)
	return sg
}

func (s *InMemoryServiceGroupStoreSuite) TestCreateAndFind() {
	sg := s.group("9906:abc")
	s.Require().NoError(s.store.Create(s.ctx, sg))

	found, err := s.store.FindByID(s.ctx, sg.ID)
	s.Require().NoError(err)
	s.Equal(sg.OwnerID, found.OwnerID)

	s.Run("lookup is case-insensitive on the identifier", func() {
		upper, err := s.factory.Create(identifier.DefaultScheme, "9906:ABC")
		s.Require().NoError(err)
		_, err = s.store.FindByID(s.ctx, upper)
		s.NoError(err)
	})

	s.Run("returned copy does not alias stored state", func() {
		found.OwnerID = uuid.New()
		again, err := s.store.FindByID(s.ctx, sg.ID)
		s.Require().NoError(err)
		s.Equal(sg.OwnerID, again.OwnerID)
	})
}

func (s *InMemoryServiceGroupStoreSuite) TestDuplicateCreate() {
	sg := s.group("9906:dup")
	s.Require().NoError(s.store.Create(s.ctx, sg))
	s.ErrorIs(s.store.Create(s.ctx, s.group("9906:dup")), sentinel.ErrAlreadyUsed)
}

func (s *InMemoryServiceGroupStoreSuite) TestDelete() {
	sg := s.group("9906:gone")
	s.Require().NoError(s.store.Create(s.ctx, sg))
	s.Require().NoError(s.store.Delete(s.ctx, sg.ID))

	_, err := s.store.FindByID(s.ctx, sg.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, sg.ID), sentinel.ErrNotFound)
}
