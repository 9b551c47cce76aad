package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"smpserver/internal/auth/models"
	"smpserver/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) newUser(username string) *models.User {
	u, err := models.NewUser(uuid.New(), username, "hash", time.Now())
	s.Require().NoError(err)
	return u
}

func (s *InMemoryUserStoreSuite) TestLookups() {
	s.Run("finds user by ID and username", func() {
		u := s.newUser("alice")
		s.Require().NoError(s.store.Create(s.ctx, u))

		byID, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u.Username, byID.Username)

		byName, err := s.store.FindByUsername(s.ctx, "ALICE")
		s.Require().NoError(err)
		s.Equal(u.ID, byName.ID)
	})

	s.Run("returns ErrNotFound for unknown users", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByUsername(s.ctx, "nobody")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryUserStoreSuite) TestUsernameUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUser("bob")))

	err := s.store.Create(s.ctx, s.newUser("Bob"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *InMemoryUserStoreSuite) TestReturnsCopies() {
	u := s.newUser("carol")
	s.Require().NoError(s.store.Create(s.ctx, u))

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	found.Username = "mallory"

	again, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("carol", again.Username)
}
