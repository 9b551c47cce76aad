package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	authmodels "smpserver/internal/auth/models"
	userstore "smpserver/internal/auth/store/user"
	"smpserver/internal/identifier"
	"smpserver/internal/servicegroup/models"
	sgstore "smpserver/internal/servicegroup/store"
	dErrors "smpserver/pkg/domain-errors"
	"smpserver/pkg/requestcontext"
)

type recordingCleaner struct {
	cleaned []string
	err     error
}

func (c *recordingCleaner) DeleteByServiceGroup(_ context.Context, sg *models.ServiceGroup) error {
	if c.err != nil {
		return c.err
	}
	c.cleaned = append(c.cleaned, sg.ID.String())
	return nil
}

type ServiceGroupServiceSuite struct {
	suite.Suite
	ctx     context.Context
	groups  *sgstore.InMemory
	cleaner *recordingCleaner
	owner   *authmodels.User
	service *Service
}

func TestServiceGroupServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceGroupServiceSuite))
}

func (s *ServiceGroupServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	users := userstore.NewInMemory()
	owner, err := authmodels.NewUser(uuid.New(), "owner", "hash", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(users.Create(s.ctx, owner))
	s.owner = owner

	s.groups = sgstore.NewInMemory()
	s.cleaner = &recordingCleaner{}
	factory := identifier.NewFactory(identifier.WithDefaultScheme(identifier.DefaultScheme))
	s.service, err = New(factory, s.groups, users,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCardCleaner(s.cleaner),
	)
	s.Require().NoError(err)
}

func (s *ServiceGroupServiceSuite) TestNewRequiresCollaborators() {
	_, err := New(nil, s.groups, userstore.NewInMemory())
	s.Error(err)
	_, err = New(identifier.NewFactory(), nil, userstore.NewInMemory())
	s.Error(err)
	_, err = New(identifier.NewFactory(), s.groups, nil)
	s.Error(err)
}

func (s *ServiceGroupServiceSuite) TestRegister() {
	s.Run("creates a group owned by the named user", func() {
		sg, err := s.service.Register(s.ctx, "iso6523-actorid-upis::9906:ABC", "OWNER")
		s.Require().NoError(err)
		s.Equal("iso6523-actorid-upis::9906:abc", sg.ID.String())
		s.True(sg.IsOwnedBy(s.owner.ID))
		s.Equal(requestcontext.Now(s.ctx), sg.CreatedAt)
	})

	s.Run("rejects a duplicate registration", func() {
		_, err := s.service.Register(s.ctx, "9906:abc", "owner")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects a malformed identifier", func() {
		_, err := s.service.Register(s.ctx, "bogus::", "owner")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an unknown owner", func() {
		_, err := s.service.Register(s.ctx, "9906:new", "nobody")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceGroupServiceSuite) TestGet() {
	_, err := s.service.Register(s.ctx, "9906:abc", "owner")
	s.Require().NoError(err)

	sg, err := s.service.Get(s.ctx, "iso6523-actorid-upis::9906:abc")
	s.Require().NoError(err)
	s.Equal(s.owner.ID, sg.OwnerID)

	_, err = s.service.Get(s.ctx, "9906:missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceGroupServiceSuite) TestUnregister() {
	s.Run("cleans the business card then removes the group", func() {
		_, err := s.service.Register(s.ctx, "9906:abc", "owner")
		s.Require().NoError(err)

		s.Require().NoError(s.service.Unregister(s.ctx, "9906:abc"))
		s.Equal([]string{"iso6523-actorid-upis::9906:abc"}, s.cleaner.cleaned)

		_, err = s.service.Get(s.ctx, "9906:abc")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown group is not found", func() {
		err := s.service.Unregister(s.ctx, "9906:never")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("cleaner failure keeps the group", func() {
		_, err := s.service.Register(s.ctx, "9906:kept", "owner")
		s.Require().NoError(err)
		s.cleaner.err = errors.New("store down")
		defer func() { s.cleaner.err = nil }()

		err = s.service.Unregister(s.ctx, "9906:kept")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		_, err = s.service.Get(s.ctx, "9906:kept")
		s.NoError(err)
	})
}
