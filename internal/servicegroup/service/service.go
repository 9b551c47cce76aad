package service

import (
	"context"
	"errors"
	"log/slog"

	authmodels "smpserver/internal/auth/models"
	"smpserver/internal/identifier"
	"smpserver/internal/servicegroup/models"
	dErrors "smpserver/pkg/domain-errors"
	"smpserver/pkg/platform/sentinel"
	"smpserver/pkg/requestcontext"
)

// Store is the persistence port for service groups.
type Store interface {
	Create(ctx context.Context, sg *models.ServiceGroup) error
	FindByID(ctx context.Context, pid identifier.ParticipantID) (*models.ServiceGroup, error)
	Delete(ctx context.Context, pid identifier.ParticipantID) error
}

// UserFinder resolves the owner named at registration.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*authmodels.User, error)
}

// CardCleaner removes metadata attached to a service group that is going away.
type CardCleaner interface {
	DeleteByServiceGroup(ctx context.Context, sg *models.ServiceGroup) error
}

// Service registers and unregisters service groups.
type Service struct {
	factory *identifier.Factory
	groups  Store
	users   UserFinder
	cleaner CardCleaner
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCardCleaner cascades unregistration to the business card store.
func WithCardCleaner(cleaner CardCleaner) Option {
	return func(s *Service) {
		s.cleaner = cleaner
	}
}

func New(factory *identifier.Factory, groups Store, users UserFinder, opts ...Option) (*Service, error) {
	if factory == nil {
		return nil, errors.New("identifier factory is required")
	}
	if groups == nil {
		return nil, errors.New("service group store is required")
	}
	if users == nil {
		return nil, errors.New("user finder is required")
	}
	s := &Service{factory: factory, groups: groups, users: users, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a service group for key owned by ownerUsername.
func (s *Service) Register(ctx context.Context, key, ownerUsername string) (*models.ServiceGroup, error) {
	pid, err := s.parse(key)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.FindByUsername(ctx, ownerUsername)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "owner does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
	}

	sg, err := models.NewServiceGroup(pid, owner.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.groups.Create(ctx, sg); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "service group already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create service group")
	}

	s.logger.InfoContext(ctx, "service group registered",
		"service_group", pid.String(),
		"owner", owner.Username,
		"request_id", requestcontext.RequestID(ctx),
	)
	return sg, nil
}

// Get returns the service group for key.
func (s *Service) Get(ctx context.Context, key string) (*models.ServiceGroup, error) {
	pid, err := s.parse(key)
	if err != nil {
		return nil, err
	}
	sg, err := s.groups.FindByID(ctx, pid)
	if err != nil {
		return nil, wrapLookupErr(err)
	}
	return sg, nil
}

// Unregister deletes the service group and the business card attached to it.
func (s *Service) Unregister(ctx context.Context, key string) error {
	sg, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if s.cleaner != nil {
		if err := s.cleaner.DeleteByServiceGroup(ctx, sg); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete business card of service group")
		}
	}
	if err := s.groups.Delete(ctx, sg.ID); err != nil {
		return wrapLookupErr(err)
	}

	s.logger.InfoContext(ctx, "service group unregistered",
		"service_group", sg.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) parse(key string) (identifier.ParticipantID, error) {
	pid, ok := s.factory.Parse(key)
	if !ok {
		return identifier.ParticipantID{}, dErrors.New(dErrors.CodeBadRequest, "failed to parse service group '"+key+"'")
	}
	return pid, nil
}

func wrapLookupErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "unknown service group")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load service group")
}
