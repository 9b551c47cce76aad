package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"smpserver/internal/auth/models"
	"smpserver/internal/auth/secrets"
	"smpserver/internal/identifier"
	sgmodels "smpserver/internal/servicegroup/models"
	dErrors "smpserver/pkg/domain-errors"
	"smpserver/pkg/platform/sentinel"
	"smpserver/pkg/requestcontext"
)

// UserStore is the persistence port for accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// ServiceGroupFinder resolves the group whose ownership is being checked.
type ServiceGroupFinder interface {
	FindByID(ctx context.Context, pid identifier.ParticipantID) (*sgmodels.ServiceGroup, error)
}

// Service validates credentials and enforces service group ownership.
type Service struct {
	users  UserStore
	groups ServiceGroupFinder
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(users UserStore, groups ServiceGroupFinder, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if groups == nil {
		return nil, errors.New("service group finder is required")
	}
	s := &Service{users: users, groups: groups, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := secrets.Hash(password)
	if err != nil {
		if dErrors.Is(err) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u, err := models.NewUser(uuid.New(), username, hash, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "username is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.logger.InfoContext(ctx, "user created",
		"user_id", u.ID,
		"username", u.Username,
		"request_id", requestcontext.RequestID(ctx),
	)
	return u, nil
}

// ValidateCredentials returns the principal for valid credentials. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) ValidateCredentials(ctx context.Context, creds models.Credentials) (*models.Principal, error) {
	if creds.Username == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "credentials are required")
	}
	u, err := s.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			secrets.BurnCycles(creds.Password)
			s.logger.WarnContext(ctx, "credential check failed",
				"username", creds.Username,
				"reason", "unknown user",
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := secrets.Verify(creds.Password, u.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.logger.WarnContext(ctx, "credential check failed",
				"username", creds.Username,
				"reason", "wrong password",
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}
	return &models.Principal{UserID: u.ID, Username: u.Username}, nil
}

// VerifyOwnership fails unless principal owns the service group identified by pid.
func (s *Service) VerifyOwnership(ctx context.Context, pid identifier.ParticipantID, principal *models.Principal) error {
	if principal == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	sg, err := s.groups.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "service group '"+pid.String()+"' does not exist")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load service group")
	}
	if !sg.IsOwnedBy(principal.UserID) {
		s.logger.WarnContext(ctx, "ownership check failed",
			"service_group", pid.String(),
			"username", principal.Username,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeForbidden, "user '"+principal.Username+"' does not own service group '"+pid.String()+"'")
	}
	return nil
}
