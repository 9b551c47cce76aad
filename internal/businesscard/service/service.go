// Package service implements the business card directory API: reading, upserting
// and deleting the card attached to a service group.
//
// Every operation parses the service group key before touching any collaborator, so
// malformed keys are reported identically whether or not the group exists.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"smpserver/internal/audit"
	authmodels "smpserver/internal/auth/models"
	"smpserver/internal/businesscard/metrics"
	"smpserver/internal/businesscard/models"
	"smpserver/internal/identifier"
	sgmodels "smpserver/internal/servicegroup/models"
	dErrors "smpserver/pkg/domain-errors"
	"smpserver/pkg/platform/sentinel"
	"smpserver/pkg/requestcontext"
)

// ServiceGroupDirectory resolves service groups.
type ServiceGroupDirectory interface {
	FindByID(ctx context.Context, pid identifier.ParticipantID) (*sgmodels.ServiceGroup, error)
}

// CredentialValidator authenticates the caller of a mutation.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, creds authmodels.Credentials) (*authmodels.Principal, error)
}

// OwnershipGuard confirms a principal owns the service group.
type OwnershipGuard interface {
	VerifyOwnership(ctx context.Context, pid identifier.ParticipantID, principal *authmodels.Principal) error
}

// Store holds at most one card per service group. Absence is sentinel.ErrNotFound.
// Upsert returning a nil card signals that the store declined the write.
type Store interface {
	FindByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) (*models.BusinessCard, error)
	FindByKey(ctx context.Context, key string) (*models.BusinessCard, error)
	Upsert(ctx context.Context, sg *sgmodels.ServiceGroup, entities []models.Entity) (*models.BusinessCard, error)
	Delete(ctx context.Context, card *models.BusinessCard) error
}

// AuditPublisher receives an event after every successful mutation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Deps are the collaborators of the service. Cards may be nil when the deployment
// does not support business cards.
type Deps struct {
	Factory       *identifier.Factory
	ServiceGroups ServiceGroupDirectory
	Credentials   CredentialValidator
	Ownership     OwnershipGuard
	Cards         Store
}

type Service struct {
	factory     *identifier.Factory
	groups      ServiceGroupDirectory
	credentials CredentialValidator
	ownership   OwnershipGuard
	cards       Store
	metrics     *metrics.Metrics
	auditor     AuditPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(deps Deps, opts ...Option) (*Service, error) {
	if deps.Factory == nil {
		return nil, errors.New("identifier factory is required")
	}
	if deps.ServiceGroups == nil {
		return nil, errors.New("service group directory is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("credential validator is required")
	}
	if deps.Ownership == nil {
		return nil, errors.New("ownership guard is required")
	}
	s := &Service{
		factory:     deps.Factory,
		groups:      deps.ServiceGroups,
		credentials: deps.Credentials,
		ownership:   deps.Ownership,
		cards:       deps.Cards,
		logger:      slog.Default(),
		tracer:      otel.Tracer("smpserver/businesscard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enabled reports whether business cards are supported by this deployment.
func (s *Service) Enabled() bool {
	return s.cards != nil
}

// GetBusinessCard returns the card attached to the service group named by key.
// Failures are not tallied in the error counter.
func (s *Service) GetBusinessCard(ctx context.Context, key string) (*models.BusinessCard, error) {
	const op = metrics.OpGetBusinessCard
	ctx, span := s.startSpan(ctx, op, key)
	defer span.End()
	s.metrics.IncrementInvocation(op)

	card, err := s.getBusinessCard(ctx, key)
	if err != nil {
		s.fail(ctx, span, op, key, err)
		return nil, err
	}
	s.metrics.IncrementSuccess(op)
	s.logger.DebugContext(ctx, "business card read",
		"operation", op,
		"service_group", key,
		"entities", len(card.Entities),
		"request_id", requestcontext.RequestID(ctx),
	)
	return card, nil
}

func (s *Service) getBusinessCard(ctx context.Context, key string) (*models.BusinessCard, error) {
	pid, err := s.parseKey(key)
	if err != nil {
		return nil, err
	}
	sg, err := s.lookupServiceGroup(ctx, pid)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnabled(); err != nil {
		return nil, err
	}
	card, err := s.cards.FindByServiceGroup(ctx, sg)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no business card for service group '"+pid.String()+"'")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load business card")
	}
	return card, nil
}

// CreateBusinessCard creates or fully replaces the card of the service group named by
// key. A store that declines the write yields OutcomeFailure with a nil error.
func (s *Service) CreateBusinessCard(ctx context.Context, key string, payload models.CardPayload, creds authmodels.Credentials) (models.Outcome, error) {
	const op = metrics.OpCreateBusinessCard
	ctx, span := s.startSpan(ctx, op, key)
	defer span.End()
	s.metrics.IncrementInvocation(op)

	sg, principal, entities, err := s.prepareUpsert(ctx, key, payload, creds)
	if err != nil {
		s.fail(ctx, span, op, key, err)
		return models.OutcomeFailure, err
	}

	card, err := s.cards.Upsert(ctx, sg, entities)
	if err != nil || card == nil {
		s.storeFailure(ctx, span, op, key, err)
		return models.OutcomeFailure, nil
	}

	s.metrics.IncrementSuccess(op)
	s.logger.InfoContext(ctx, "business card saved",
		"operation", op,
		"service_group", sg.ID.String(),
		"entities", len(card.Entities),
		"username", principal.Username,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.ActionBusinessCardUpserted, sg.ID, principal, len(card.Entities))
	return models.OutcomeSuccess, nil
}

func (s *Service) prepareUpsert(ctx context.Context, key string, payload models.CardPayload, creds authmodels.Credentials) (*sgmodels.ServiceGroup, *authmodels.Principal, []models.Entity, error) {
	urlID, err := s.parseKey(key)
	if err != nil {
		return nil, nil, nil, err
	}
	payloadID, err := s.factory.Create(payload.Participant.Scheme, payload.Participant.Value)
	if err != nil {
		return nil, nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid participant identifier in payload")
	}
	if !urlID.HasSameContent(payloadID) {
		return nil, nil, nil, dErrors.New(dErrors.CodeBadRequest,
			"participant inconsistency: URL says '"+urlID.String()+"', payload says '"+payloadID.String()+"'")
	}
	sg, err := s.lookupServiceGroup(ctx, urlID)
	if err != nil {
		return nil, nil, nil, err
	}
	principal, err := s.credentials.ValidateCredentials(ctx, creds)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := s.ownership.VerifyOwnership(ctx, urlID, principal); err != nil {
		return nil, nil, nil, err
	}
	if err := s.requireEnabled(); err != nil {
		return nil, nil, nil, err
	}
	entities, err := models.EntitiesFromPayload(payload.Entities)
	if err != nil {
		return nil, nil, nil, err
	}
	return sg, principal, entities, nil
}

// DeleteBusinessCard removes the card of the service group named by key.
func (s *Service) DeleteBusinessCard(ctx context.Context, key string, creds authmodels.Credentials) (models.Outcome, error) {
	const op = metrics.OpDeleteBusinessCard
	ctx, span := s.startSpan(ctx, op, key)
	defer span.End()
	s.metrics.IncrementInvocation(op)

	card, principal, err := s.prepareDelete(ctx, key, creds)
	if err != nil {
		s.fail(ctx, span, op, key, err)
		return models.OutcomeFailure, err
	}

	if err := s.cards.Delete(ctx, card); err != nil {
		s.storeFailure(ctx, span, op, key, err)
		return models.OutcomeFailure, nil
	}

	s.metrics.IncrementSuccess(op)
	s.logger.InfoContext(ctx, "business card deleted",
		"operation", op,
		"service_group", card.ServiceGroupID.String(),
		"username", principal.Username,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.ActionBusinessCardDeleted, card.ServiceGroupID, principal, 0)
	return models.OutcomeSuccess, nil
}

func (s *Service) prepareDelete(ctx context.Context, key string, creds authmodels.Credentials) (*models.BusinessCard, *authmodels.Principal, error) {
	pid, err := s.parseKey(key)
	if err != nil {
		return nil, nil, err
	}
	principal, err := s.credentials.ValidateCredentials(ctx, creds)
	if err != nil {
		return nil, nil, err
	}
	// The guard resolves the service group, so an unknown group surfaces here as NotFound.
	if err := s.ownership.VerifyOwnership(ctx, pid, principal); err != nil {
		return nil, nil, err
	}
	if err := s.requireEnabled(); err != nil {
		return nil, nil, err
	}
	card, err := s.cards.FindByKey(ctx, pid.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "no business card for service group '"+pid.String()+"'")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load business card")
	}
	return card, principal, nil
}

func (s *Service) parseKey(key string) (identifier.ParticipantID, error) {
	pid, ok := s.factory.Parse(key)
	if !ok {
		return identifier.ParticipantID{}, dErrors.New(dErrors.CodeBadRequest, "cannot parse service group identifier '"+key+"'")
	}
	return pid, nil
}

func (s *Service) lookupServiceGroup(ctx context.Context, pid identifier.ParticipantID) (*sgmodels.ServiceGroup, error) {
	sg, err := s.groups.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown service group '"+pid.String()+"'")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load service group")
	}
	return sg, nil
}

func (s *Service) requireEnabled() error {
	if s.cards == nil {
		return dErrors.New(dErrors.CodeBadRequest, "business card feature not supported")
	}
	return nil
}

func (s *Service) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "businesscard."+op, trace.WithAttributes(
		attribute.String("smp.operation", op),
		attribute.String("smp.service_group_key", key),
	))
}

func (s *Service) fail(ctx context.Context, span trace.Span, op, key string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, dErrors.Message(err))
	level := slog.LevelWarn
	if dErrors.HasCode(err, dErrors.CodeInternal) || !dErrors.Is(err) {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "business card operation rejected",
		"operation", op,
		"service_group", key,
		"code", dErrors.CodeOf(err),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func (s *Service) storeFailure(ctx context.Context, span trace.Span, op, key string, err error) {
	s.metrics.IncrementError(op)
	span.SetStatus(codes.Error, "store failure")
	if err != nil {
		span.RecordError(err)
	}
	s.logger.ErrorContext(ctx, "business card store failure",
		"operation", op,
		"service_group", key,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func (s *Service) emit(ctx context.Context, action audit.Action, pid identifier.ParticipantID, principal *authmodels.Principal, entities int) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp:     requestcontext.Now(ctx),
		Action:        action,
		ParticipantID: pid.String(),
		Username:      principal.Username,
		RequestID:     requestcontext.RequestID(ctx),
		EntityCount:   entities,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action,
			"service_group", pid.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
