package models

import (
	"time"

	"github.com/google/uuid"

	"smpserver/internal/identifier"
	dErrors "smpserver/pkg/domain-errors"
)

// ServiceGroup is a registered participant on this SMP.
//
// Invariants:
//   - ID is a valid participant identifier and never changes
//   - OwnerID references the user allowed to mutate the group's metadata
type ServiceGroup struct {
	ID        identifier.ParticipantID
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

func NewServiceGroup(pid identifier.ParticipantID, ownerID uuid.UUID, now time.Time) (*ServiceGroup, error) {
	if pid.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "service group identifier is required")
	}
	if ownerID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "service group owner is required")
	}
	return &ServiceGroup{ID: pid, OwnerID: ownerID, CreatedAt: now}, nil
}

// IsOwnedBy reports whether userID owns the group.
func (sg *ServiceGroup) IsOwnedBy(userID uuid.UUID) bool {
	return sg.OwnerID == userID
}
