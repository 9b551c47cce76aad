package audit

import "time"

// Action names a directory-relevant change.
type Action string

const (
	ActionBusinessCardUpserted Action = "business_card_upserted"
	ActionBusinessCardDeleted  Action = "business_card_deleted"
)

// Event is emitted from domain logic after a successful change. It stays
// transport-agnostic so stores and notifiers can fan out.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	ParticipantID string    `json:"participant_id"`
	Username      string    `json:"username,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	EntityCount   int       `json:"entity_count"`
}
