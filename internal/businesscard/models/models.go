package models

import (
	"time"

	"github.com/google/uuid"

	"smpserver/internal/identifier"
)

// Outcome is the logical result of a mutation. A Failure is not an error: the
// store declined the write and the transport decides how to report it.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
)

func (o Outcome) IsSuccess() bool { return o == OutcomeSuccess }

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// BusinessCard is the directory metadata attached to one service group.
//
// Invariants:
//   - at most one card exists per ServiceGroupID
//   - Entities is replaced as a whole on every upsert, order preserved
type BusinessCard struct {
	ServiceGroupID identifier.ParticipantID
	Entities       []Entity
	UpdatedAt      time.Time
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *BusinessCard) Clone() *BusinessCard {
	if c == nil {
		return nil
	}
	out := &BusinessCard{ServiceGroupID: c.ServiceGroupID, UpdatedAt: c.UpdatedAt}
	if c.Entities != nil {
		out.Entities = make([]Entity, len(c.Entities))
		for i, e := range c.Entities {
			out.Entities[i] = e.Clone()
		}
	}
	return out
}

// Entity is one business entity record on a card. It is persisted as JSON.
type Entity struct {
	ID                      uuid.UUID          `json:"id"`
	Names                   []Name             `json:"names"`
	CountryCode             string             `json:"country_code"`
	GeographicalInformation string             `json:"geographical_information,omitempty"`
	Identifiers             []EntityIdentifier `json:"identifiers,omitempty"`
	WebsiteURIs             []string           `json:"website_uris,omitempty"`
	Contacts                []Contact          `json:"contacts,omitempty"`
	AdditionalInformation   string             `json:"additional_information,omitempty"`
	RegistrationDate        string             `json:"registration_date,omitempty"`
}

func (e Entity) Clone() Entity {
	out := e
	out.Names = append([]Name(nil), e.Names...)
	out.Identifiers = append([]EntityIdentifier(nil), e.Identifiers...)
	out.WebsiteURIs = append([]string(nil), e.WebsiteURIs...)
	out.Contacts = append([]Contact(nil), e.Contacts...)
	return out
}

type Name struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
}

// EntityIdentifier is an additional identifier of the entity (VAT number, GLN, ...).
// It is free-form and unrelated to participant identifiers.
type EntityIdentifier struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

type Contact struct {
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}
