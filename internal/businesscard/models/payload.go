package models

import (
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "smpserver/pkg/domain-errors"
	platformstrings "smpserver/pkg/platform/strings"
)

const registrationDateLayout = "2006-01-02"

var countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ParticipantPayload is the participant identifier embedded in a card payload.
type ParticipantPayload struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

// CardPayload is the external representation of a business card.
type CardPayload struct {
	Participant ParticipantPayload `json:"participant"`
	Entities    []EntityPayload    `json:"entities"`
}

// EntityPayload is the external representation of an entity. ID is optional on
// input; a missing ID is generated during conversion.
type EntityPayload struct {
	ID                      string             `json:"id,omitempty"`
	Names                   []Name             `json:"names"`
	CountryCode             string             `json:"country_code"`
	GeographicalInformation string             `json:"geographical_information,omitempty"`
	Identifiers             []EntityIdentifier `json:"identifiers,omitempty"`
	WebsiteURIs             []string           `json:"website_uris,omitempty"`
	Contacts                []Contact          `json:"contacts,omitempty"`
	AdditionalInformation   string             `json:"additional_information,omitempty"`
	RegistrationDate        string             `json:"registration_date,omitempty"`
}

// EntitiesFromPayload converts every payload entity, preserving order. The first
// invalid entity fails the whole conversion.
func EntitiesFromPayload(payloads []EntityPayload) ([]Entity, error) {
	entities := make([]Entity, 0, len(payloads))
	for i, p := range payloads {
		e, err := EntityFromPayload(p)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid business entity at index "+strconv.Itoa(i)+": "+dErrors.Message(err))
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// EntityFromPayload validates p and builds the stored entity.
func EntityFromPayload(p EntityPayload) (Entity, error) {
	id := uuid.New()
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			return Entity{}, dErrors.New(dErrors.CodeBadRequest, "entity id must be a UUID")
		}
		id = parsed
	}

	names := make([]Name, 0, len(p.Names))
	for _, n := range p.Names {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			continue
		}
		names = append(names, Name{Name: name, Language: strings.ToLower(strings.TrimSpace(n.Language))})
	}
	if len(names) == 0 {
		return Entity{}, dErrors.New(dErrors.CodeBadRequest, "entity requires at least one name")
	}

	country := strings.ToUpper(strings.TrimSpace(p.CountryCode))
	if !countryCodePattern.MatchString(country) {
		return Entity{}, dErrors.New(dErrors.CodeBadRequest, "country code must be two letters")
	}

	if p.RegistrationDate != "" {
		if _, err := time.Parse(registrationDateLayout, p.RegistrationDate); err != nil {
			return Entity{}, dErrors.New(dErrors.CodeBadRequest, "registration date must be YYYY-MM-DD")
		}
	}

	uris := platformstrings.DedupeAndTrim(p.WebsiteURIs)
	for _, raw := range uris {
		u, err := url.ParseRequestURI(raw)
		if err != nil || u.Host == "" {
			return Entity{}, dErrors.New(dErrors.CodeBadRequest, "website uri '"+raw+"' is not absolute")
		}
	}

	for _, c := range p.Contacts {
		if c.Email == "" {
			continue
		}
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return Entity{}, dErrors.New(dErrors.CodeBadRequest, "contact email '"+c.Email+"' is invalid")
		}
	}

	return Entity{
		ID:                      id,
		Names:                   names,
		CountryCode:             country,
		GeographicalInformation: strings.TrimSpace(p.GeographicalInformation),
		Identifiers:             platformstrings.DedupeBy(p.Identifiers, identifierKey),
		WebsiteURIs:             uris,
		Contacts:                append([]Contact(nil), p.Contacts...),
		AdditionalInformation:   p.AdditionalInformation,
		RegistrationDate:        p.RegistrationDate,
	}, nil
}

// ToPayload renders the card in its external representation.
func ToPayload(card *BusinessCard) CardPayload {
	out := CardPayload{
		Participant: ParticipantPayload{
			Scheme: card.ServiceGroupID.Scheme(),
			Value:  card.ServiceGroupID.Value(),
		},
		Entities: make([]EntityPayload, 0, len(card.Entities)),
	}
	for _, e := range card.Entities {
		out.Entities = append(out.Entities, EntityPayload{
			ID:                      e.ID.String(),
			Names:                   e.Names,
			CountryCode:             e.CountryCode,
			GeographicalInformation: e.GeographicalInformation,
			Identifiers:             e.Identifiers,
			WebsiteURIs:             e.WebsiteURIs,
			Contacts:                e.Contacts,
			AdditionalInformation:   e.AdditionalInformation,
			RegistrationDate:        e.RegistrationDate,
		})
	}
	return out
}

// identifierKey drops identifiers without a value and collapses exact repeats.
func identifierKey(id EntityIdentifier) string {
	if strings.TrimSpace(id.Value) == "" {
		return ""
	}
	return id.Scheme + "\x00" + id.Value
}
