package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpserver/internal/identifier"
	dErrors "smpserver/pkg/domain-errors"
)

func validPayload() EntityPayload {
	return EntityPayload{
		Names:       []Name{{Name: " ACME GmbH ", Language: "DE"}},
		CountryCode: "at",
	}
}

func TestEntityFromPayloadNormalizes(t *testing.T) {
	p := validPayload()
	p.WebsiteURIs = []string{" https://acme.example ", "https://acme.example", ""}
	p.Identifiers = []EntityIdentifier{{Scheme: "VAT", Value: "ATU1"}, {Scheme: "VAT", Value: "ATU1"}, {Scheme: "GLN", Value: " "}}
	p.Contacts = []Contact{{Type: "support", Email: "help@acme.example"}}

	e, err := EntityFromPayload(p)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, e.ID, "missing ids are generated")
	assert.Equal(t, []Name{{Name: "ACME GmbH", Language: "de"}}, e.Names)
	assert.Equal(t, "AT", e.CountryCode)
	assert.Equal(t, []string{"https://acme.example"}, e.WebsiteURIs)
	assert.Equal(t, []EntityIdentifier{{Scheme: "VAT", Value: "ATU1"}}, e.Identifiers)
}

func TestEntityFromPayloadKeepsSuppliedID(t *testing.T) {
	id := uuid.New()
	p := validPayload()
	p.ID = id.String()

	e, err := EntityFromPayload(p)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
}

func TestEntityFromPayloadRejects(t *testing.T) {
	tests := map[string]func(p *EntityPayload){
		"blank names":       func(p *EntityPayload) { p.Names = []Name{{Name: "  "}} },
		"no names":          func(p *EntityPayload) { p.Names = nil },
		"bad country":       func(p *EntityPayload) { p.CountryCode = "AUT" },
		"missing country":   func(p *EntityPayload) { p.CountryCode = "" },
		"bad id":            func(p *EntityPayload) { p.ID = "not-a-uuid" },
		"bad date":          func(p *EntityPayload) { p.RegistrationDate = "31.01.2018" },
		"relative uri":      func(p *EntityPayload) { p.WebsiteURIs = []string{"/about"} },
		"bad contact email": func(p *EntityPayload) { p.Contacts = []Contact{{Email: "nobody"}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := validPayload()
			mutate(&p)
			_, err := EntityFromPayload(p)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest), "got %v", err)
		})
	}
}

func TestEntitiesFromPayloadReportsIndexAndKeepsOrder(t *testing.T) {
	first, second := validPayload(), validPayload()
	second.Names = []Name{{Name: "Second"}}

	entities, err := EntitiesFromPayload([]EntityPayload{first, second})
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Second", entities[1].Names[0].Name)

	broken := validPayload()
	broken.CountryCode = "?"
	_, err = EntitiesFromPayload([]EntityPayload{first, broken})
	require.Error(t, err)
	assert.Contains(t, dErrors.Message(err), "index 1")
}

func TestCloneIsDeep(t *testing.T) {
	pid, err := identifier.NewFactory().Create(identifier.DefaultScheme, "9906:abc")
	require.NoError(t, err)
	e, err := EntityFromPayload(validPayload())
	require.NoError(t, err)
	card := &BusinessCard{ServiceGroupID: pid, Entities: []Entity{e}, UpdatedAt: time.Now()}

	clone := card.Clone()
	clone.Entities[0].Names[0].Name = "changed"
	clone.Entities = append(clone.Entities, e)

	assert.Equal(t, "ACME GmbH", card.Entities[0].Names[0].Name)
	assert.Len(t, card.Entities, 1)
}

func TestToPayloadRoundTripsIdentity(t *testing.T) {
	pid, err := identifier.NewFactory().Create(identifier.DefaultScheme, "9906:ABC")
	require.NoError(t, err)
	e, err := EntityFromPayload(validPayload())
	require.NoError(t, err)

	out := ToPayload(&BusinessCard{ServiceGroupID: pid, Entities: []Entity{e}})
	assert.Equal(t, ParticipantPayload{Scheme: "iso6523-actorid-upis", Value: "9906:abc"}, out.Participant)
	require.Len(t, out.Entities, 1)
	assert.Equal(t, e.ID.String(), out.Entities[0].ID)
}

func TestOutcome(t *testing.T) {
	assert.True(t, OutcomeSuccess.IsSuccess())
	assert.False(t, OutcomeFailure.IsSuccess())
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
}
