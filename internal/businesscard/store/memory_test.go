package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"pgregory.net/rapid"

	"smpserver/internal/businesscard/models"
	"smpserver/internal/identifier"
	sgmodels "smpserver/internal/servicegroup/models"
	"smpserver/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
	sg    *sgmodels.ServiceGroup
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.sg = newServiceGroup(s.T(), "9906:abc")
}

func newServiceGroup(t *testing.T, key string) *sgmodels.ServiceGroup {
	t.Helper()
	pid, ok := identifier.NewFactory(identifier.WithDefaultScheme(identifier.DefaultScheme)).Parse(key)
	if !ok {
		t.Fatalf("invalid key %q", key)
	}
	sg, err := sgmodels.NewServiceGroup(pid, uuid.New(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return sg
}

func entity(name string) models.Entity {
	return models.Entity{ID: uuid.New(), Names: []models.Name{{Name: name}}, CountryCode: "AT"}
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByServiceGroup(s.ctx, s.sg)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByKey(s.ctx, s.sg.ID.String())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpsertReplacesEntities() {
	_, err := s.store.Upsert(s.ctx, s.sg, []models.Entity{entity("a"), entity("b")})
	s.Require().NoError(err)
	_, err = s.store.Upsert(s.ctx, s.sg, []models.Entity{entity("c")})
	s.Require().NoError(err)

	card, err := s.store.FindByKey(s.ctx, s.sg.ID.String())
	s.Require().NoError(err)
	s.Require().Len(card.Entities, 1)
	s.Equal("c", card.Entities[0].Names[0].Name)
	s.True(card.ServiceGroupID.HasSameContent(s.sg.ID))
}

func (s *InMemoryStoreSuite) TestReturnedCardsAreCopies() {
	input := []models.Entity{entity("a")}
	_, err := s.store.Upsert(s.ctx, s.sg, input)
	s.Require().NoError(err)
	input[0].Names[0].Name = "mutated"

	card, err := s.store.FindByServiceGroup(s.ctx, s.sg)
	s.Require().NoError(err)
	card.Entities[0].Names[0].Name = "also mutated"

	again, err := s.store.FindByServiceGroup(s.ctx, s.sg)
	s.Require().NoError(err)
	s.Equal("a", again.Entities[0].Names[0].Name)
}

func (s *InMemoryStoreSuite) TestDelete() {
	card, err := s.store.Upsert(s.ctx, s.sg, []models.Entity{entity("a")})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, card))
	_, err = s.store.FindByServiceGroup(s.ctx, s.sg)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, card), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDeleteByServiceGroupIsIdempotent() {
	_, err := s.store.Upsert(s.ctx, s.sg, []models.Entity{entity("a")})
	s.Require().NoError(err)
	s.NoError(s.store.DeleteByServiceGroup(s.ctx, s.sg))
	s.NoError(s.store.DeleteByServiceGroup(s.ctx, s.sg))
}

func (s *InMemoryStoreSuite) TestReadersNeverSeePartialReplacement() {
	small := []models.Entity{entity("a")}
	large := []models.Entity{entity("x"), entity("y"), entity("z")}
	_, err := s.store.Upsert(s.ctx, s.sg, small)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				_, _ = s.store.Upsert(s.ctx, s.sg, large)
			} else {
				_, _ = s.store.Upsert(s.ctx, s.sg, small)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			card, err := s.store.FindByServiceGroup(s.ctx, s.sg)
			s.NoError(err)
			s.Contains([]int{1, 3}, len(card.Entities))
		}
	}()
	wg.Wait()
}

func TestUpsertKeepsOnlyLastWrite(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := NewInMemory()
		sg := &sgmodels.ServiceGroup{}
		pid, _ := identifier.NewFactory().Create(identifier.DefaultScheme, "9906:rapid")
		sg.ID = pid

		writes := rapid.SliceOfN(rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 5), 1, 6).Draw(t, "writes")
		var last []models.Entity
		for _, names := range writes {
			last = make([]models.Entity, 0, len(names))
			for _, n := range names {
				last = append(last, models.Entity{ID: uuid.New(), Names: []models.Name{{Name: n}}, CountryCode: "AT"})
			}
			if _, err := store.Upsert(context.Background(), sg, last); err != nil {
				t.Fatal(err)
			}
		}

		card, err := store.FindByKey(context.Background(), pid.String())
		if err != nil {
			t.Fatal(err)
		}
		if len(card.Entities) != len(last) {
			t.Fatalf("got %d entities, want %d", len(card.Entities), len(last))
		}
		for i := range last {
			if card.Entities[i].ID != last[i].ID {
				t.Fatalf("entity %d: order or content differs from last write", i)
			}
		}
	})
}
