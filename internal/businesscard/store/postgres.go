package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"smpserver/internal/businesscard/models"
	"smpserver/internal/identifier"
	sgmodels "smpserver/internal/servicegroup/models"
	"smpserver/pkg/platform/sentinel"
	"smpserver/pkg/platform/tx"
	"smpserver/pkg/requestcontext"
)

const foreignKeyViolation = "23503"

// PostgresStore persists cards in business_cards and their entities, as JSONB
// with their position, in business_card_entities.
type PostgresStore struct {
	db      *sql.DB
	factory *identifier.Factory
}

func NewPostgres(db *sql.DB, factory *identifier.Factory) *PostgresStore {
	return &PostgresStore{db: db, factory: factory}
}

func (s *PostgresStore) FindByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) (*models.BusinessCard, error) {
	return s.FindByKey(ctx, sg.ID.String())
}

func (s *PostgresStore) FindByKey(ctx context.Context, key string) (*models.BusinessCard, error) {
	q := tx.QuerierFrom(ctx, s.db)

	var (
		scheme, value string
		card          models.BusinessCard
	)
	err := q.QueryRowContext(ctx, `
		SELECT sg.scheme, sg.value, bc.updated_at
		FROM business_cards bc
		JOIN service_groups sg ON sg.participant_id = bc.participant_id
		WHERE bc.participant_id = $1
	`, key).Scan(&scheme, &value, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find business card: %w", err)
	}
	card.ServiceGroupID, err = s.factory.Create(scheme, value)
	if err != nil {
		return nil, fmt.Errorf("decode stored business card %q: %w", key, err)
	}

	card.Entities, err = s.loadEntities(ctx, q, key)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *PostgresStore) loadEntities(ctx context.Context, q tx.Querier, key string) ([]models.Entity, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT data FROM business_card_entities WHERE participant_id = $1 ORDER BY position
	`, key)
	if err != nil {
		return nil, fmt.Errorf("load business card entities: %w", err)
	}
	defer rows.Close()

	entities := []models.Entity{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan business card entity: %w", err)
		}
		var e models.Entity
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode business card entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business card entities: %w", err)
	}
	return entities, nil
}

// Upsert replaces the card's entity list in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, sg *sgmodels.ServiceGroup, entities []models.Entity) (*models.BusinessCard, error) {
	key := sg.ID.String()
	now := requestcontext.Now(ctx)

	positions := make([]int64, len(entities))
	ids := make([]string, len(entities))
	docs := make([]string, len(entities))
	for i, e := range entities {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode business card entity: %w", err)
		}
		positions[i] = int64(i)
		ids[i] = e.ID.String()
		docs[i] = string(raw)
	}

	err := tx.Run(ctx, s.db, func(ctx context.Context, q tx.Querier) error {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO business_cards (participant_id, updated_at)
			VALUES ($1, $2)
			ON CONFLICT (participant_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		`, key, now); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return fmt.Errorf("upsert business card: service group is gone: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("upsert business card: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM business_card_entities WHERE participant_id = $1`, key); err != nil {
			return fmt.Errorf("clear business card entities: %w", err)
		}
		if len(entities) == 0 {
			return nil
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO business_card_entities (participant_id, position, entity_id, data)
			SELECT $1, t.position, t.entity_id::uuid, t.data::jsonb
			FROM unnest($2::bigint[], $3::text[], $4::text[]) AS t(position, entity_id, data)
		`, key, pq.Array(positions), pq.Array(ids), pq.Array(docs)); err != nil {
			return fmt.Errorf("insert business card entities: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	card := &models.BusinessCard{ServiceGroupID: sg.ID, Entities: entities, UpdatedAt: now}
	return card.Clone(), nil
}

func (s *PostgresStore) Delete(ctx context.Context, card *models.BusinessCard) error {
	res, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM business_cards WHERE participant_id = $1`, card.ServiceGroupID.String())
	if err != nil {
		return fmt.Errorf("delete business card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete business card: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteByServiceGroup removes the card of sg if one exists. Entities follow through
// ON DELETE CASCADE.
func (s *PostgresStore) DeleteByServiceGroup(ctx context.Context, sg *sgmodels.ServiceGroup) error {
	if _, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM business_cards WHERE participant_id = $1`, sg.ID.String()); err != nil {
		return fmt.Errorf("delete business card of service group: %w", err)
	}
	return nil
}
