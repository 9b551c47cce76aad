package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"smpserver/internal/identifier"
	"smpserver/internal/servicegroup/models"
	"smpserver/pkg/platform/sentinel"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PostgresStore persists service groups in PostgreSQL. Deleting a row cascades to
// the group's business card through the schema's foreign keys.
type PostgresStore struct {
	db      *sql.DB
	factory *identifier.Factory
}

// NewPostgres constructs a PostgreSQL-backed service group store. The factory
// rebuilds identifiers from stored scheme and value columns.
func NewPostgres(db *sql.DB, factory *identifier.Factory) *PostgresStore {
	return &PostgresStore{db: db, factory: factory}
}

func (s *PostgresStore) Create(ctx context.Context, sg *models.ServiceGroup) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_groups (participant_id, scheme, value, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sg.ID.String(), sg.ID.Scheme(), sg.ID.Value(), sg.OwnerID, sg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return sentinel.ErrAlreadyUsed
			case foreignKeyViolation:
				return fmt.Errorf("create service group: owner does not exist: %w", sentinel.ErrNotFound)
			}
		}
		return fmt.Errorf("create service group: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, pid identifier.ParticipantID) (*models.ServiceGroup, error) {
	var (
		scheme, value string
		sg            models.ServiceGroup
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT scheme, value, owner_id, created_at FROM service_groups WHERE participant_id = $1
	`, pid.String()).Scan(&scheme, &value, &sg.OwnerID, &sg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find service group: %w", err)
	}
	sg.ID, err = s.factory.Create(scheme, value)
	if err != nil {
		return nil, fmt.Errorf("decode stored service group %q: %w", pid, err)
	}
	return &sg, nil
}

func (s *PostgresStore) Delete(ctx context.Context, pid identifier.ParticipantID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM service_groups WHERE participant_id = $1`, pid.String())
	if err != nil {
		return fmt.Errorf("delete service group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete service group: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
