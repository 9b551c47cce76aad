package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"smpserver/pkg/platform/tx"
)

// PostgresStore appends audit events to the audit_events table. Append joins a
// transaction carried by ctx so an event commits with the change it records.
// Rows outlive their service group on purpose; there is no foreign key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_events (id, participant_id, action, username, request_id, entity_count, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), event.ParticipantID, string(event.Action), event.Username, event.RequestID, event.EntityCount, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByParticipant(ctx context.Context, participantID string) ([]Event, error) {
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT participant_id, action, username, request_id, entity_count, occurred_at
		FROM audit_events
		WHERE participant_id = $1
		ORDER BY occurred_at, id
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e      Event
			action string
		)
		if err := rows.Scan(&e.ParticipantID, &action, &e.Username, &e.RequestID, &e.EntityCount, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
