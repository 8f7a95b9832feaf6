package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"audit-service/internal/domain"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

// EventRepository is the persistence contract for audit events. The store
// is append-only: records are never updated, and the only delete path is
// the age-based retention purge.
type EventRepository interface {
	Append(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Query(ctx context.Context, filter domain.EventFilter, limit int) ([]domain.Event, error)
	Count(ctx context.Context) (int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *postgresEventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, seq, event_type, entity, entity_id, details, service,
	timestamp, user_id, ip_address, user_agent, metadata, created_at, updated_at`

func (r *postgresEventRepository) Append(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event.ID = uuid.NewString()

	log.WithFields(log.Fields{
		"event_id":   event.ID,
		"event_type": event.EventType,
		"entity":     event.Entity,
		"entity_id":  event.EntityID,
		"service":    event.Service,
	}).Info("Appending audit event")

	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, entity, entity_id, details,
			service, timestamp, user_id, ip_address, user_agent, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.EventType,
		event.Entity,
		event.EntityID,
		event.Details,
		event.Service,
		event.Timestamp,
		nullInt64(event.UserID),
		nullString(event.IPAddress),
		nullString(event.UserAgent),
		metadata,
	).Scan(&event.Seq, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		log.WithError(err).WithField("event_id", event.ID).Error("Failed to append audit event")
		return fmt.Errorf("failed to append audit event: %w", domain.ErrStoreUnavailable)
	}

	log.WithField("event_id", event.ID).Info("Audit event successfully appended")
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM audit_events WHERE id = $1`, eventColumns)

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEventNotFound
		}
		log.WithError(err).WithField("event_id", id).Error("Failed to get audit event by ID")
		return nil, fmt.Errorf("failed to get audit event by ID: %w", domain.ErrStoreUnavailable)
	}

	return event, nil
}

func (r *postgresEventRepository) Query(ctx context.Context, filter domain.EventFilter, limit int) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Build the WHERE clause from whichever criteria are set. Every
	// condition is ANDed; ordering is fixed so repeated listings stay
	// deterministic.
	var whereParts []string
	var args []interface{}
	argIndex := 1

	if filter.Entity != "" {
		whereParts = append(whereParts, fmt.Sprintf("entity = $%d AND entity_id = $%d", argIndex, argIndex+1))
		args = append(args, filter.Entity, filter.EntityID)
		argIndex += 2
	}

	if filter.Service != "" {
		whereParts = append(whereParts, fmt.Sprintf("service = $%d", argIndex))
		args = append(args, filter.Service)
		argIndex++
	}

	if filter.EventType != "" {
		whereParts = append(whereParts, fmt.Sprintf("event_type = $%d", argIndex))
		args = append(args, filter.EventType)
		argIndex++
	}

	if filter.Start != nil {
		whereParts = append(whereParts, fmt.Sprintf("timestamp >= $%d", argIndex))
		args = append(args, *filter.Start)
		argIndex++
	}

	if filter.End != nil {
		whereParts = append(whereParts, fmt.Sprintf("timestamp <= $%d", argIndex))
		args = append(args, *filter.End)
		argIndex++
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM audit_events
		%s
		ORDER BY timestamp DESC, seq ASC
		LIMIT $%d
	`, eventColumns, where, argIndex)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("Failed to query audit events")
		return nil, fmt.Errorf("failed to query audit events: %w", domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan audit event row")
			return nil, fmt.Errorf("failed to scan audit event row: %w", domain.ErrStoreUnavailable)
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		log.WithError(err).Error("Error iterating over audit event rows")
		return nil, fmt.Errorf("error iterating over audit event rows: %w", domain.ErrStoreUnavailable)
	}

	return events, nil
}

func (r *postgresEventRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&count); err != nil {
		log.WithError(err).Error("Failed to count audit events")
		return 0, fmt.Errorf("failed to count audit events: %w", domain.ErrStoreUnavailable)
	}

	return count, nil
}

func (r *postgresEventRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithField("cutoff", cutoff).Info("Purging audit events older than cutoff")

	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < $1`, cutoff)
	if err != nil {
		log.WithError(err).Error("Failed to purge audit events")
		return 0, fmt.Errorf("failed to purge audit events: %w", domain.ErrStoreUnavailable)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not determine rows affected: %w", err)
	}

	log.WithField("deleted", deleted).Info("Audit events successfully purged")
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var event domain.Event
	var userID sql.NullInt64
	var ipAddress, userAgent sql.NullString
	var metadata []byte

	err := row.Scan(
		&event.ID,
		&event.Seq,
		&event.EventType,
		&event.Entity,
		&event.EntityID,
		&event.Details,
		&event.Service,
		&event.Timestamp,
		&userID,
		&ipAddress,
		&userAgent,
		&metadata,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		event.UserID = &userID.Int64
	}
	if ipAddress.Valid {
		event.IPAddress = ipAddress.String
	}
	if userAgent.Valid {
		event.UserAgent = userAgent.String
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
		}
	}

	return &event, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
