package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"taskautomator/internal/models"
)

// EventRepository handles calendar event database operations
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new calendar event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new calendar event
func (r *EventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (id, user_id, title, description, start_time, end_time, all_day, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.AllDay,
		event.Color,
		now,
		now,
	).Scan(&event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event owned by the given user
func (r *EventRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.CalendarEvent, error) {
	query := `
		SELECT id, user_id, title, description, start_time, end_time, all_day, color, created_at, updated_at
		FROM calendar_events
		WHERE id = $1 AND user_id = $2
	`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// List retrieves events for a user ordered by start time ascending. When both
// startDate and endDate are given, only events starting inside the range are
// returned.
func (r *EventRepository) List(ctx context.Context, userID uuid.UUID, startDate, endDate *time.Time) ([]*models.CalendarEvent, error) {
	query := `
		SELECT id, user_id, title, description, start_time, end_time, all_day, color, created_at, updated_at
		FROM calendar_events
		WHERE user_id = $1
	`
	args := []any{userID}

	if startDate != nil && endDate != nil {
		query += " AND start_time >= $2 AND start_time <= $3"
		args = append(args, *startDate, *endDate)
	}

	query += " ORDER BY start_time ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []*models.CalendarEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// Update overwrites the mutable fields of an event owned by the given user
func (r *EventRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	query := `
		UPDATE calendar_events
		SET title = $3, description = $4, start_time = $5, end_time = $6, all_day = $7, color = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		event.StartTime,
		event.EndTime,
		event.AllDay,
		event.Color,
		now,
	).Scan(&event.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return nil
}

// Delete deletes an event owned by the given user
func (r *EventRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanEvent(row rowScanner) (*models.CalendarEvent, error) {
	event := &models.CalendarEvent{}
	var description, color sql.NullString

	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.Title,
		&description,
		&event.StartTime,
		&event.EndTime,
		&event.AllDay,
		&color,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		event.Description = &description.String
	}
	if color.Valid {
		event.Color = &color.String
	}

	return event, nil
}
