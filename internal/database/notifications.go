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

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, message, type, action_url, read, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		n.ID,
		n.UserID,
		n.Message,
		n.Type,
		n.ActionURL,
		n.Read,
		now,
		now,
	).Scan(&n.CreatedAt, &n.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification owned by the given user
func (r *NotificationRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	query := `
		SELECT id, user_id, message, type, action_url, read, created_at, updated_at
		FROM notifications
		WHERE id = $1 AND user_id = $2
	`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// List retrieves notifications for a user, newest first, optionally filtered
// by the read flag and capped at limit when limit > 0.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, read *bool, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, message, type, action_url, read, created_at, updated_at
		FROM notifications
		WHERE user_id = $1
	`
	args := []any{userID}
	argIndex := 2

	if read != nil {
		query += fmt.Sprintf(" AND read = $%d", argIndex)
		args = append(args, *read)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// SetRead flips the read flag of a notification owned by the given user
func (r *NotificationRepository) SetRead(ctx context.Context, id, userID uuid.UUID, read bool) (*models.Notification, error) {
	query := `
		UPDATE notifications
		SET read = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, message, type, action_url, read, created_at, updated_at
	`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id, userID, read, time.Now()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}

	return n, nil
}

// Delete deletes a notification owned by the given user
func (r *NotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
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

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var actionURL sql.NullString

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.Type,
		&actionURL,
		&n.Read,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if actionURL.Valid {
		n.ActionURL = &actionURL.String
	}

	return n, nil
}
