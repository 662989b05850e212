package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-enrollment-api/internal/models"
)

const notificationColumns = `n.id, n.recipient_id, n.sender_id, n.title, n.message, n.type, n.is_read, n.priority,
        n.related_id, n.expires_at, n.created_at, n.updated_at`

// NotificationRepository persists per-recipient notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts one notification. Re-inserting a known id yields a *UniqueViolationError.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	notification.CreatedAt = now
	notification.UpdatedAt = now
	const query = `INSERT INTO notifications (id, recipient_id, sender_id, title, message, type, is_read, priority, related_id, expires_at, created_at, updated_at)
        VALUES (:id, :recipient_id, :sender_id, :title, :message, :type, :is_read, :priority, :related_id, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		if uv, ok := asUniqueViolation(err); ok {
			return uv
		}
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// BulkCreate copies template to every recipient in one multi-row insert and returns the row count.
func (r *NotificationRepository) BulkCreate(ctx context.Context, template models.Notification, recipientIDs []string) (int64, error) {
	if len(recipientIDs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(recipientIDs))
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	const query = `INSERT INTO notifications (id, recipient_id, sender_id, title, message, type, is_read, priority, related_id, expires_at, created_at, updated_at)
        SELECT ids.id, ids.recipient_id, $3, $4, $5, $6, FALSE, $7, $8, $9, $10, $10
        FROM unnest($1::uuid[], $2::uuid[]) AS ids(id, recipient_id)`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		pqStringArray(ids), pqStringArray(recipientIDs),
		template.SenderID, template.Title, template.Message, template.Type, template.Priority,
		template.RelatedID, template.ExpiresAt, now)
	if err != nil {
		return 0, fmt.Errorf("bulk create notifications: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk create notifications rows affected: %w", err)
	}
	return affected, nil
}

// ListByRecipient returns the newest unexpired notifications of a recipient.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.NotificationDetail, error) {
	query := `SELECT ` + notificationColumns + `, s.name AS sender_name
        FROM notifications n
        LEFT JOIN users s ON s.id = n.sender_id
        WHERE n.recipient_id = $1 AND (n.expires_at IS NULL OR n.expires_at > $2)
        ORDER BY n.created_at DESC
        LIMIT $3`
	var rows []models.NotificationDetail
	if err := r.db.SelectContext(ctx, &rows, query, recipientID, time.Now().UTC(), limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return rows, nil
}

// MarkRead flags a notification as read when it belongs to recipientID.
// sql.ErrNoRows covers both a missing id and another recipient's notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) (*models.Notification, error) {
	query := `UPDATE notifications n SET is_read = TRUE, updated_at = $3
        WHERE n.id = $1 AND n.recipient_id = $2
        RETURNING ` + notificationColumns
	var notification models.Notification
	if err := r.db.GetContext(ctx, &notification, query, id, recipientID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &notification, nil
}

// CountUnread returns the number of unread, unexpired notifications of a recipient.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE AND (expires_at IS NULL OR expires_at > $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// pqStringArray helper ensures we pass string arrays consistently.
func pqStringArray(values []string) interface{} {
	return pq.Array(values)
}
