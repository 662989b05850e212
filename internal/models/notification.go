package models

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationTypeEnrollment   NotificationType = "enrollment"
	NotificationTypeGrade        NotificationType = "grade"
	NotificationTypeAttendance   NotificationType = "attendance"
	NotificationTypeAnnouncement NotificationType = "announcement"
	NotificationTypeSystem       NotificationType = "system"
)

// NotificationPriority ranks a notification.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

// NotificationListLimit caps the per-recipient listing.
const NotificationListLimit = 50

// Notification is a message addressed to a single recipient.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	RecipientID string               `db:"recipient_id" json:"recipient_id"`
	SenderID    *string              `db:"sender_id" json:"sender_id,omitempty"`
	Title       string               `db:"title" json:"title"`
	Message     string               `db:"message" json:"message"`
	Type        NotificationType     `db:"type" json:"type"`
	IsRead      bool                 `db:"is_read" json:"is_read"`
	Priority    NotificationPriority `db:"priority" json:"priority"`
	RelatedID   *string              `db:"related_id" json:"related_id,omitempty"`
	ExpiresAt   *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// NotificationDetail adds the sender name for listings.
type NotificationDetail struct {
	Notification
	SenderName *string `db:"sender_name" json:"sender_name,omitempty"`
}

// CreateNotificationRequest targets one recipient.
type CreateNotificationRequest struct {
	RecipientID string     `json:"recipient_id" validate:"required,uuid"`
	Title       string     `json:"title" validate:"required,max=200"`
	Message     string     `json:"message" validate:"required,max=2000"`
	Type        string     `json:"type" validate:"required,oneof=enrollment grade attendance announcement system"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	RelatedID   *string    `json:"related_id" validate:"omitempty,uuid"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// BroadcastNotificationRequest fans out to every student.
type BroadcastNotificationRequest struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Message   string     `json:"message" validate:"required,max=2000"`
	Type      string     `json:"type" validate:"omitempty,oneof=enrollment grade attendance announcement system"`
	Priority  string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// BroadcastResult reports how many students received the broadcast.
type BroadcastResult struct {
	Recipients int `json:"recipients"`
}

// UnreadCount is the number of unread notifications of a recipient.
type UnreadCount struct {
	Count int `json:"count"`
}
