package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
	"github.com/noah-isme/course-enrollment-api/pkg/jobs"
)

// JobTypeNotification identifies queued notification deliveries.
const JobTypeNotification = "notification.deliver"

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	BulkCreate(ctx context.Context, template models.Notification, recipientIDs []string) (int64, error)
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.NotificationDetail, error)
	MarkRead(ctx context.Context, id, recipientID string) (*models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

type notificationDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// Notifier is implemented by services that emit notifications as a side effect.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification)
}

// NotificationService manages per-recipient notifications and their asynchronous delivery.
type NotificationService struct {
	repo      notificationRepository
	users     notificationDirectory
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	queue     notificationQueue
}

// NewNotificationService constructs the service. AttachQueue enables asynchronous delivery.
func NewNotificationService(repo notificationRepository, users notificationDirectory, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, validator: validate, logger: logger, metrics: metrics}
}

// AttachQueue routes Notify through q. The queue handler must be HandleJob.
func (s *NotificationService) AttachQueue(q notificationQueue) {
	s.queue = q
}

// Create sends a notification to a single recipient.
func (s *NotificationService) Create(ctx context.Context, senderID string, req models.CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	if _, err := s.users.FindByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}

	notification := &models.Notification{
		RecipientID: req.RecipientID,
		SenderID:    &senderID,
		Title:       strings.TrimSpace(req.Title),
		Message:     strings.TrimSpace(req.Message),
		Type:        models.NotificationType(req.Type),
		Priority:    priorityOrDefault(req.Priority),
		RelatedID:   req.RelatedID,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	s.metrics.RecordNotifications(notification.Type, 1)
	return notification, nil
}

// Broadcast copies one message to every student in a single insert.
func (s *NotificationService) Broadcast(ctx context.Context, senderID string, req models.BroadcastNotificationRequest) (*models.BroadcastResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid broadcast payload")
	}

	recipients, err := s.users.ListIDsByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	kind := models.NotificationTypeAnnouncement
	if req.Type != "" {
		kind = models.NotificationType(req.Type)
	}
	template := models.Notification{
		SenderID:  &senderID,
		Title:     strings.TrimSpace(req.Title),
		Message:   strings.TrimSpace(req.Message),
		Type:      kind,
		Priority:  priorityOrDefault(req.Priority),
		ExpiresAt: req.ExpiresAt,
	}
	count, err := s.repo.BulkCreate(ctx, template, recipients)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to broadcast notification")
	}
	s.metrics.RecordNotifications(kind, int(count))
	s.logger.Info("notification broadcast", zap.String("sender_id", senderID), zap.Int64("recipients", count))
	return &models.BroadcastResult{Recipients: int(count)}, nil
}

// ListMine returns the newest unexpired notifications of recipientID.
func (s *NotificationService) ListMine(ctx context.Context, recipientID string) ([]models.NotificationDetail, error) {
	items, err := s.repo.ListByRecipient(ctx, recipientID, models.NotificationListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.NotificationDetail{}
	}
	return items, nil
}

// MarkRead flags a notification as read. Another recipient's notification is reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id string) (*models.Notification, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	notification, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return notification, nil
}

// UnreadCount returns the number of unread, unexpired notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (*models.UnreadCount, error) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return &models.UnreadCount{Count: count}, nil
}

// Notify schedules delivery of a system-generated notification. It never fails the caller:
// enqueue and delivery errors are logged.
func (s *NotificationService) Notify(ctx context.Context, notification models.Notification) {
	if s == nil {
		return
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.Priority == "" {
		notification.Priority = models.NotificationPriorityMedium
	}
	job := jobs.Job{ID: notification.ID, Type: JobTypeNotification, Payload: notification}

	if s.queue == nil {
		if err := s.HandleJob(ctx, job); err != nil {
			s.logger.Warn("notification delivery failed", zap.String("notification_id", job.ID), zap.Error(err))
		}
		return
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("notification_id", job.ID),
			zap.String("recipient_id", notification.RecipientID),
			zap.Error(err))
	}
}

// HandleJob delivers a queued notification. A retry of an already stored notification succeeds.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			s.logger.Debug("notification already delivered", zap.String("notification_id", notification.ID))
			return nil
		}
		return err
	}
	s.metrics.RecordNotifications(notification.Type, 1)
	return nil
}

func priorityOrDefault(raw string) models.NotificationPriority {
	if raw == "" {
		return models.NotificationPriorityMedium
	}
	return models.NotificationPriority(raw)
}
