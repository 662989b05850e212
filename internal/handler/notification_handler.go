package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/pkg/response"
)

type notificationService interface {
	Create(ctx context.Context, senderID string, req models.CreateNotificationRequest) (*models.Notification, error)
	Broadcast(ctx context.Context, senderID string, req models.BroadcastNotificationRequest) (*models.BroadcastResult, error)
	ListMine(ctx context.Context, recipientID string) ([]models.NotificationDetail, error)
	MarkRead(ctx context.Context, recipientID, id string) (*models.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (*models.UnreadCount, error)
}

// NotificationHandler exposes notification endpoints.
type NotificationHandler struct {
	notifications notificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Create godoc
// @Summary Send a notification to one user
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body models.CreateNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.CreateNotificationRequest
	if !bindJSON(c, &req, "invalid notification payload") {
		return
	}
	notification, err := h.notifications.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// Broadcast godoc
// @Summary Send a notification to every student
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body models.BroadcastNotificationRequest true "Broadcast payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/broadcast [post]
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.BroadcastNotificationRequest
	if !bindJSON(c, &req, "invalid broadcast payload") {
		return
	}
	result, err := h.notifications.Broadcast(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Mine godoc
// @Summary List own notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/my-notifications [get]
func (h *NotificationHandler) Mine(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	items, err := h.notifications.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, count, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	notification, err := h.notifications.MarkRead(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notification, nil)
}
