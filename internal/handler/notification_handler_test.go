package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

type fakeNotificationService struct {
	readBy string
}

func (f *fakeNotificationService) Create(_ context.Context, senderID string, req models.CreateNotificationRequest) (*models.Notification, error) {
	return &models.Notification{ID: "n-1", SenderID: &senderID, RecipientID: req.RecipientID}, nil
}

func (f *fakeNotificationService) Broadcast(context.Context, string, models.BroadcastNotificationRequest) (*models.BroadcastResult, error) {
	return &models.BroadcastResult{Recipients: 7}, nil
}

func (f *fakeNotificationService) ListMine(context.Context, string) ([]models.NotificationDetail, error) {
	return []models.NotificationDetail{}, nil
}

func (f *fakeNotificationService) MarkRead(_ context.Context, recipientID, id string) (*models.Notification, error) {
	f.readBy = recipientID
	if id != "n-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return &models.Notification{ID: id, IsRead: true}, nil
}

func (f *fakeNotificationService) UnreadCount(context.Context, string) (*models.UnreadCount, error) {
	return &models.UnreadCount{Count: 2}, nil
}

func TestNotificationHandlerBroadcast(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotificationService{})
	c, rec := newTestContext(http.MethodPost, "/notifications/broadcast", `{"title":"Hi","message":"All"}`, adminUser)

	handler.Broadcast(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"recipients":7}`, string(decodeEnvelope(t, rec).Data))
}

func TestNotificationHandlerMarkReadScopesToCaller(t *testing.T) {
	svc := &fakeNotificationService{}
	handler := NewNotificationHandler(svc)

	c, rec := newTestContext(http.MethodPut, "/notifications/n-2/read", "", studentUser)
	c.Params = gin.Params{{Key: "id", Value: "n-2"}}
	handler.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, studentUser.ID, svc.readBy)

	c, rec = newTestContext(http.MethodGet, "/notifications/unread-count", "", studentUser)
	handler.UnreadCount(c)
	assert.JSONEq(t, `{"count":2}`, string(decodeEnvelope(t, rec).Data))
}
