package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
	"github.com/noah-isme/course-enrollment-api/pkg/jobs"
)

type notificationRepoStub struct {
	stored    map[string]models.Notification
	bulk      []string
	template  models.Notification
	createErr error
	unread    int
	markErr   error
	markCalls int
}

func newNotificationRepoStub() *notificationRepoStub {
	return &notificationRepoStub{stored: map[string]models.Notification{}}
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	if n.ID == "" {
		n.ID = testID(len(s.stored) + 1)
	}
	if _, exists := s.stored[n.ID]; exists {
		return &repository.UniqueViolationError{Constraint: "notifications_pkey", Err: errors.New("duplicate")}
	}
	s.stored[n.ID] = *n
	return nil
}

func (s *notificationRepoStub) BulkCreate(ctx context.Context, template models.Notification, recipientIDs []string) (int64, error) {
	s.template = template
	s.bulk = append([]string{}, recipientIDs...)
	return int64(len(recipientIDs)), nil
}

func (s *notificationRepoStub) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.NotificationDetail, error) {
	var out []models.NotificationDetail
	for _, n := range s.stored {
		if n.RecipientID == recipientID && len(out) < limit {
			out = append(out, models.NotificationDetail{Notification: n})
		}
	}
	return out, nil
}

func (s *notificationRepoStub) MarkRead(ctx context.Context, id, recipientID string) (*models.Notification, error) {
	s.markCalls++
	if s.markErr != nil {
		return nil, s.markErr
	}
	n, ok := s.stored[id]
	if !ok || n.RecipientID != recipientID {
		return nil, sql.ErrNoRows
	}
	n.IsRead = true
	s.stored[id] = n
	return &n, nil
}

func (s *notificationRepoStub) CountUnread(ctx context.Context, recipientID string) (int, error) {
	return s.unread, nil
}

type directoryStub struct {
	users map[string]*models.User
}

func (d *directoryStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (d *directoryStub) ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	var ids []string
	for id, u := range d.users {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type notificationQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *notificationQueueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newNotificationFixture() (*NotificationService, *notificationRepoStub) {
	repo := newNotificationRepoStub()
	users := &directoryStub{users: map[string]*models.User{
		testID(1): {ID: testID(1), Role: models.RoleStudent},
		testID(2): {ID: testID(2), Role: models.RoleStudent},
		testID(9): {ID: testID(9), Role: models.RoleAdmin},
	}}
	return NewNotificationService(repo, users, nil, nil, nil), repo
}

func TestNotificationCreateDefaultsPriority(t *testing.T) {
	svc, repo := newNotificationFixture()

	n, err := svc.Create(context.Background(), testID(9), models.CreateNotificationRequest{
		RecipientID: testID(1),
		Title:       "Welcome",
		Message:     "Hello",
		Type:        string(models.NotificationTypeSystem),
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationPriorityMedium, n.Priority)
	assert.Equal(t, testID(9), *n.SenderID)
	assert.Len(t, repo.stored, 1)
}

func TestNotificationCreateUnknownRecipient(t *testing.T) {
	svc, _ := newNotificationFixture()

	_, err := svc.Create(context.Background(), testID(9), models.CreateNotificationRequest{
		RecipientID: testID(5),
		Title:       "x",
		Message:     "y",
		Type:        string(models.NotificationTypeSystem),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
}

func TestNotificationCreateRejectsUnknownType(t *testing.T) {
	svc, _ := newNotificationFixture()

	_, err := svc.Create(context.Background(), testID(9), models.CreateNotificationRequest{
		RecipientID: testID(1),
		Title:       "x",
		Message:     "y",
		Type:        "gossip",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationBroadcastTargetsStudentsOnly(t *testing.T) {
	svc, repo := newNotificationFixture()

	res, err := svc.Broadcast(context.Background(), testID(9), models.BroadcastNotificationRequest{Title: "Holiday", Message: "Closed"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Recipients)
	assert.ElementsMatch(t, []string{testID(1), testID(2)}, repo.bulk)
	assert.Equal(t, models.NotificationTypeAnnouncement, repo.template.Type)
	assert.Equal(t, models.NotificationPriorityMedium, repo.template.Priority)
}

func TestNotificationMarkReadScopedToRecipient(t *testing.T) {
	svc, repo := newNotificationFixture()
	id := testID(40)
	repo.stored[id] = models.Notification{ID: id, RecipientID: testID(1)}

	_, err := svc.MarkRead(context.Background(), testID(2), id)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)

	n, err := svc.MarkRead(context.Background(), testID(1), id)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
}

func TestNotificationMarkReadMalformedID(t *testing.T) {
	svc, repo := newNotificationFixture()
	repo.markErr = errors.New("pq: invalid input syntax for type uuid")

	_, err := svc.MarkRead(context.Background(), testID(1), "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, repo.markCalls)
}

func TestNotificationListMineNeverNil(t *testing.T) {
	svc, _ := newNotificationFixture()

	items, err := svc.ListMine(context.Background(), testID(1))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestNotificationUnreadCount(t *testing.T) {
	svc, repo := newNotificationFixture()
	repo.unread = 4

	count, err := svc.UnreadCount(context.Background(), testID(1))
	require.NoError(t, err)
	assert.Equal(t, 4, count.Count)
}

func TestNotificationNotifyEnqueuesWithPreassignedID(t *testing.T) {
	svc, repo := newNotificationFixture()
	queue := &notificationQueueStub{}
	svc.AttachQueue(queue)

	svc.Notify(context.Background(), models.Notification{RecipientID: testID(1), Title: "Approved", Type: models.NotificationTypeEnrollment})

	require.Len(t, queue.jobs, 1)
	job := queue.jobs[0]
	assert.Equal(t, JobTypeNotification, job.Type)
	assert.NotEmpty(t, job.ID)
	payload := job.Payload.(models.Notification)
	assert.Equal(t, job.ID, payload.ID)
	assert.Empty(t, repo.stored)
}

func TestNotificationNotifySwallowsEnqueueFailure(t *testing.T) {
	svc, repo := newNotificationFixture()
	svc.AttachQueue(&notificationQueueStub{err: jobs.ErrQueueFull})

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), models.Notification{RecipientID: testID(1), Title: "x"})
	})
	assert.Empty(t, repo.stored)
}

func TestNotificationNotifyWithoutQueueDeliversInline(t *testing.T) {
	svc, repo := newNotificationFixture()

	svc.Notify(context.Background(), models.Notification{RecipientID: testID(1), Title: "x", Type: models.NotificationTypeGrade})

	require.Len(t, repo.stored, 1)
}

func TestNotificationHandleJobIsIdempotent(t *testing.T) {
	svc, repo := newNotificationFixture()
	job := jobs.Job{ID: "n-1", Type: JobTypeNotification, Payload: models.Notification{ID: "n-1", RecipientID: testID(1), Title: "x"}}

	require.NoError(t, svc.HandleJob(context.Background(), job))
	require.NoError(t, svc.HandleJob(context.Background(), job))
	assert.Len(t, repo.stored, 1)
}

func TestNotificationHandleJobPropagatesStoreErrors(t *testing.T) {
	svc, repo := newNotificationFixture()
	repo.createErr = errors.New("db down")

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "n-1", Payload: models.Notification{ID: "n-1"}})
	assert.Error(t, err)

	err = svc.HandleJob(context.Background(), jobs.Job{ID: "n-2", Payload: "garbage"})
	assert.Error(t, err)
}
