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

type fakeEnrollmentService struct {
	submitErr    error
	submittedBy  string
	decidedBy    string
	decidedID    string
	decideErr    error
	listedStatus models.EnrollmentStatus
}

func (f *fakeEnrollmentService) Submit(_ context.Context, student *models.User, courseID string) (*models.Enrollment, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submittedBy = student.ID
	return &models.Enrollment{ID: "e-1", StudentID: student.ID, CourseID: courseID, Status: models.EnrollmentStatusPending}, nil
}

func (f *fakeEnrollmentService) Approve(_ context.Context, adminID, id string) (*models.Enrollment, error) {
	return f.decide(adminID, id, models.EnrollmentStatusApproved)
}

func (f *fakeEnrollmentService) Reject(_ context.Context, adminID, id string) (*models.Enrollment, error) {
	return f.decide(adminID, id, models.EnrollmentStatusRejected)
}

func (f *fakeEnrollmentService) decide(adminID, id string, status models.EnrollmentStatus) (*models.Enrollment, error) {
	if f.decideErr != nil {
		return nil, f.decideErr
	}
	f.decidedBy = adminID
	f.decidedID = id
	return &models.Enrollment{ID: id, Status: status}, nil
}

func (f *fakeEnrollmentService) ListMine(_ context.Context, _ string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	f.listedStatus = status
	return []models.EnrollmentDetail{}, nil
}

func (f *fakeEnrollmentService) ListMyCourses(context.Context, string) ([]models.Course, error) {
	return []models.Course{{ID: "c-1", Title: "Go"}}, nil
}

func (f *fakeEnrollmentService) ListByStudent(context.Context, string) ([]models.EnrollmentDetail, error) {
	return []models.EnrollmentDetail{}, nil
}

func (f *fakeEnrollmentService) ListForAdmin(_ context.Context, status models.EnrollmentStatus) ([]models.EnrollmentAdminView, error) {
	f.listedStatus = status
	return []models.EnrollmentAdminView{}, nil
}

func (f *fakeEnrollmentService) ListPendingForAdmin(context.Context) ([]models.EnrollmentAdminView, error) {
	f.listedStatus = models.EnrollmentStatusPending
	return []models.EnrollmentAdminView{}, nil
}

func (f *fakeEnrollmentService) BackfillContacts(context.Context) (*models.BackfillResult, error) {
	return &models.BackfillResult{Updated: 3}, nil
}

func TestEnrollmentHandlerSubmit(t *testing.T) {
	svc := &fakeEnrollmentService{}
	handler := NewEnrollmentHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/request/c-1", "", studentUser)
	c.Params = gin.Params{{Key: "courseId", Value: "c-1"}}

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, studentUser.ID, svc.submittedBy)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestEnrollmentHandlerSubmitDuplicateIsBadRequest(t *testing.T) {
	handler := NewEnrollmentHandler(&fakeEnrollmentService{
		submitErr: appErrors.Clone(appErrors.ErrDuplicate, "You already have a pending request for this course"),
	})
	c, rec := newTestContext(http.MethodPost, "/request/c-1", "", studentUser)
	c.Params = gin.Params{{Key: "courseId", Value: "c-1"}}

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "You already have a pending request for this course", envelope.Message)
	assert.Equal(t, "You already have a pending request for this course", envelope.Error.Message)
}

func TestEnrollmentHandlerApproveStampsAdmin(t *testing.T) {
	svc := &fakeEnrollmentService{}
	handler := NewEnrollmentHandler(svc)
	c, rec := newTestContext(http.MethodPut, "/requests/e-9/approve", "", adminUser)
	c.Params = gin.Params{{Key: "id", Value: "e-9"}}

	handler.Approve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, adminUser.ID, svc.decidedBy)
	assert.Equal(t, "e-9", svc.decidedID)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
}

func TestEnrollmentHandlerRejectConflict(t *testing.T) {
	handler := NewEnrollmentHandler(&fakeEnrollmentService{decideErr: appErrors.Clone(appErrors.ErrConflict, "request is already approved")})
	c, rec := newTestContext(http.MethodPut, "/requests/e-9/reject", "", adminUser)
	c.Params = gin.Params{{Key: "id", Value: "e-9"}}

	handler.Reject(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEnrollmentHandlerListNormalisesStatus(t *testing.T) {
	svc := &fakeEnrollmentService{}
	handler := NewEnrollmentHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/requests?status=%20Approved", "", adminUser)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EnrollmentStatusApproved, svc.listedStatus)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rec).Data))
}

func TestEnrollmentHandlerBackfill(t *testing.T) {
	handler := NewEnrollmentHandler(&fakeEnrollmentService{})
	c, rec := newTestContext(http.MethodPost, "/requests/backfill-contacts", "", adminUser)

	handler.BackfillContacts(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":3}`, string(decodeEnvelope(t, rec).Data))
}
