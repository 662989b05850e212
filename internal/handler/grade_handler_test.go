package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/service"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
	"github.com/noah-isme/course-enrollment-api/pkg/export"
)

type fakeGradeService struct {
	graderID string
	recorded models.RecordGradeRequest
	exported string
}

func (f *fakeGradeService) Record(_ context.Context, graderID string, req models.RecordGradeRequest) (*models.Grade, error) {
	f.graderID = graderID
	f.recorded = req
	return &models.Grade{ID: "g-1", Marks: *req.Marks, TotalMarks: 100, Letter: service.CalculateLetterGrade(*req.Marks, 100)}, nil
}

func (f *fakeGradeService) Update(_ context.Context, graderID, id string, _ models.UpdateGradeRequest) (*models.Grade, error) {
	f.graderID = graderID
	return &models.Grade{ID: id}, nil
}

func (f *fakeGradeService) ListByStudent(context.Context, string) ([]models.GradeDetail, error) {
	return []models.GradeDetail{}, nil
}

func (f *fakeGradeService) ListMine(context.Context, string) ([]models.GradeDetail, error) {
	return []models.GradeDetail{}, nil
}

func (f *fakeGradeService) ListByCourse(context.Context, string) ([]models.GradeDetail, error) {
	return []models.GradeDetail{}, nil
}

func (f *fakeGradeService) Analytics(_ context.Context, studentID string) (*models.GradeAnalytics, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (f *fakeGradeService) ExportStudentReport(_ context.Context, studentID string, format export.Format) (*service.ExportFile, error) {
	f.exported = studentID
	return &service.ExportFile{Filename: "grades.pdf", ContentType: format.ContentType(), Data: []byte("%PDF-1.3")}, nil
}

func TestGradeHandlerRecord(t *testing.T) {
	svc := &fakeGradeService{}
	handler := NewGradeHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/grades", `{"student_id":"s-1","course_id":"c-1","assignment":"Quiz","marks":90}`, adminUser)

	handler.Record(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, adminUser.ID, svc.graderID)
	assert.Equal(t, "Quiz", svc.recorded.Assignment)
	assert.Contains(t, rec.Body.String(), `"grade":"A+"`)
}

func TestGradeHandlerAnalyticsNotFound(t *testing.T) {
	handler := NewGradeHandler(&fakeGradeService{})
	c, rec := newTestContext(http.MethodGet, "/grades/analytics/x", "", adminUser)
	c.Params = gin.Params{{Key: "studentId", Value: "x"}}

	handler.Analytics(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradeHandlerExportPDF(t *testing.T) {
	svc := &fakeGradeService{}
	handler := NewGradeHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/grades/student/s-1/export?format=pdf", "", adminUser)
	c.Params = gin.Params{{Key: "studentId", Value: "s-1"}}

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-1", svc.exported)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}
