package handler

import (
	"context"
	"encoding/json"
	"errors"
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

type fakeStudentService struct {
	filter       models.StudentFilter
	format       export.Format
	profileReq   models.UpdateProfileRequest
	deleteErr    error
	deletedID    string
	updatedOwner string
}

func (f *fakeStudentService) GetProfile(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID, Role: models.RoleStudent}, nil
}

func (f *fakeStudentService) UpdateProfile(_ context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	f.updatedOwner = userID
	f.profileReq = req
	return &models.User{ID: userID, City: *req.City}, nil
}

func (f *fakeStudentService) List(_ context.Context, filter models.StudentFilter) ([]models.User, *models.Pagination, error) {
	f.filter = filter
	return []models.User{{ID: "s-1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (f *fakeStudentService) Get(_ context.Context, id string) (*models.User, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (f *fakeStudentService) Update(_ context.Context, id string, _ models.AdminUpdateStudentRequest) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeStudentService) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeStudentService) Export(_ context.Context, filter models.StudentFilter, format export.Format) (*service.ExportFile, error) {
	f.filter = filter
	f.format = format
	return &service.ExportFile{Filename: "students_20240101_120000.csv", ContentType: format.ContentType(), Data: []byte("Name\nSara\n")}, nil
}

func TestStudentHandlerListPassesPagination(t *testing.T) {
	svc := &fakeStudentService{}
	handler := NewStudentHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/students?search=%20sara%20&page=2&limit=5", "", adminUser)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sara", svc.filter.Search)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 5, svc.filter.PageSize)

	var body struct {
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Pagination.TotalCount)
}

func TestStudentHandlerUpdateProfileScopesToCaller(t *testing.T) {
	svc := &fakeStudentService{}
	handler := NewStudentHandler(svc)
	c, rec := newTestContext(http.MethodPut, "/students/profile", `{"city":"Lahore"}`, studentUser)

	handler.UpdateProfile(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, studentUser.ID, svc.updatedOwner)
	require.NotNil(t, svc.profileReq.City)
	assert.Equal(t, "Lahore", *svc.profileReq.City)
}

func TestStudentHandlerGetMissing(t *testing.T) {
	handler := NewStudentHandler(&fakeStudentService{})
	c, rec := newTestContext(http.MethodGet, "/students/x", "", adminUser)
	c.Params = gin.Params{{Key: "id", Value: "x"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudentHandlerDeleteSurfacesCleanupFailure(t *testing.T) {
	svc := &fakeStudentService{deleteErr: appErrors.Wrap(errors.New("db"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "student deleted but enrollment cleanup failed")}
	handler := NewStudentHandler(svc)
	c, rec := newTestContext(http.MethodDelete, "/students/s-1", "", adminUser)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "s-1", svc.deletedID)
}

func TestStudentHandlerExportStreamsFile(t *testing.T) {
	svc := &fakeStudentService{}
	handler := NewStudentHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/students/export?format=CSV", "", adminUser)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.FormatCSV, svc.format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="students_20240101_120000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Name\nSara\n", rec.Body.String())
}

func TestStudentHandlerExportRejectsUnknownFormat(t *testing.T) {
	handler := NewStudentHandler(&fakeStudentService{})
	c, rec := newTestContext(http.MethodGet, "/students/export?format=xlsx", "", adminUser)

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
