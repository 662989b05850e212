package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

type fakeCourseService struct {
	courses   map[string]models.Course
	created   models.CreateCourseRequest
	updated   models.UpdateCourseRequest
	deletedID string
}

func newFakeCourseService() *fakeCourseService {
	return &fakeCourseService{courses: map[string]models.Course{
		"c-1": {ID: "c-1", Title: "Databases", Description: "Relational modelling"},
	}}
}

func (f *fakeCourseService) List(context.Context) ([]models.Course, error) {
	out := make([]models.Course, 0, len(f.courses))
	for _, course := range f.courses {
		out = append(out, course)
	}
	return out, nil
}

func (f *fakeCourseService) Get(_ context.Context, id string) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return &course, nil
}

func (f *fakeCourseService) Create(_ context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	f.created = req
	return &models.Course{ID: "c-2", Title: req.Title, Description: req.Description}, nil
}

func (f *fakeCourseService) Update(_ context.Context, id string, req models.UpdateCourseRequest) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	f.updated = req
	if req.Title != nil {
		course.Title = *req.Title
	}
	return &course, nil
}

func (f *fakeCourseService) Delete(_ context.Context, id string) error {
	if _, ok := f.courses[id]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	f.deletedID = id
	return nil
}

func TestCourseHandlerList(t *testing.T) {
	handler := NewCourseHandler(newFakeCourseService())
	c, rec := newTestContext(http.MethodGet, "/courses", "", studentUser)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"title":"Databases"`)
}

func TestCourseHandlerCreate(t *testing.T) {
	svc := newFakeCourseService()
	handler := NewCourseHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/courses", `{"title":"Networks","description":"TCP/IP"}`, adminUser)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Networks", svc.created.Title)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"id":"c-2"`)
}

func TestCourseHandlerCreateRejectsMalformedJSON(t *testing.T) {
	svc := newFakeCourseService()
	handler := NewCourseHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/courses", `{"title":`, adminUser)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.created.Title)
}

func TestCourseHandlerUpdateAndGetUnknown(t *testing.T) {
	svc := newFakeCourseService()
	handler := NewCourseHandler(svc)

	c, rec := newTestContext(http.MethodPut, "/courses/c-1", `{"title":"Advanced Databases"}`, adminUser)
	c.Params = gin.Params{{Key: "id", Value: "c-1"}}
	handler.Update(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated.Title)
	assert.Equal(t, "Advanced Databases", *svc.updated.Title)

	c, rec = newTestContext(http.MethodGet, "/courses/missing", "", adminUser)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "course not found", decodeEnvelope(t, rec).Message)
}

func TestCourseHandlerDelete(t *testing.T) {
	svc := newFakeCourseService()
	handler := NewCourseHandler(svc)

	c, rec := newTestContext(http.MethodDelete, "/courses/c-1", "", adminUser)
	c.Params = gin.Params{{Key: "id", Value: "c-1"}}
	handler.Delete(c)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c-1", svc.deletedID)

	c, rec = newTestContext(http.MethodDelete, "/courses/c-9", "", adminUser)
	c.Params = gin.Params{{Key: "id", Value: "c-9"}}
	handler.Delete(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
