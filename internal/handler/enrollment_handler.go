package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/pkg/response"
)

type enrollmentService interface {
	Submit(ctx context.Context, student *models.User, courseID string) (*models.Enrollment, error)
	Approve(ctx context.Context, adminID, id string) (*models.Enrollment, error)
	Reject(ctx context.Context, adminID, id string) (*models.Enrollment, error)
	ListMine(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
	ListMyCourses(ctx context.Context, studentID string) ([]models.Course, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListForAdmin(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentAdminView, error)
	ListPendingForAdmin(ctx context.Context) ([]models.EnrollmentAdminView, error)
	BackfillContacts(ctx context.Context) (*models.BackfillResult, error)
}

// EnrollmentHandler exposes the enrollment request workflow.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Submit godoc
// @Summary Request enrollment in a course
// @Tags Enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /request/{courseId} [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	enrollment, err := h.enrollments.Submit(c.Request.Context(), user, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Approve godoc
// @Summary Approve a pending request
// @Tags Enrollments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/approve [put]
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	h.decide(c, h.enrollments.Approve)
}

// Reject godoc
// @Summary Reject a pending request
// @Tags Enrollments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/reject [put]
func (h *EnrollmentHandler) Reject(c *gin.Context) {
	h.decide(c, h.enrollments.Reject)
}

func (h *EnrollmentHandler) decide(c *gin.Context, fn func(ctx context.Context, adminID, id string) (*models.Enrollment, error)) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	enrollment, err := fn(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// MyRequests godoc
// @Summary List own enrollment requests
// @Tags Enrollments
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Envelope
// @Router /students/my-requests [get]
func (h *EnrollmentHandler) MyRequests(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	items, err := h.enrollments.ListMine(c.Request.Context(), user.ID, statusQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// MyCourses godoc
// @Summary List courses the student was approved for
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/my-courses [get]
func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	courses, err := h.enrollments.ListMyCourses(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// StudentCourses godoc
// @Summary List a student's enrollment requests
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/courses [get]
func (h *EnrollmentHandler) StudentCourses(c *gin.Context) {
	items, err := h.enrollments.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// List godoc
// @Summary List enrollment requests
// @Tags Enrollments
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	items, err := h.enrollments.ListForAdmin(c.Request.Context(), statusQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Pending godoc
// @Summary List pending enrollment requests
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/pending [get]
func (h *EnrollmentHandler) Pending(c *gin.Context) {
	items, err := h.enrollments.ListPendingForAdmin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// BackfillContacts godoc
// @Summary Refresh missing contact snapshots from student records
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/backfill-contacts [post]
func (h *EnrollmentHandler) BackfillContacts(c *gin.Context) {
	result, err := h.enrollments.BackfillContacts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func statusQuery(c *gin.Context) models.EnrollmentStatus {
	return models.EnrollmentStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
}
