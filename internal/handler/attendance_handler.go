package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, markerID string, req models.MarkAttendanceRequest) (*models.Attendance, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceDetail, error)
	ListMine(ctx context.Context, studentID string) ([]models.AttendanceDetail, error)
	ListByCourse(ctx context.Context, courseID, rawDate string) ([]models.AttendanceDetail, error)
	Analytics(ctx context.Context, studentID string) (*models.AttendanceAnalytics, error)
}

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Mark godoc
// @Summary Mark attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Mine godoc
// @Summary List own attendance
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/my-attendance [get]
func (h *AttendanceHandler) Mine(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	records, err := h.attendance.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ByStudent godoc
// @Summary List a student's attendance
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/student/{studentId} [get]
func (h *AttendanceHandler) ByStudent(c *gin.Context) {
	records, err := h.attendance.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ByCourse godoc
// @Summary List attendance of a course
// @Tags Attendance
// @Produce json
// @Param courseId path string true "Course ID"
// @Param date query string false "Filter by day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/course/{courseId} [get]
func (h *AttendanceHandler) ByCourse(c *gin.Context) {
	records, err := h.attendance.ListByCourse(c.Request.Context(), c.Param("courseId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Analytics godoc
// @Summary Attendance analytics for a student
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/analytics/{studentId} [get]
func (h *AttendanceHandler) Analytics(c *gin.Context) {
	analytics, err := h.attendance.Analytics(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, nil)
}
