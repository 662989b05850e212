package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/service"
	"github.com/noah-isme/course-enrollment-api/pkg/export"
	"github.com/noah-isme/course-enrollment-api/pkg/response"
)

type gradeService interface {
	Record(ctx context.Context, graderID string, req models.RecordGradeRequest) (*models.Grade, error)
	Update(ctx context.Context, graderID, id string, req models.UpdateGradeRequest) (*models.Grade, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
	ListMine(ctx context.Context, studentID string) ([]models.GradeDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error)
	Analytics(ctx context.Context, studentID string) (*models.GradeAnalytics, error)
	ExportStudentReport(ctx context.Context, studentID string, format export.Format) (*service.ExportFile, error)
}

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Record godoc
// @Summary Record a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.RecordGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.RecordGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	grade, err := h.grades.Record(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update godoc
// @Summary Update a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Grade ID"
// @Param payload body models.UpdateGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	grade, err := h.grades.Update(c.Request.Context(), user.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Mine godoc
// @Summary List own grades
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/my-grades [get]
func (h *GradeHandler) Mine(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}
	grades, err := h.grades.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// ByStudent godoc
// @Summary List a student's grades
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /grades/student/{studentId} [get]
func (h *GradeHandler) ByStudent(c *gin.Context) {
	grades, err := h.grades.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// ByCourse godoc
// @Summary List grades of a course
// @Tags Grades
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grades/course/{courseId} [get]
func (h *GradeHandler) ByCourse(c *gin.Context) {
	grades, err := h.grades.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Analytics godoc
// @Summary Grade analytics for a student
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /grades/analytics/{studentId} [get]
func (h *GradeHandler) Analytics(c *gin.Context) {
	analytics, err := h.grades.Analytics(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, nil)
}

// Export godoc
// @Summary Export a student's grade report
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /grades/student/{studentId}/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	file, err := h.grades.ExportStudentReport(c.Request.Context(), c.Param("studentId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}
