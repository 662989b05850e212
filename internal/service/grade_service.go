package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
	"github.com/noah-isme/course-enrollment-api/pkg/export"
)

const (
	defaultTotalMarks  = 100.0
	recentGradesWindow = 5
)

type gradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Update(ctx context.Context, grade *models.Grade) error
	ListByStudent(ctx context.Context, studentID string, chronological bool) ([]models.GradeDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error)
}

// GradeService records assessed work and summarises student performance.
type GradeService struct {
	repo      gradeRepository
	students  studentReader
	courses   courseReader
	notifier  Notifier
	exporter  *ExportService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService. notifier may be nil.
func NewGradeService(repo gradeRepository, students studentReader, courses courseReader, notifier Notifier, exporter *ExportService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(nil, nil, logger)
	}
	return &GradeService{
		repo:      repo,
		students:  students,
		courses:   courses,
		notifier:  notifier,
		exporter:  exporter,
		validator: validate,
		logger:    logger,
	}
}

// CalculateLetterGrade maps marks out of totalMarks to a letter.
func CalculateLetterGrade(marks, totalMarks float64) string {
	if totalMarks <= 0 {
		totalMarks = defaultTotalMarks
	}
	percentage := marks / totalMarks * 100
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 85:
		return "A"
	case percentage >= 80:
		return "B+"
	case percentage >= 75:
		return "B"
	case percentage >= 70:
		return "C+"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// Record stores a grade for an existing student and course.
func (s *GradeService) Record(ctx context.Context, graderID string, req models.RecordGradeRequest) (*models.Grade, error) {
	req.Assignment = strings.TrimSpace(req.Assignment)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if _, err := s.requireStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}
	course, err := s.requireCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	total := defaultTotalMarks
	if req.TotalMarks != nil {
		total = *req.TotalMarks
	}
	grade := &models.Grade{
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		Assignment: req.Assignment,
		Marks:      *req.Marks,
		TotalMarks: total,
		Letter:     CalculateLetterGrade(*req.Marks, total),
		Feedback:   strings.TrimSpace(req.Feedback),
		GradedBy:   &graderID,
	}
	if req.SubmissionDate != nil {
		grade.SubmissionDate = req.SubmissionDate.UTC()
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}

	s.notifyGrade(ctx, graderID, grade, course.Title)
	s.logger.Info("grade recorded", zap.String("grade_id", grade.ID), zap.String("student_id", grade.StudentID))
	return grade, nil
}

// Update changes a grade and recomputes its letter.
func (s *GradeService) Update(ctx context.Context, graderID, id string, req models.UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	applyText(&grade.Assignment, req.Assignment)
	if req.Marks != nil {
		grade.Marks = *req.Marks
	}
	if req.TotalMarks != nil {
		grade.TotalMarks = *req.TotalMarks
	}
	if req.Feedback != nil {
		grade.Feedback = strings.TrimSpace(*req.Feedback)
	}
	grade.Letter = CalculateLetterGrade(grade.Marks, grade.TotalMarks)
	grade.GradedBy = &graderID

	if err := s.repo.Update(ctx, grade); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// ListByStudent returns a student's grades, newest first.
func (s *GradeService) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	if _, err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return s.ListMine(ctx, studentID)
}

// ListMine returns the caller's grades, newest first.
func (s *GradeService) ListMine(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	grades, err := s.repo.ListByStudent(ctx, studentID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if grades == nil {
		grades = []models.GradeDetail{}
	}
	return grades, nil
}

// ListByCourse returns every grade recorded in a course, newest first.
func (s *GradeService) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	if _, err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	grades, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if grades == nil {
		grades = []models.GradeDetail{}
	}
	return grades, nil
}

// Analytics summarises a student's grades. RecentGrades is the tail of the insertion-ordered list.
func (s *GradeService) Analytics(ctx context.Context, studentID string) (*models.GradeAnalytics, error) {
	if !validID(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	grades, err := s.repo.ListByStudent(ctx, studentID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	analytics := &models.GradeAnalytics{
		TotalGrades:       len(grades),
		GradeDistribution: map[string]int{},
		RecentGrades:      []models.GradeDetail{},
	}
	if len(grades) == 0 {
		return analytics, nil
	}

	var sum float64
	for _, g := range grades {
		sum += g.Marks
		analytics.GradeDistribution[g.Letter]++
	}
	analytics.AverageMarks = round2(sum / float64(len(grades)))

	start := len(grades) - recentGradesWindow
	if start < 0 {
		start = 0
	}
	analytics.RecentGrades = grades[start:]
	return analytics, nil
}

// ExportStudentReport renders a student's grades as CSV or PDF.
func (s *GradeService) ExportStudentReport(ctx context.Context, studentID string, format export.Format) (*ExportFile, error) {
	student, err := s.requireStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	grades, err := s.repo.ListByStudent(ctx, studentID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	title := fmt.Sprintf("Grade Report - %s (%s)", student.Name, student.ErpNo)
	file, err := s.exporter.Render(format, gradeReportDataset(grades), title, "grades_"+student.ErpNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export grades")
	}
	return file, nil
}

func (s *GradeService) notifyGrade(ctx context.Context, graderID string, grade *models.Grade, courseTitle string) {
	if s.notifier == nil {
		return
	}
	relatedID := grade.ID
	s.notifier.Notify(ctx, models.Notification{
		RecipientID: grade.StudentID,
		SenderID:    &graderID,
		Title:       "New grade posted",
		Message:     fmt.Sprintf("You received %s on %s in %s.", grade.Letter, grade.Assignment, courseTitle),
		Type:        models.NotificationTypeGrade,
		Priority:    models.NotificationPriorityMedium,
		RelatedID:   &relatedID,
	})
}

func (s *GradeService) requireStudent(ctx context.Context, id string) (*models.User, error) {
	return lookupStudent(ctx, s.students, id)
}

func (s *GradeService) requireCourse(ctx context.Context, id string) (*models.Course, error) {
	return lookupCourse(ctx, s.courses, id)
}

func lookupStudent(ctx context.Context, students studentReader, id string) (*models.User, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	user, err := students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return user, nil
}

func lookupCourse(ctx context.Context, courses courseReader, id string) (*models.Course, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
