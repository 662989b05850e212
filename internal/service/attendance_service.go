package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

type attendanceRepository interface {
	Create(ctx context.Context, attendance *models.Attendance) error
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceDetail, error)
	ListByCourse(ctx context.Context, courseID string, date *time.Time) ([]models.AttendanceDetail, error)
	CountByStatus(ctx context.Context, studentID string) (map[models.AttendanceStatus]int, error)
}

// AttendanceService records daily attendance per course.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentReader
	courses   courseReader
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService. notifier may be nil.
func NewAttendanceService(repo attendanceRepository, students studentReader, courses courseReader, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, courses: courses, notifier: notifier, validator: validate, logger: logger}
}

// Mark records a student's status for a course on a calendar date. One record per day is allowed.
func (s *AttendanceService) Mark(ctx context.Context, markerID string, req models.MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := ParseAttendanceDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := lookupStudent(ctx, s.students, req.StudentID); err != nil {
		return nil, err
	}
	course, err := lookupCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}

	attendance := &models.Attendance{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Date:      date,
		Status:    models.AttendanceStatus(req.Status),
		MarkedBy:  &markerID,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := s.repo.Create(ctx, attendance); err != nil {
		if constraint, ok := repository.ViolatedConstraint(err); ok && constraint == repository.ConstraintAttendanceDay {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "attendance already marked for this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	if attendance.Status == models.AttendanceStatusAbsent {
		s.notifyAbsence(ctx, markerID, attendance, course.Title)
	}
	return attendance, nil
}

// ListByStudent returns a student's attendance, latest date first.
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceDetail, error) {
	if _, err := lookupStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	return s.ListMine(ctx, studentID)
}

// ListMine returns the caller's attendance, latest date first.
func (s *AttendanceService) ListMine(ctx context.Context, studentID string) ([]models.AttendanceDetail, error) {
	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if rows == nil {
		rows = []models.AttendanceDetail{}
	}
	return rows, nil
}

// ListByCourse returns a course's attendance, optionally for a single date.
func (s *AttendanceService) ListByCourse(ctx context.Context, courseID, rawDate string) ([]models.AttendanceDetail, error) {
	if _, err := lookupCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}
	var date *time.Time
	if rawDate != "" {
		parsed, err := ParseAttendanceDate(rawDate)
		if err != nil {
			return nil, err
		}
		date = &parsed
	}
	rows, err := s.repo.ListByCourse(ctx, courseID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if rows == nil {
		rows = []models.AttendanceDetail{}
	}
	return rows, nil
}

// Analytics counts a student's records per status. Late counts as attended.
func (s *AttendanceService) Analytics(ctx context.Context, studentID string) (*models.AttendanceAnalytics, error) {
	if !validID(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	counts, err := s.repo.CountByStatus(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return SummarizeAttendance(counts), nil
}

// SummarizeAttendance builds analytics from per-status counts.
func SummarizeAttendance(counts map[models.AttendanceStatus]int) *models.AttendanceAnalytics {
	a := &models.AttendanceAnalytics{
		Present: counts[models.AttendanceStatusPresent],
		Absent:  counts[models.AttendanceStatusAbsent],
		Late:    counts[models.AttendanceStatusLate],
		Excused: counts[models.AttendanceStatusExcused],
	}
	a.TotalClasses = a.Present + a.Absent + a.Late + a.Excused
	if a.TotalClasses > 0 {
		a.AttendancePercentage = round2(float64(a.Present+a.Late) / float64(a.TotalClasses) * 100)
	}
	return a
}

// ParseAttendanceDate accepts YYYY-MM-DD or an RFC3339 timestamp and truncates to the UTC date.
func ParseAttendanceDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (s *AttendanceService) notifyAbsence(ctx context.Context, markerID string, attendance *models.Attendance, courseTitle string) {
	if s.notifier == nil {
		return
	}
	relatedID := attendance.ID
	s.notifier.Notify(ctx, models.Notification{
		RecipientID: attendance.StudentID,
		SenderID:    &markerID,
		Title:       "Marked absent",
		Message:     "You were marked absent in " + courseTitle + " on " + attendance.Date.Format(models.DateLayout) + ".",
		Type:        models.NotificationTypeAttendance,
		Priority:    models.NotificationPriorityMedium,
		RelatedID:   &relatedID,
	})
}
