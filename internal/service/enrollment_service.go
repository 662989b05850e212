package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	TransitionFromPending(ctx context.Context, id string, status models.EnrollmentStatus, approvedBy *string, approvedAt *time.Time) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
	ListApprovedCourses(ctx context.Context, studentID string) ([]models.Course, error)
	ListForAdmin(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentAdminView, error)
	BackfillContacts(ctx context.Context) (int64, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// EnrollmentService drives the request → approve/reject workflow.
type EnrollmentService struct {
	repo     enrollmentRepository
	courses  courseReader
	students studentReader
	notifier Notifier
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. notifier may be nil.
func NewEnrollmentService(repo enrollmentRepository, courses courseReader, students studentReader, notifier Notifier, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:     repo,
		courses:  courses,
		students: students,
		notifier: notifier,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Submit files a pending request of student for courseID. The contact details are copied onto the
// request. A second pending request for the same course is refused by the store's partial unique
// index; there is no separate existence check.
func (s *EnrollmentService) Submit(ctx context.Context, student *models.User, courseID string) (*models.Enrollment, error) {
	if _, err := lookupCourse(ctx, s.courses, courseID); err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{
		StudentID:    student.ID,
		CourseID:     courseID,
		Status:       models.EnrollmentStatusPending,
		StudentName:  snapshot(student.Name),
		StudentEmail: snapshot(student.Email),
		StudentPhone: snapshot(student.ContactNumber),
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if constraint, ok := repository.ViolatedConstraint(err); ok && constraint == repository.ConstraintPendingEnrollment {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "You already have a pending request for this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit request")
	}

	s.metrics.RecordEnrollmentTransition(models.EnrollmentStatusPending)
	s.cache.invalidateAnalytics(ctx)
	s.logger.Info("enrollment requested",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", student.ID),
		zap.String("course_id", courseID))
	return enrollment, nil
}

// Approve accepts a pending request on behalf of adminID.
func (s *EnrollmentService) Approve(ctx context.Context, adminID, id string) (*models.Enrollment, error) {
	now := time.Now().UTC()
	return s.decide(ctx, id, models.EnrollmentStatusApproved, &adminID, &now)
}

// Reject declines a pending request.
func (s *EnrollmentService) Reject(ctx context.Context, adminID, id string) (*models.Enrollment, error) {
	enrollment, err := s.decide(ctx, id, models.EnrollmentStatusRejected, nil, nil)
	if err == nil {
		s.logger.Info("enrollment rejected by admin", zap.String("enrollment_id", id), zap.String("admin_id", adminID))
	}
	return enrollment, err
}

// decide applies a terminal status with a conditional update. When nothing changed, a second read
// tells a missing request from one that is already decided.
func (s *EnrollmentService) decide(ctx context.Context, id string, status models.EnrollmentStatus, approvedBy *string, approvedAt *time.Time) (*models.Enrollment, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Request not found")
	}

	enrollment, err := s.repo.TransitionFromPending(ctx, id, status, approvedBy, approvedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
		}
		current, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			if errors.Is(findErr, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "Request not found")
			}
			return nil, appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("request is already %s", current.Status))
	}

	s.metrics.RecordEnrollmentTransition(status)
	s.cache.invalidateAnalytics(ctx)
	s.notifyDecision(ctx, enrollment, approvedBy)
	s.logger.Info("enrollment decided", zap.String("enrollment_id", id), zap.String("status", string(status)))
	return enrollment, nil
}

func (s *EnrollmentService) notifyDecision(ctx context.Context, enrollment *models.Enrollment, adminID *string) {
	if s.notifier == nil {
		return
	}
	title := "Enrollment request approved"
	message := "Your enrollment request has been approved."
	priority := models.NotificationPriorityHigh
	if enrollment.Status == models.EnrollmentStatusRejected {
		title = "Enrollment request rejected"
		message = "Your enrollment request has been rejected."
		priority = models.NotificationPriorityMedium
	}
	if course, err := s.courses.FindByID(ctx, enrollment.CourseID); err == nil {
		message = fmt.Sprintf("Your request for %s has been %s.", course.Title, enrollment.Status)
	}

	relatedID := enrollment.ID
	s.notifier.Notify(ctx, models.Notification{
		RecipientID: enrollment.StudentID,
		SenderID:    adminID,
		Title:       title,
		Message:     message,
		Type:        models.NotificationTypeEnrollment,
		Priority:    priority,
		RelatedID:   &relatedID,
	})
}

// ListMine returns the caller's own requests, optionally filtered by status.
func (s *EnrollmentService) ListMine(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	items, err := s.repo.ListByStudent(ctx, studentID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if items == nil {
		items = []models.EnrollmentDetail{}
	}
	return items, nil
}

// ListMyCourses returns the courses a student has been approved for.
func (s *EnrollmentService) ListMyCourses(ctx context.Context, studentID string) ([]models.Course, error) {
	courses, err := s.repo.ListApprovedCourses(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// ListByStudent lets an admin inspect any student's requests.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	if _, err := lookupStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	return s.ListMine(ctx, studentID, "")
}

// ListForAdmin returns every request, newest first, with display fields resolved from the live
// student record and falling back to the stored snapshot. Reads never write.
func (s *EnrollmentService) ListForAdmin(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentAdminView, error) {
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	views, err := s.repo.ListForAdmin(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if views == nil {
		views = []models.EnrollmentAdminView{}
	}
	for i := range views {
		resolveDisplay(&views[i])
	}
	return views, nil
}

// ListPendingForAdmin is ListForAdmin restricted to pending requests.
func (s *EnrollmentService) ListPendingForAdmin(ctx context.Context) ([]models.EnrollmentAdminView, error) {
	return s.ListForAdmin(ctx, models.EnrollmentStatusPending)
}

// BackfillContacts refreshes missing contact snapshots from the student records.
func (s *EnrollmentService) BackfillContacts(ctx context.Context) (*models.BackfillResult, error) {
	updated, err := s.repo.BackfillContacts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to backfill contacts")
	}
	s.logger.Info("enrollment contacts backfilled", zap.Int64("updated", updated))
	return &models.BackfillResult{Updated: updated}, nil
}

// resolveDisplay prefers the snapshot taken at submission and falls back to the live student record.
func resolveDisplay(view *models.EnrollmentAdminView) {
	view.DisplayName = firstNonEmpty(models.UnknownDisplayValue, view.StudentName, view.LiveName)
	view.DisplayEmail = firstNonEmpty(models.UnknownDisplayValue, view.StudentEmail, view.LiveEmail)
	view.DisplayPhone = firstNonEmpty(models.NotProvidedDisplayValue, view.StudentPhone, view.LivePhone)
	view.ErpNo = firstNonEmpty(models.NotProvidedDisplayValue, view.LiveErpNo)
}

func firstNonEmpty(fallback string, values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" && *v != models.NotProvidedDisplayValue {
			return *v
		}
	}
	return fallback
}

func snapshot(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
