package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-enrollment-api/internal/models"
)

const enrollmentColumns = `e.id, e.student_id, e.course_id, e.status, e.student_name, e.student_email, e.student_phone,
        e.enrollment_date, e.approved_by, e.approved_date, e.created_at, e.updated_at`

// EnrollmentRepository handles persistence of enrollment requests.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts a pending request. A second pending row for the same student and course is
// rejected by the enrollments_pending_unique index and returned as *UniqueViolationError.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const query = `INSERT INTO enrollments (id, student_id, course_id, status, student_name, student_email, student_phone, enrollment_date, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :status, :student_name, :student_email, :student_phone, :enrollment_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if uv, ok := asUniqueViolation(err); ok {
			return uv
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// TransitionFromPending moves a pending request to status in a single conditional update.
// sql.ErrNoRows means the row is missing or no longer pending.
func (r *EnrollmentRepository) TransitionFromPending(ctx context.Context, id string, status models.EnrollmentStatus, approvedBy *string, approvedAt *time.Time) (*models.Enrollment, error) {
	query := `UPDATE enrollments e SET status = $2, approved_by = $3, approved_date = $4, updated_at = $5
        WHERE e.id = $1 AND e.status = 'pending'
        RETURNING ` + enrollmentColumns
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id, status, approvedBy, approvedAt, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("transition enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByStudent returns a student's requests with course info, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	query := `SELECT ` + enrollmentColumns + `, c.title AS course_title, c.description AS course_description
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1`
	args := []interface{}{studentID}
	if status != "" {
		query += fmt.Sprintf(" AND e.status = $%d", len(args)+1)
		args = append(args, status)
	}
	query += " ORDER BY e.created_at DESC"

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListApprovedCourses returns the courses a student has been admitted to.
func (r *EnrollmentRepository) ListApprovedCourses(ctx context.Context, studentID string) ([]models.Course, error) {
	const query = `SELECT c.id, c.title, c.description, c.created_at, c.updated_at
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 AND e.status = 'approved'
        ORDER BY e.approved_date DESC NULLS LAST`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list approved courses: %w", err)
	}
	return courses, nil
}

// ListForAdmin returns every request, optionally filtered by status, joined with course info and the
// live student record, newest first.
func (r *EnrollmentRepository) ListForAdmin(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentAdminView, error) {
	query := `SELECT ` + enrollmentColumns + `, c.title AS course_title, c.description AS course_description,
        u.name AS live_name, u.email AS live_email, u.contact_number AS live_phone, u.erp_no AS live_erp_no
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        LEFT JOIN users u ON u.id = e.student_id`
	var args []interface{}
	if status != "" {
		query += " WHERE e.status = $1"
		args = append(args, status)
	}
	query += " ORDER BY e.created_at DESC"

	var views []models.EnrollmentAdminView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments for admin: %w", err)
	}
	return views, nil
}

// BackfillContacts refreshes snapshot contact fields from the live student record for rows whose
// phone snapshot is missing. Rows already carrying a phone are left untouched.
func (r *EnrollmentRepository) BackfillContacts(ctx context.Context) (int64, error) {
	const query = `UPDATE enrollments e
        SET student_name = u.name, student_email = u.email, student_phone = u.contact_number, updated_at = $1
        FROM users u
        WHERE u.id = e.student_id
          AND (e.student_phone IS NULL OR e.student_phone = '' OR e.student_phone = $2)
          AND u.contact_number <> ''`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), models.NotProvidedDisplayValue)
	if err != nil {
		return 0, fmt.Errorf("backfill enrollment contacts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("backfill enrollment contacts rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByStudent removes every request of a student.
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, fmt.Errorf("delete student enrollments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete student enrollments rows affected: %w", err)
	}
	return affected, nil
}
