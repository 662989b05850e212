package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-enrollment-api/internal/models"
)

// AnalyticsRepository exposes read-optimised queries for the admin dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CountUsersByRole returns how many accounts hold role.
func (r *AnalyticsRepository) CountUsersByRole(ctx context.Context, role models.UserRole) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return total, nil
}

// CountCourses returns the catalog size.
func (r *AnalyticsRepository) CountCourses(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}

// EnrollmentStatusCounts groups enrollments by status.
func (r *AnalyticsRepository) EnrollmentStatusCounts(ctx context.Context) ([]models.EnrollmentStatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM enrollments GROUP BY status`
	var rows []models.EnrollmentStatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("enrollment status counts: %w", err)
	}
	return rows, nil
}

// ApprovedPerCourse counts approved enrollments per course, largest first.
func (r *AnalyticsRepository) ApprovedPerCourse(ctx context.Context) ([]models.CourseEnrollmentCount, error) {
	const query = `SELECT c.id AS course_id, c.title AS course_title, COUNT(*) AS count
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.status = 'approved'
        GROUP BY c.id, c.title
        ORDER BY count DESC, c.title ASC`
	var rows []models.CourseEnrollmentCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("approved enrollments per course: %w", err)
	}
	return rows, nil
}

// RecentApprovals returns the latest approved enrollments.
func (r *AnalyticsRepository) RecentApprovals(ctx context.Context, limit int) ([]models.RecentApproval, error) {
	const query = `SELECT e.id AS enrollment_id, COALESCE(u.name, e.student_name) AS student_name, c.title AS course_title, e.approved_date
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        LEFT JOIN users u ON u.id = e.student_id
        WHERE e.status = 'approved'
        ORDER BY e.approved_date DESC NULLS LAST
        LIMIT $1`
	var rows []models.RecentApproval
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("recent approvals: %w", err)
	}
	return rows, nil
}
