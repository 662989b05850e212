package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-enrollment-api/internal/models"
)

const attendanceColumns = `a.id, a.student_id, a.course_id, a.date, a.status, a.marked_by, a.notes, a.created_at, a.updated_at`

// AttendanceRepository persists per-day attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts an attendance row. A second row for the same student, course and date surfaces
// as *UniqueViolationError.
func (r *AttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	attendance.CreatedAt = now
	attendance.UpdatedAt = now
	const query = `INSERT INTO attendance (id, student_id, course_id, date, status, marked_by, notes, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :date, :status, :marked_by, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attendance); err != nil {
		if uv, ok := asUniqueViolation(err); ok {
			return uv
		}
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// ListByStudent returns a student's attendance, latest date first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceDetail, error) {
	query := `SELECT ` + attendanceColumns + `, c.title AS course_title, m.name AS marker_name
        FROM attendance a
        JOIN courses c ON c.id = a.course_id
        LEFT JOIN users m ON m.id = a.marked_by
        WHERE a.student_id = $1
        ORDER BY a.date DESC, a.created_at DESC`
	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return rows, nil
}

// ListByCourse returns attendance for a course, optionally restricted to one date.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, courseID string, date *time.Time) ([]models.AttendanceDetail, error) {
	query := `SELECT ` + attendanceColumns + `, c.title AS course_title, s.name AS student_name, s.erp_no AS student_erp_no
        FROM attendance a
        JOIN courses c ON c.id = a.course_id
        LEFT JOIN users s ON s.id = a.student_id
        WHERE a.course_id = $1`
	args := []interface{}{courseID}
	if date != nil {
		query += fmt.Sprintf(" AND a.date = $%d", len(args)+1)
		args = append(args, date.Format(models.DateLayout))
	}
	query += " ORDER BY a.date DESC, s.name ASC"
	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list course attendance: %w", err)
	}
	return rows, nil
}

// CountByStatus returns the number of rows per status for a student.
func (r *AttendanceRepository) CountByStatus(ctx context.Context, studentID string) (map[models.AttendanceStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM attendance WHERE student_id = $1 GROUP BY status`
	var rows []struct {
		Status models.AttendanceStatus `db:"status"`
		Count  int                     `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("count attendance by status: %w", err)
	}
	counts := make(map[models.AttendanceStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
