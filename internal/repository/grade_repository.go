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

const gradeColumns = `g.id, g.student_id, g.course_id, g.assignment, g.marks, g.total_marks, g.grade, g.feedback,
        g.submission_date, g.graded_by, g.created_at, g.updated_at`

// GradeRepository handles grade persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Create inserts a grade. The letter must already be computed.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.SubmissionDate.IsZero() {
		grade.SubmissionDate = now
	}
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, course_id, assignment, marks, total_marks, grade, feedback, submission_date, graded_by, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :assignment, :marks, :total_marks, :grade, :feedback, :submission_date, :graded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// FindByID returns a grade by id.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades g WHERE g.id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// Update rewrites the assessed fields of a grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET assignment = :assignment, marks = :marks, total_marks = :total_marks, grade = :grade, feedback = :feedback, graded_by = :graded_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, grade)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return expectAffected(res, "update grade")
}

// ListByStudent returns a student's grades. Newest first unless chronological is set, in which case
// the rows come back in insertion order.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string, chronological bool) ([]models.GradeDetail, error) {
	order := "DESC"
	if chronological {
		order = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s, c.title AS course_title, grader.name AS grader_name
        FROM grades g
        JOIN courses c ON c.id = g.course_id
        LEFT JOIN users grader ON grader.id = g.graded_by
        WHERE g.student_id = $1
        ORDER BY g.created_at %s`, gradeColumns, order)
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// ListByCourse returns every grade in a course with the student names, newest first.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	query := `SELECT ` + gradeColumns + `, c.title AS course_title, s.name AS student_name, s.erp_no AS student_erp_no
        FROM grades g
        JOIN courses c ON c.id = g.course_id
        LEFT JOIN users s ON s.id = g.student_id
        WHERE g.course_id = $1
        ORDER BY g.created_at DESC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	return grades, nil
}
