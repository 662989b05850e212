package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
)

var gradeColumnNames = []string{"id", "student_id", "course_id", "assignment", "marks", "total_marks", "grade", "feedback", "submission_date", "graded_by", "created_at", "updated_at"}

func TestGradeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(1, 1))

	grade := &models.Grade{StudentID: "s1", CourseID: "c1", Assignment: "Quiz 1", Marks: 90, TotalMarks: 100, Letter: "A+"}
	require.NoError(t, repo.Create(context.Background(), grade))
	assert.NotEmpty(t, grade.ID)
	assert.False(t, grade.SubmissionDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListByStudentChronological(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	now := time.Now()
	columns := append(append([]string{}, gradeColumnNames...), "course_title", "grader_name")
	rows := sqlmock.NewRows(columns).
		AddRow("g1", "s1", "c1", "Quiz 1", 45.0, 50.0, "A+", "", now, "a1", now, now, "Databases", "Admin")
	mock.ExpectQuery("WHERE g.student_id = \\$1\\s+ORDER BY g.created_at ASC").
		WithArgs("s1").
		WillReturnRows(rows)

	grades, err := repo.ListByStudent(context.Background(), "s1", true)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "A+", grades[0].Letter)
	assert.Equal(t, "Databases", grades[0].CourseTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	now := time.Now()
	columns := append(append([]string{}, gradeColumnNames...), "course_title", "student_name", "student_erp_no")
	rows := sqlmock.NewRows(columns).
		AddRow("g1", "s1", "c1", "Lab", 70.0, 100.0, "C+", "ok", now, nil, now, now, "Databases", "Asha", "ERP-1")
	mock.ExpectQuery("WHERE g.course_id = \\$1\\s+ORDER BY g.created_at DESC").
		WithArgs("c1").
		WillReturnRows(rows)

	grades, err := repo.ListByCourse(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	require.NotNil(t, grades[0].StudentName)
	assert.Equal(t, "Asha", *grades[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE grades SET")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Grade{ID: "missing"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
