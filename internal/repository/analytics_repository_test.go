package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
)

func TestAnalyticsRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs(models.RoleStudent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM enrollments GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pending", 2).AddRow("approved", 5))

	students, err := repo.CountUsersByRole(context.Background(), models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, 12, students)

	courses, err := repo.CountCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, courses)

	statuses, err := repo.EnrollmentStatusCounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, statuses, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepositoryRecentApprovals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	now := time.Now()
	mock.ExpectQuery("ORDER BY e.approved_date DESC NULLS LAST\\s+LIMIT \\$1").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "student_name", "course_title", "approved_date"}).
			AddRow("e1", "Asha", "Databases", now))

	rows, err := repo.RecentApprovals(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Databases", rows[0].CourseTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}
