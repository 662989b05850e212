package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

type attendanceRepoStub struct {
	rows       []models.Attendance
	courseDate *time.Time
}

func (s *attendanceRepoStub) Create(ctx context.Context, a *models.Attendance) error {
	for _, row := range s.rows {
		if row.StudentID == a.StudentID && row.CourseID == a.CourseID && row.Date.Equal(a.Date) {
			return &repository.UniqueViolationError{Constraint: repository.ConstraintAttendanceDay, Err: errors.New("23505")}
		}
	}
	a.ID = testID(800 + len(s.rows))
	s.rows = append(s.rows, *a)
	return nil
}

func (s *attendanceRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceDetail, error) {
	var out []models.AttendanceDetail
	for _, row := range s.rows {
		if row.StudentID == studentID {
			out = append(out, models.AttendanceDetail{Attendance: row})
		}
	}
	return out, nil
}

func (s *attendanceRepoStub) ListByCourse(ctx context.Context, courseID string, date *time.Time) ([]models.AttendanceDetail, error) {
	s.courseDate = date
	return nil, nil
}

func (s *attendanceRepoStub) CountByStatus(ctx context.Context, studentID string) (map[models.AttendanceStatus]int, error) {
	counts := map[models.AttendanceStatus]int{}
	for _, row := range s.rows {
		if row.StudentID == studentID {
			counts[row.Status]++
		}
	}
	return counts, nil
}

func newAttendanceFixture() (*AttendanceService, *attendanceRepoStub, *notifierStub) {
	repo := &attendanceRepoStub{}
	users := &directoryStub{users: map[string]*models.User{testID(1): {ID: testID(1), Role: models.RoleStudent}}}
	courses := newCourseRepoStub(models.Course{ID: testID(10), Title: "Algorithms"})
	notifier := &notifierStub{}
	return NewAttendanceService(repo, users, courses, notifier, nil, nil), repo, notifier
}

func markRequest(date, status string) models.MarkAttendanceRequest {
	return models.MarkAttendanceRequest{StudentID: testID(1), CourseID: testID(10), Date: date, Status: status}
}

func TestAttendanceMarkTwiceSameDay(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), testID(9), markRequest("2024-03-01", "present"))
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), testID(9), markRequest("2024-03-01T15:04:05Z", "late"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "attendance already marked for this date", appErr.Message)
	assert.Len(t, repo.rows, 1)
}

func TestAttendanceMarkRejectsBadInput(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), testID(9), markRequest("01/03/2024", "present"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Mark(context.Background(), testID(9), markRequest("2024-03-01", "sleeping"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceAbsenceNotifiesStudent(t *testing.T) {
	svc, _, notifier := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), testID(9), markRequest("2024-03-01", "present"))
	require.NoError(t, err)
	assert.Empty(t, notifier.sent)

	_, err = svc.Mark(context.Background(), testID(9), markRequest("2024-03-02", "absent"))
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotificationTypeAttendance, notifier.sent[0].Type)
	assert.Contains(t, notifier.sent[0].Message, "2024-03-02")
}

func TestAttendanceAnalyticsPercentage(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	statuses := []string{"present", "present", "present", "late", "absent", "excused"}
	for i, st := range statuses {
		date := time.Date(2024, 3, i+1, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)
		_, err := svc.Mark(context.Background(), testID(9), markRequest(date, st))
		require.NoError(t, err)
	}

	a, err := svc.Analytics(context.Background(), testID(1))
	require.NoError(t, err)
	assert.Equal(t, 6, a.TotalClasses)
	assert.Equal(t, 3, a.Present)
	assert.Equal(t, 1, a.Late)
	assert.Equal(t, 1, a.Absent)
	assert.Equal(t, 1, a.Excused)
	assert.Equal(t, 66.67, a.AttendancePercentage)
}

func TestAttendanceAnalyticsNoRecords(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	a, err := svc.Analytics(context.Background(), testID(1))
	require.NoError(t, err)
	assert.Zero(t, a.TotalClasses)
	assert.Zero(t, a.AttendancePercentage)
}

func TestAttendanceListByCourseParsesDate(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()

	rows, err := svc.ListByCourse(context.Background(), testID(10), "2024-03-05")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	require.NotNil(t, repo.courseDate)
	assert.Equal(t, "2024-03-05", repo.courseDate.Format(models.DateLayout))

	_, err = svc.ListByCourse(context.Background(), testID(10), "yesterday")
	require.Error(t, err)

	_, err = svc.ListByCourse(context.Background(), testID(11), "")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}
