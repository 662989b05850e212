package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
)

func TestMetricsSnapshotAggregates(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/courses", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/courses", 200, 40*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveDBQuery("analytics_overview", 10*time.Millisecond)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.01)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.001)
	assert.EqualValues(t, 1, snap.DBQueryCount)
}

func TestMetricsHandlerExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordLogin(false)
	m.RecordEnrollmentTransition(models.EnrollmentStatusApproved)
	m.RecordNotifications(models.NotificationTypeAnnouncement, 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `course_enrollment_auth_logins_total{result="failure"} 1`)
	assert.Contains(t, body, `course_enrollment_enrollment_transitions_total{status="approved"} 1`)
	assert.Contains(t, body, `course_enrollment_notifications_created_total{type="announcement"} 3`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordLogin(true)
	m.ObserveDBQuery("x", time.Millisecond)
	assert.Equal(t, models.AnalyticsSystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
