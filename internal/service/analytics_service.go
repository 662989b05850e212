package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

const recentApprovalsLimit = 5

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	CountUsersByRole(ctx context.Context, role models.UserRole) (int, error)
	CountCourses(ctx context.Context) (int, error)
	EnrollmentStatusCounts(ctx context.Context) ([]models.EnrollmentStatusCount, error)
	ApprovedPerCourse(ctx context.Context) ([]models.CourseEnrollmentCount, error)
	RecentApprovals(ctx context.Context, limit int) ([]models.RecentApproval, error)
}

// AnalyticsService builds the admin dashboard with cache integration.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
}

// NewAnalyticsService constructs an analytics service. ttl <= 0 uses the cache default.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger, ttl: ttl}
}

// Overview returns the dashboard. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Overview(ctx context.Context) (*models.AnalyticsOverview, bool, error) {
	var cached models.AnalyticsOverview
	if hit, err := s.cache.Get(ctx, cacheKeyAnalyticsOverview, &cached); err != nil {
		s.logger.Warn("analytics cache unavailable, querying store", zap.Error(err))
	} else if hit {
		return &cached, true, nil
	}

	start := time.Now()
	overview, err := s.build(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build analytics")
	}
	s.metrics.ObserveDBQuery("analytics_overview", time.Since(start))

	if err := s.cache.Set(ctx, cacheKeyAnalyticsOverview, overview, s.ttl); err != nil {
		s.logger.Warn("cache analytics overview", zap.Error(err))
	}
	return overview, false, nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	if s.metrics == nil {
		return models.AnalyticsSystemMetrics{}
	}
	return s.metrics.Snapshot()
}

func (s *AnalyticsService) build(ctx context.Context) (*models.AnalyticsOverview, error) {
	students, err := s.repo.CountUsersByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	courses, err := s.repo.CountCourses(ctx)
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.repo.EnrollmentStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	perCourse, err := s.repo.ApprovedPerCourse(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentApprovals(ctx, recentApprovalsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent approvals: %w", err)
	}

	byStatus := map[string]int{
		string(models.EnrollmentStatusPending):  0,
		string(models.EnrollmentStatusApproved): 0,
		string(models.EnrollmentStatusRejected): 0,
	}
	for _, row := range statusCounts {
		byStatus[string(row.Status)] = row.Count
	}
	if perCourse == nil {
		perCourse = []models.CourseEnrollmentCount{}
	}
	if recent == nil {
		recent = []models.RecentApproval{}
	}

	return &models.AnalyticsOverview{
		TotalStudents:       students,
		TotalCourses:        courses,
		EnrollmentsByStatus: byStatus,
		CourseEnrollments:   perCourse,
		RecentApprovals:     recent,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}
