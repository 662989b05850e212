package models

import "time"

// EnrollmentStatusCount is one bucket of the enrollment status breakdown.
type EnrollmentStatusCount struct {
	Status EnrollmentStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}

// CourseEnrollmentCount counts approved enrollments per course.
type CourseEnrollmentCount struct {
	CourseID    string `db:"course_id" json:"course_id"`
	CourseTitle string `db:"course_title" json:"course_title"`
	Count       int    `db:"count" json:"count"`
}

// RecentApproval is one of the latest approved enrollments.
type RecentApproval struct {
	EnrollmentID string     `db:"enrollment_id" json:"enrollment_id"`
	StudentName  *string    `db:"student_name" json:"student_name,omitempty"`
	CourseTitle  string     `db:"course_title" json:"course_title"`
	ApprovedDate *time.Time `db:"approved_date" json:"approved_date,omitempty"`
}

// AnalyticsOverview is the admin dashboard payload.
type AnalyticsOverview struct {
	TotalStudents       int                     `json:"total_students"`
	TotalCourses        int                     `json:"total_courses"`
	EnrollmentsByStatus map[string]int          `json:"enrollments_by_status"`
	CourseEnrollments   []CourseEnrollmentCount `json:"course_enrollments"`
	RecentApprovals     []RecentApproval        `json:"recent_approvals"`
	GeneratedAt         time.Time               `json:"generated_at"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
