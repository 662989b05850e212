package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/handler"
	"github.com/noah-isme/course-enrollment-api/internal/middleware"
	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/service"
	"github.com/noah-isme/course-enrollment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-enrollment-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth          *handler.AuthHandler
	Students      *handler.StudentHandler
	Courses       *handler.CourseHandler
	Enrollments   *handler.EnrollmentHandler
	Grades        *handler.GradeHandler
	Attendance    *handler.AttendanceHandler
	Notifications *handler.NotificationHandler
	Analytics     *handler.AnalyticsHandler
	Metrics       *handler.MetricsHandler
}

// Options tunes how routes are mounted.
type Options struct {
	APIPrefix      string
	PublicCourses  bool
	EnableDocs     bool
	AllowedOrigins []string
}

// Deps carries the cross-cutting collaborators of the router.
type Deps struct {
	Authenticate gin.HandlerFunc
	AuditLog     middleware.AuditLogger
	Metrics      *service.MetricsService
	Logger       *zap.Logger
}

// New builds the gin engine with every route of the API.
func New(h Handlers, deps Deps, opts Options) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	audit := func(action, resource, idParam string) gin.HandlerFunc {
		return middleware.Audit(deps.AuditLog, log, action, resource, idParam)
	}
	admin := middleware.AdminOnly()
	student := middleware.StudentOnly()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", deps.Authenticate, h.Auth.Logout)
	authGroup.GET("/me", deps.Authenticate, h.Auth.Me)

	if opts.PublicCourses {
		api.GET("/courses", h.Courses.List)
	}

	secured := api.Group("", deps.Authenticate)

	students := secured.Group("/students")
	students.GET("/profile", student, h.Students.Profile)
	students.PUT("/profile", student, audit(models.AuditActionStudentUpdate, "student", ""), h.Students.UpdateProfile)
	students.GET("/my-courses", student, h.Enrollments.MyCourses)
	students.GET("/my-requests", student, h.Enrollments.MyRequests)
	students.GET("", admin, h.Students.List)
	students.GET("/export", admin, h.Students.Export)
	students.GET("/:id", admin, h.Students.Get)
	students.PUT("/:id", admin, audit(models.AuditActionStudentUpdate, "student", "id"), h.Students.Update)
	students.DELETE("/:id", admin, audit(models.AuditActionStudentDelete, "student", "id"), h.Students.Delete)
	students.GET("/:id/courses", admin, h.Enrollments.StudentCourses)

	courses := secured.Group("/courses")
	if !opts.PublicCourses {
		courses.GET("", h.Courses.List)
	}
	courses.GET("/:id", h.Courses.Get)
	courses.POST("", admin, audit(models.AuditActionCourseCreate, "course", ""), h.Courses.Create)
	courses.PUT("/:id", admin, audit(models.AuditActionCourseUpdate, "course", "id"), h.Courses.Update)
	courses.DELETE("/:id", admin, audit(models.AuditActionCourseDelete, "course", "id"), h.Courses.Delete)

	secured.POST("/request/:courseId", student, h.Enrollments.Submit)

	requests := secured.Group("/requests", admin)
	requests.GET("", h.Enrollments.List)
	requests.GET("/pending", h.Enrollments.Pending)
	requests.PUT("/:id/approve", audit(models.AuditActionEnrollmentDecide, "enrollment", "id"), h.Enrollments.Approve)
	requests.PUT("/:id/reject", audit(models.AuditActionEnrollmentDecide, "enrollment", "id"), h.Enrollments.Reject)
	requests.POST("/backfill-contacts", audit(models.AuditActionContactBackfill, "enrollment", ""), h.Enrollments.BackfillContacts)

	grades := secured.Group("/grades")
	grades.POST("", admin, audit(models.AuditActionGradeRecord, "grade", ""), h.Grades.Record)
	grades.PUT("/:id", admin, audit(models.AuditActionGradeUpdate, "grade", "id"), h.Grades.Update)
	grades.GET("/my-grades", student, h.Grades.Mine)
	grades.GET("/student/:studentId", admin, h.Grades.ByStudent)
	grades.GET("/student/:studentId/export", admin, h.Grades.Export)
	grades.GET("/course/:courseId", admin, h.Grades.ByCourse)
	grades.GET("/analytics/:studentId", middleware.AdminOrSelf("studentId"), h.Grades.Analytics)

	attendance := secured.Group("/attendance")
	attendance.POST("", admin, audit(models.AuditActionAttendanceMark, "attendance", ""), h.Attendance.Mark)
	attendance.GET("/my-attendance", student, h.Attendance.Mine)
	attendance.GET("/student/:studentId", middleware.AdminOrSelf("studentId"), h.Attendance.ByStudent)
	attendance.GET("/course/:courseId", admin, h.Attendance.ByCourse)
	attendance.GET("/analytics/:studentId", middleware.AdminOrSelf("studentId"), h.Attendance.Analytics)

	notifications := secured.Group("/notifications")
	notifications.POST("", admin, audit(models.AuditActionNotificationSend, "notification", ""), h.Notifications.Create)
	notifications.POST("/broadcast", admin, audit(models.AuditActionNotificationSend, "notification", ""), h.Notifications.Broadcast)
	notifications.GET("/my-notifications", h.Notifications.Mine)
	notifications.GET("/unread-count", h.Notifications.UnreadCount)
	notifications.PUT("/:id/read", h.Notifications.MarkRead)

	analytics := secured.Group("/analytics", admin, middleware.WithResponseMeta())
	analytics.GET("", h.Analytics.Overview)
	analytics.GET("/system", h.Analytics.System)

	return r
}
