package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
	"github.com/noah-isme/course-enrollment-api/pkg/export"
)

// exportPageSize is the page size used to walk the roster for exports.
const exportPageSize = 100

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type enrollmentCleaner interface {
	DeleteByStudent(ctx context.Context, studentID string) (int64, error)
}

// StudentService exposes self-service profile and admin student management.
type StudentService struct {
	repo        studentStore
	enrollments enrollmentCleaner
	exporter    *ExportService
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentStore, enrollments enrollmentCleaner, exporter *ExportService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(nil, nil, logger)
	}
	return &StudentService{
		repo:        repo,
		enrollments: enrollments,
		exporter:    exporter,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// GetProfile returns the caller's own record.
func (s *StudentService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.Get(ctx, userID)
}

// UpdateProfile changes the self-editable fields of the caller.
func (s *StudentService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyText(&user.Name, req.Name)
	applyText(&user.City, req.City)
	applyText(&user.ContactNumber, req.ContactNumber)
	applyText(&user.FatherName, req.FatherName)
	if req.Age != nil {
		user.Age = *req.Age
	}
	return s.save(ctx, user)
}

// List returns students only, paginated.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.User, *models.Pagination, error) {
	role := models.RoleStudent
	users, total, err := s.repo.List(ctx, models.UserFilter{
		Role:      &role,
		Search:    strings.TrimSpace(filter.Search),
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if users == nil {
		users = []models.User{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student by id. Admin accounts are reported as missing.
func (s *StudentService) Get(ctx context.Context, id string) (*models.User, error) {
	return lookupStudent(ctx, s.repo, id)
}

// Update lets an admin change any profile field, including email and ERP number.
func (s *StudentService) Update(ctx context.Context, id string, req models.AdminUpdateStudentRequest) (*models.User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyText(&user.Name, req.Name)
	applyText(&user.Email, req.Email)
	applyText(&user.City, req.City)
	applyText(&user.ContactNumber, req.ContactNumber)
	applyText(&user.FatherName, req.FatherName)
	applyText(&user.ErpNo, req.ErpNo)
	if req.Age != nil {
		user.Age = *req.Age
	}
	return s.save(ctx, user)
}

// Delete removes the student and then their enrollment requests. The two steps are not atomic: if
// the second fails the account stays deleted and the error is surfaced.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.cache.invalidateAnalytics(ctx)

	removed, err := s.enrollments.DeleteByStudent(ctx, id)
	if err != nil {
		s.logger.Error("student deleted but enrollment cleanup failed", zap.String("student_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "student deleted but enrollment cleanup failed")
	}
	s.logger.Info("student deleted", zap.String("student_id", id), zap.Int64("enrollments_removed", removed))
	return nil
}

// Export renders the full student roster matching filter.
func (s *StudentService) Export(ctx context.Context, filter models.StudentFilter, format export.Format) (*ExportFile, error) {
	var all []models.User
	for page := 1; ; page++ {
		filter.Page, filter.PageSize = page, exportPageSize
		users, pagination, err := s.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, users...)
		if len(users) < exportPageSize || len(all) >= pagination.TotalCount {
			break
		}
	}

	file, err := s.exporter.Render(format, studentRosterDataset(all), "Student Roster", "students")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export students")
	}
	return file, nil
}

func (s *StudentService) save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.repo.Update(ctx, user); err != nil {
		if dup := duplicateUserError(err); dup != nil {
			return nil, dup
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.cache.invalidateAnalytics(ctx)
	return user, nil
}

func applyText(dst *string, value *string) {
	if value == nil {
		return
	}
	if trimmed := strings.TrimSpace(*value); trimmed != "" {
		*dst = trimmed
	}
}
