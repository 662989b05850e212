package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// Unique constraints and indexes the services translate into domain errors.
const (
	ConstraintUserEmail         = "users_email_key"
	ConstraintUserErpNo         = "users_erp_no_key"
	ConstraintPendingEnrollment = "enrollments_pending_unique"
	ConstraintAttendanceDay     = "attendance_student_course_date_key"
)

// ErrUniqueViolation is matched by errors.Is for any unique index collision.
var ErrUniqueViolation = errors.New("unique constraint violation")

// UniqueViolationError names the constraint that rejected a write.
type UniqueViolationError struct {
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
}

func (e *UniqueViolationError) Unwrap() error { return e.Err }

func (e *UniqueViolationError) Is(target error) bool { return target == ErrUniqueViolation }

// ViolatedConstraint returns the constraint name when err is a unique violation.
func ViolatedConstraint(err error) (string, bool) {
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return uv.Constraint, true
	}
	return "", false
}

// asUniqueViolation converts a driver unique violation into *UniqueViolationError.
func asUniqueViolation(err error) (error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return &UniqueViolationError{Constraint: pqErr.Constraint, Err: err}, true
	}
	return nil, false
}
