package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment request.
type EnrollmentStatus string

// Possible enrollment statuses. Approved and rejected are terminal.
const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusApproved EnrollmentStatus = "approved"
	EnrollmentStatusRejected EnrollmentStatus = "rejected"
)

// Valid reports whether the status is known.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusApproved, EnrollmentStatusRejected:
		return true
	default:
		return false
	}
}

// Display fallbacks used when a snapshot or the live student record lacks a value.
const (
	UnknownDisplayValue     = "Unknown"
	NotProvidedDisplayValue = "Not provided"
)

// Enrollment is a student's request to join a course.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	CourseID       string           `db:"course_id" json:"course_id"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	StudentName    *string          `db:"student_name" json:"student_name,omitempty"`
	StudentEmail   *string          `db:"student_email" json:"student_email,omitempty"`
	StudentPhone   *string          `db:"student_phone" json:"student_phone,omitempty"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	ApprovedBy     *string          `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedDate   *time.Time       `db:"approved_date" json:"approved_date,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches an enrollment with the course it targets.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle       string `db:"course_title" json:"course_title"`
	CourseDescription string `db:"course_description" json:"course_description"`
}

// EnrollmentAdminView is the admin listing row: course info plus live student contact data.
type EnrollmentAdminView struct {
	EnrollmentDetail
	LiveName     *string `db:"live_name" json:"-"`
	LiveEmail    *string `db:"live_email" json:"-"`
	LivePhone    *string `db:"live_phone" json:"-"`
	LiveErpNo    *string `db:"live_erp_no" json:"-"`
	DisplayName  string  `db:"-" json:"display_name"`
	DisplayEmail string  `db:"-" json:"display_email"`
	DisplayPhone string  `db:"-" json:"display_phone"`
	ErpNo        string  `db:"-" json:"erp_no"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Status    EnrollmentStatus
}

// BackfillResult reports how many snapshots were refreshed.
type BackfillResult struct {
	Updated int64 `json:"updated"`
}
