package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// DateLayout is the calendar date format accepted and returned for attendance.
const DateLayout = "2006-01-02"

// Attendance is one student's status in one course on one calendar date.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  *string          `db:"marked_by" json:"marked_by,omitempty"`
	Notes     string           `db:"notes" json:"notes"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail adds display names for listings.
type AttendanceDetail struct {
	Attendance
	CourseTitle string  `db:"course_title" json:"course_title"`
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	StudentErp  *string `db:"student_erp_no" json:"student_erp_no,omitempty"`
	MarkerName  *string `db:"marker_name" json:"marker_name,omitempty"`
}

// MarkAttendanceRequest is the payload to mark attendance.
type MarkAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	CourseID  string `json:"course_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Notes     string `json:"notes" validate:"max=1000"`
}

// AttendanceAnalytics summarises a student's attendance.
type AttendanceAnalytics struct {
	TotalClasses         int     `json:"total_classes"`
	Present              int     `json:"present"`
	Absent               int     `json:"absent"`
	Late                 int     `json:"late"`
	Excused              int     `json:"excused"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}
