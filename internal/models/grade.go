package models

import "time"

// Letter grades ordered from best to worst.
var GradeLetters = []string{"A+", "A", "B+", "B", "C+", "C", "D", "F"}

// Grade is one assessed assignment for a student in a course.
type Grade struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	Assignment     string    `db:"assignment" json:"assignment"`
	Marks          float64   `db:"marks" json:"marks"`
	TotalMarks     float64   `db:"total_marks" json:"total_marks"`
	Letter         string    `db:"grade" json:"grade"`
	Feedback       string    `db:"feedback" json:"feedback"`
	SubmissionDate time.Time `db:"submission_date" json:"submission_date"`
	GradedBy       *string   `db:"graded_by" json:"graded_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// GradeDetail adds display names for listings.
type GradeDetail struct {
	Grade
	CourseTitle string  `db:"course_title" json:"course_title"`
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	StudentErp  *string `db:"student_erp_no" json:"student_erp_no,omitempty"`
	GraderName  *string `db:"grader_name" json:"grader_name,omitempty"`
}

// RecordGradeRequest is the payload to record a grade.
type RecordGradeRequest struct {
	StudentID      string     `json:"student_id" validate:"required,uuid"`
	CourseID       string     `json:"course_id" validate:"required,uuid"`
	Assignment     string     `json:"assignment" validate:"required,max=200"`
	Marks          *float64   `json:"marks" validate:"required,min=0,max=100"`
	TotalMarks     *float64   `json:"total_marks" validate:"omitempty,gt=0"`
	Feedback       string     `json:"feedback" validate:"max=2000"`
	SubmissionDate *time.Time `json:"submission_date"`
}

// UpdateGradeRequest changes an existing grade. The letter is recomputed whenever marks change.
type UpdateGradeRequest struct {
	Assignment *string  `json:"assignment" validate:"omitempty,min=1,max=200"`
	Marks      *float64 `json:"marks" validate:"omitempty,min=0,max=100"`
	TotalMarks *float64 `json:"total_marks" validate:"omitempty,gt=0"`
	Feedback   *string  `json:"feedback" validate:"omitempty,max=2000"`
}

// GradeAnalytics summarises a student's grades.
type GradeAnalytics struct {
	TotalGrades       int            `json:"total_grades"`
	AverageMarks      float64        `json:"average_marks"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	RecentGrades      []GradeDetail  `json:"recent_grades"`
}
