package models

// UpdateProfileRequest is what a student may change on their own record.
type UpdateProfileRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=120"`
	Age           *int    `json:"age" validate:"omitempty,min=1,max=150"`
	City          *string `json:"city" validate:"omitempty,min=1"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,min=1"`
	FatherName    *string `json:"father_name" validate:"omitempty,min=1"`
}

// AdminUpdateStudentRequest lets an admin edit any profile field, including the unique ones.
type AdminUpdateStudentRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Age           *int    `json:"age" validate:"omitempty,min=1,max=150"`
	City          *string `json:"city" validate:"omitempty,min=1"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,min=1"`
	FatherName    *string `json:"father_name" validate:"omitempty,min=1"`
	ErpNo         *string `json:"erp_no" validate:"omitempty,min=1"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
