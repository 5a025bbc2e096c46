package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// CreateDepartmentRequest registers an organizational unit.
type CreateDepartmentRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description" validate:"max=500"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid4"`
}

// CreateCategoryRequest registers an issue category under a department.
type CreateCategoryRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Description  string  `json:"description" validate:"max=500"`
	DepartmentID string  `json:"department_id" validate:"required,uuid4"`
	ParentID     *string `json:"parent_id" validate:"omitempty,uuid4"`
	SLAHours     int     `json:"sla_hours" validate:"required,min=1"`
}

// DepartmentResponse is the API shape for a department.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryResponse is the API shape for a category.
type CategoryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DepartmentID string    `json:"department_id"`
	ParentID     *string   `json:"parent_id,omitempty"`
	SLAHours     int       `json:"sla_hours"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewDepartmentResponse maps a domain department.
func NewDepartmentResponse(department *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          department.ID,
		Name:        department.Name,
		Description: department.Description,
		ParentID:    department.ParentID,
		IsActive:    department.IsActive,
		CreatedAt:   department.CreatedAt,
		UpdatedAt:   department.UpdatedAt,
	}
}

// NewCategoryResponse maps a domain category.
func NewCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		Description:  category.Description,
		DepartmentID: category.DepartmentID,
		ParentID:     category.ParentID,
		SLAHours:     category.SLAHours,
		IsActive:     category.IsActive,
		CreatedAt:    category.CreatedAt,
		UpdatedAt:    category.UpdatedAt,
	}
}
