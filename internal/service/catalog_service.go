package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// CatalogService manages the department and category reference data the
// rest of the workflow keys on.
type CatalogService struct {
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
}

// DepartmentInput describes a new department.
type DepartmentInput struct {
	Name        string
	Description string
	ParentID    *string
}

// CategoryInput describes a new category. SLAHours is the resolution budget
// used when no priority-specific policy covers a ticket.
type CategoryInput struct {
	Name         string
	Description  string
	DepartmentID string
	ParentID     *string
	SLAHours     int
}

// NewCatalogService constructs the service.
func NewCatalogService(departments repository.DepartmentRepository, categories repository.CategoryRepository) *CatalogService {
	return &CatalogService{departments: departments, categories: categories}
}

// CreateDepartment registers a department, optionally under a parent.
func (s *CatalogService) CreateDepartment(ctx context.Context, input DepartmentInput) (*domain.Department, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewInvalidArgument("department name required", nil)
	}
	if input.ParentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("parent department", map[string]any{"parent_id": *input.ParentID})
			}
			return nil, err
		}
	}

	department := &domain.Department{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ParentID:    input.ParentID,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

// ListDepartments returns every department.
func (s *CatalogService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.ListAll(ctx)
}

// CreateCategory registers a category under an active department. The
// category's default resolution budget must be positive since the deadline
// calculator falls back to it.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewInvalidArgument("category name required", nil)
	}
	if input.SLAHours <= 0 {
		return nil, apperrors.NewInvalidArgument("sla_hours must be positive", map[string]any{"sla_hours": input.SLAHours})
	}
	department, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, err
	}
	if !department.IsActive {
		return nil, apperrors.NewFailedPrecondition("department inactive", nil)
	}
	if input.ParentID != nil {
		if _, err := s.categories.GetByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("parent category", map[string]any{"parent_id": *input.ParentID})
			}
			return nil, err
		}
	}

	category := &domain.Category{
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		DepartmentID: department.ID,
		ParentID:     input.ParentID,
		SLAHours:     input.SLAHours,
		IsActive:     true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns categories, optionally scoped to one department.
func (s *CatalogService) ListCategories(ctx context.Context, departmentID string) ([]domain.Category, error) {
	if departmentID != "" {
		return s.categories.ListByDepartment(ctx, departmentID)
	}
	return s.categories.ListAll(ctx)
}
