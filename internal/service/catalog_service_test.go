package service

import (
	"context"
	"testing"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

func newCatalogFixture() (*CatalogService, *fakeDepartmentRepo, *fakeCategoryRepo) {
	departments := newFakeDepartmentRepo()
	categories := newFakeCategoryRepo()
	return NewCatalogService(departments, categories), departments, categories
}

func TestCreateDepartment(t *testing.T) {
	t.Parallel()
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	department, err := svc.CreateDepartment(ctx, DepartmentInput{Name: "  Public Works  ", Description: "roads and drainage"})
	if err != nil {
		t.Fatalf("CreateDepartment: %v", err)
	}
	if department.Name != "Public Works" {
		t.Fatalf("name = %q, want trimmed", department.Name)
	}
	if !department.IsActive {
		t.Fatal("new department should be active")
	}

	if _, err := svc.CreateDepartment(ctx, DepartmentInput{Name: "   "}); !apperrors.IsCode(err, "INVALID_ARGUMENT") {
		t.Fatalf("blank name err = %v, want INVALID_ARGUMENT", err)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := svc.CreateDepartment(ctx, DepartmentInput{Name: "Sub Unit", ParentID: &missing}); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("unknown parent err = %v, want NOT_FOUND", err)
	}
}

func TestCreateCategoryGuards(t *testing.T) {
	t.Parallel()
	svc, departments, _ := newCatalogFixture()
	ctx := context.Background()
	departments.add(&domain.Department{ID: "dept-1", Name: "Sanitation", IsActive: true})
	departments.add(&domain.Department{ID: "dept-2", Name: "Archived", IsActive: false})

	tests := []struct {
		name     string
		input    CategoryInput
		wantCode string
	}{
		{
			name:  "valid",
			input: CategoryInput{Name: "Garbage Collection", DepartmentID: "dept-1", SLAHours: 48},
		},
		{
			name:     "blank name",
			input:    CategoryInput{Name: " ", DepartmentID: "dept-1", SLAHours: 48},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "non positive sla hours",
			input:    CategoryInput{Name: "Street Lights", DepartmentID: "dept-1", SLAHours: 0},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "unknown department",
			input:    CategoryInput{Name: "Street Lights", DepartmentID: "dept-9", SLAHours: 24},
			wantCode: "NOT_FOUND",
		},
		{
			name:     "inactive department",
			input:    CategoryInput{Name: "Street Lights", DepartmentID: "dept-2", SLAHours: 24},
			wantCode: "FAILED_PRECONDITION",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			category, err := svc.CreateCategory(ctx, tc.input)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("CreateCategory: %v", err)
				}
				if !category.IsActive || category.SLAHours != tc.input.SLAHours {
					t.Fatalf("unexpected category %+v", category)
				}
				return
			}
			if !apperrors.IsCode(err, tc.wantCode) {
				t.Fatalf("err = %v, want %s", err, tc.wantCode)
			}
		})
	}
}

func TestListCategoriesScopedByDepartment(t *testing.T) {
	t.Parallel()
	svc, departments, categories := newCatalogFixture()
	ctx := context.Background()
	departments.add(&domain.Department{ID: "dept-1", Name: "Water", IsActive: true})
	departments.add(&domain.Department{ID: "dept-2", Name: "Roads", IsActive: true})
	categories.add(&domain.Category{ID: "cat-1", Name: "Leaks", DepartmentID: "dept-1", SLAHours: 24, IsActive: true})
	categories.add(&domain.Category{ID: "cat-2", Name: "Potholes", DepartmentID: "dept-2", SLAHours: 72, IsActive: true})

	scoped, err := svc.ListCategories(ctx, "dept-1")
	if err != nil {
		t.Fatalf("ListCategories scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != "cat-1" {
		t.Fatalf("scoped = %+v, want only cat-1", scoped)
	}

	all, err := svc.ListCategories(ctx, "")
	if err != nil {
		t.Fatalf("ListCategories all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d categories, want 2", len(all))
	}
}
