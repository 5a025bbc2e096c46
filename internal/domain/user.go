package domain

import "time"

// UserRole enumerates platform roles.
type UserRole string

const (
	RoleCitizen UserRole = "citizen"
	RoleStaff   UserRole = "staff"
	RoleAdmin   UserRole = "admin"
)

// User is a citizen, staff member or administrator. Staff belong to a
// department.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	DepartmentID *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaff reports whether the role can work tickets.
func (r UserRole) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}
