package domain

import "time"

// Category classifies issues within a department. SLAHours is the default
// resolution budget applied when no priority-specific policy exists.
type Category struct {
	ID           string
	Name         string
	Description  string
	DepartmentID string
	ParentID     *string
	SLAHours     int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
