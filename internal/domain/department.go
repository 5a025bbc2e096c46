package domain

import "time"

// Department represents an organizational unit owning tickets and staff.
type Department struct {
	ID          string
	Name        string
	Description string
	ParentID    *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
