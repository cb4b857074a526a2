package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// User is an actor in the invoice workflow.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	Role         constants.Role `json:"role"`
	DepartmentID uuid.NullUUID  `json:"department_id"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (u *User) Can() constants.Capabilities {
	if u == nil {
		return constants.Capabilities{}
	}
	return u.Role.Capabilities()
}

// Department groups users; invoices inherit the uploader's department.
type Department struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
