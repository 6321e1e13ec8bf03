package models

import "time"

// Role identifies a user's position in the organisation. The approval
// chain is ordered over these roles.
type Role string

const (
	RoleStaff      Role = "STAFF"
	RoleManager    Role = "MANAGER"
	RoleControleur Role = "CONTROLEUR"
	RoleDirection  Role = "DIRECTION"
	RoleEconome    Role = "ECONOME"
)

var validRoles = map[Role]bool{
	RoleStaff:      true,
	RoleManager:    true,
	RoleControleur: true,
	RoleDirection:  true,
	RoleEconome:    true,
}

// IsValid returns true if the role is a known role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// User represents a staff member or approver.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	DepartmentID string    `json:"department_id,omitempty"`
	CompanyID    string    `json:"company_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
