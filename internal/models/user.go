package models

// Role distinguishes employees from administrators.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleAdmin    Role = "Admin"
)

// User represents an account on the backend.
type User struct {
	// Type is the user's role.
	Type Role `json:"type"`

	// Email is the login identifier.
	Email string `json:"email"`

	// Password is only populated when creating an account.
	Password string `json:"password,omitempty"`

	// Name is the display name; derived from the email on signup.
	Name string `json:"name,omitempty"`
}
