package models

type UserRole string

const RoleAdmin UserRole = "admin"

// Organizer is the account allowed to read and export registrations.
type Organizer struct {
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}
