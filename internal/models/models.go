// Package models defines data structures used throughout the ideas application.
package models

import "time"

// Role is the coarse permission level carried by every identity
type Role string

// Roles known to the system
const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// CanEvaluate reports whether the role may review and decide ideas
func (r Role) CanEvaluate() bool {
	return r == RoleFaculty || r == RoleAdmin
}

// User represents an account known to the identity provider
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	StudentID    string    `json:"student_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name the way listings display evaluators
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Identity is the authenticated caller as seen by services and handlers
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IdentityFromUser projects a stored user onto the identity returned to callers
func IdentityFromUser(u *User) *Identity {
	return &Identity{ID: u.ID, Email: u.Email, Name: u.FullName(), Role: u.Role}
}

// NewUser carries the fields needed to register an account
type NewUser struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Role       Role   `json:"role" validate:"omitempty,oneof=student faculty admin"`
	Department string `json:"department,omitempty" validate:"max=200"`
	StudentID  string `json:"student_id,omitempty" validate:"max=50"`
}

// MatchesAllFilter reports whether a category or priority filter value means "no filter"
func MatchesAllFilter(v string) bool {
	return v == "" || v == FilterAll
}

// FilterAll is the sentinel filter value that disables a category or priority filter
const FilterAll = "all"
