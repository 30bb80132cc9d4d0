package model

import "time"

// Role is the platform role stored in users.role.  It is fixed at signup.
type Role string

const (
	RoleUser   Role = "user"
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the three recognised roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// User represents a row in the `users` table.  PasswordHash is never
// serialised to clients.
//
// Fields:
//
//	ID           – users.id
//	Phone        – unique login identifier
//	Name, Email  – optional profile fields (NULL in the table when absent)
//	Role         – user | worker | admin
//	PasswordHash – bcrypt hash
type User struct {
	ID           int64     `json:"id"`
	Phone        string    `json:"phone"`
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserFilter narrows UserRepo.List.  A zero value lists everyone.
type UserFilter struct {
	Role Role
}

// UserPatch carries the admin-editable profile fields.  Role is deliberately
// absent: it cannot change after creation.
type UserPatch struct {
	Name  *string
	Email *string
}

// Actor is the authenticated caller as decoded from the bearer token.
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin is a small convenience used throughout the policy code.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
