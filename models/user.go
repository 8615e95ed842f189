package models

import (
	"strings"
	"time"
)

// Role is the single role a user holds. Authorization is an exact allow-list
// over these values, there is no hierarchy between them.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
)

// Roles lists every valid role
var Roles = []Role{RoleCustomer, RoleAdmin, RoleManager}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User represents an account that can authenticate against the service
type User struct {
	ID           int64     `json:"id" db:"id"`
	UserName     string    `json:"userName" db:"user_name"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	TenantID     *int64    `json:"tenantId,omitempty" db:"tenant_id"`
	Tenant       *Tenant   `json:"tenant,omitempty" db:"-"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance. The ID is assigned by the database.
func NewUser(userName, firstName, lastName, email, passwordHash string, role Role, tenantID *int64) *User {
	now := time.Now()
	return &User{
		UserName:     userName,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		TenantID:     tenantID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TenantRef is the tenant identifier carried in access tokens: the id as a
// decimal string, or empty when the user has no tenant.
func (u *User) TenantRef() string {
	if u.TenantID == nil {
		return ""
	}
	return formatID(*u.TenantID)
}
