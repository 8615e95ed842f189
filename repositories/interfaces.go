package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/pizza-app/auth-service/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// DuplicateError is returned when an insert or update hits a unique constraint.
// Field is the API field name of the conflicting column ("userName" or "email").
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

// IsDuplicate reports whether err wraps a DuplicateError and returns it
func IsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn run inside the transaction.
	// Commits if fn succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// ListFilter holds pagination and search parameters for list queries
type ListFilter struct {
	Page    int
	PerPage int
	Query   string
	Role    models.Role
}

// Offset returns the row offset for the current page
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a user and sets its ID. Returns *DuplicateError on a
	// user_name or email conflict.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByIDWithTenant retrieves a user by ID with its tenant populated
	GetByIDWithTenant(ctx context.Context, id int64) (*models.User, error)

	// GetByEmailAndUserName retrieves the user matching both email and user name
	GetByEmailAndUserName(ctx context.Context, email, userName string) (*models.User, error)

	// ExistsByUserName reports whether a user name is taken
	ExistsByUserName(ctx context.Context, userName string) (bool, error)

	// ExistsByEmail reports whether an email is taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns one page of users, newest first, and the total match count
	List(ctx context.Context, filter ListFilter) ([]*models.User, int, error)

	// Update updates user name, profile fields, role and tenant
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user; its refresh tokens cascade
	Delete(ctx context.Context, id int64) error
}

// TenantRepository handles tenant data operations
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id int64) (*models.Tenant, error)

	// List returns one page of tenants, newest first, and the total match count
	List(ctx context.Context, filter ListFilter) ([]*models.Tenant, int, error)

	Update(ctx context.Context, tenant *models.Tenant) error

	// Delete deletes a tenant; member users keep existing with no tenant
	Delete(ctx context.Context, id int64) error
}

// RefreshTokenRepository handles session record operations
type RefreshTokenRepository interface {
	// Create inserts a session record and sets its ID
	Create(ctx context.Context, token *models.RefreshToken) error

	// GetByIDAndUserID retrieves a session record owned by userID
	GetByIDAndUserID(ctx context.Context, id, userID int64) (*models.RefreshToken, error)

	// Delete removes a session record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id int64) error

	// DeleteOwned removes the session record id owned by userID and reports
	// whether a row was removed
	DeleteOwned(ctx context.Context, id, userID int64) (bool, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users         UserRepository
	Tenants       TenantRepository
	RefreshTokens RefreshTokenRepository
}
