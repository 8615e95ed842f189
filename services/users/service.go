// Package users implements administrative user management.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"go.uber.org/zap"
)

// ErrTenantRequired is returned when a non-admin user has no tenant
var ErrTenantRequired = services.NewValidationError(services.FieldError{Field: "tenantId", Message: "Tenant id is required!"})

// Hasher hashes plaintext passwords
type Hasher interface {
	Hash(plain string) (string, error)
}

// CreateInput is an admin-initiated user creation
type CreateInput struct {
	UserName  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
	TenantID  *int64
}

// UpdateInput replaces the mutable fields of a user
type UpdateInput struct {
	UserName  string
	FirstName string
	LastName  string
	Email     string
	Role      models.Role
	TenantID  *int64
}

// Service manages users on behalf of admins and managers
type Service struct {
	users   repositories.UserRepository
	tenants repositories.TenantRepository
	hasher  Hasher
	logger  *zap.Logger
}

// NewService creates a user management service
func NewService(users repositories.UserRepository, tenants repositories.TenantRepository, hasher Hasher, logger *zap.Logger) *Service {
	return &Service{users: users, tenants: tenants, hasher: hasher, logger: logger}
}

// Create adds a user with an explicit role
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	if err := s.checkRoleAndTenant(ctx, in.Role, in.TenantID); err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByUserName(ctx, in.UserName)
	if err != nil {
		return nil, services.WrapInternal("failed to check user name", err)
	}
	if taken {
		return nil, services.ErrUserNameTaken
	}
	taken, err = s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, services.WrapInternal("failed to check email", err)
	}
	if taken {
		return nil, services.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if services.IsValidationError(err) {
			return nil, err
		}
		return nil, services.WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.UserName, in.FirstName, in.LastName, in.Email, hash, in.Role, in.TenantID)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, services.MapUserWriteError(err)
	}

	s.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role.String()))
	return user, nil
}

// Update replaces the mutable fields of user id
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.User, error) {
	if err := s.checkRoleAndTenant(ctx, in.Role, in.TenantID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookup(err)
	}

	user.UserName = in.UserName
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = in.Email
	user.Role = in.Role
	user.TenantID = in.TenantID
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, services.MapUserWriteError(err)
	}

	s.logger.Info("user updated", zap.Int64("user_id", id))
	return user, nil
}

// Get returns a user with its tenant
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByIDWithTenant(ctx, id)
	if err != nil {
		return nil, mapLookup(err)
	}
	return user, nil
}

// List returns one page of users, newest first
func (s *Service) List(ctx context.Context, filter repositories.ListFilter) (*services.Page[*models.User], error) {
	filter = services.NormalizeFilter(filter)
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, services.NewValidationError(services.FieldError{Field: "role", Message: "Invalid role"})
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list users", err)
	}
	return services.NewPage(users, total, filter), nil
}

// Delete removes a user and returns it as it was before deletion. The user's
// sessions go with it.
func (s *Service) Delete(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByIDWithTenant(ctx, id)
	if err != nil {
		return nil, mapLookup(err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return nil, mapLookup(err)
	}

	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return user, nil
}

func (s *Service) checkRoleAndTenant(ctx context.Context, role models.Role, tenantID *int64) error {
	if !role.Valid() {
		return services.NewValidationError(services.FieldError{Field: "role", Message: "Role must be one of customer, admin, manager"})
	}
	if tenantID == nil {
		if role != models.RoleAdmin {
			return ErrTenantRequired
		}
		return nil
	}

	if _, err := s.tenants.GetByID(ctx, *tenantID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrInvalidTenantID
		}
		return services.WrapInternal("failed to check tenant", err)
	}
	return nil
}

func mapLookup(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrUserNotFound
	}
	return services.WrapInternal("failed to load user", err)
}
