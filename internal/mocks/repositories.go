// Package mocks holds testify mocks of the repository interfaces shared by
// service and handler tests.
package mocks

import (
	"context"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/stretchr/testify/mock"
)

type txKey struct{}

// InTx reports whether ctx was produced by TransactionManager.InTransaction
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// TransactionManager runs the unit of work with a marked context. A non-nil
// error configured on InTransaction short-circuits fn, standing in for a
// failed BEGIN.
type TransactionManager struct {
	mock.Mock
}

func (m *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txKey{}, true), nil)
}

// UserRepository is a mock of repositories.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByIDWithTenant(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmailAndUserName(ctx context.Context, email, userName string) (*models.User, error) {
	args := m.Called(ctx, email, userName)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) ExistsByUserName(ctx context.Context, userName string) (bool, error) {
	args := m.Called(ctx, userName)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, filter repositories.ListFilter) ([]*models.User, int, error) {
	args := m.Called(ctx, filter)
	var users []*models.User
	if u := args.Get(0); u != nil {
		users = u.([]*models.User)
	}
	return users, args.Int(1), args.Error(2)
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// TenantRepository is a mock of repositories.TenantRepository
type TenantRepository struct {
	mock.Mock
}

func (m *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *TenantRepository) GetByID(ctx context.Context, id int64) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*models.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TenantRepository) List(ctx context.Context, filter repositories.ListFilter) ([]*models.Tenant, int, error) {
	args := m.Called(ctx, filter)
	var tenants []*models.Tenant
	if t := args.Get(0); t != nil {
		tenants = t.([]*models.Tenant)
	}
	return tenants, args.Int(1), args.Error(2)
}

func (m *TenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *TenantRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// RefreshTokenRepository is a mock of repositories.RefreshTokenRepository
type RefreshTokenRepository struct {
	mock.Mock
}

func (m *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *RefreshTokenRepository) GetByIDAndUserID(ctx context.Context, id, userID int64) (*models.RefreshToken, error) {
	args := m.Called(ctx, id, userID)
	if t := args.Get(0); t != nil {
		return t.(*models.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RefreshTokenRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RefreshTokenRepository) DeleteOwned(ctx context.Context, id, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}
