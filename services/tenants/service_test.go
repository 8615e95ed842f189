package tenants

import (
	"context"
	"errors"
	"testing"

	"github.com/pizza-app/auth-service/internal/mocks"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreate(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(tn *models.Tenant) bool {
		return tn.Name == "Pizza Hub" && tn.Address == "Main street"
	})).Run(func(args mock.Arguments) { args.Get(1).(*models.Tenant).ID = 5 }).Return(nil)

	tenant, err := svc.Create(context.Background(), Input{Name: "Pizza Hub", Address: "Main street"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), tenant.ID)
}

func TestCreate_StoreError(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Create(context.Background(), Input{Name: "x", Address: "y"})
	assert.True(t, services.IsInternalError(err))
}

func TestGet(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("GetByID", mock.Anything, int64(5)).Return(&models.Tenant{ID: 5, Name: "Pizza Hub"}, nil)
	repo.On("GetByID", mock.Anything, int64(6)).Return(nil, repositories.ErrNotFound)

	tenant, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Pizza Hub", tenant.Name)

	_, err = svc.Get(context.Background(), 6)
	assert.ErrorIs(t, err, services.ErrTenantNotFound)
	assert.True(t, services.IsNotFoundError(err))
}

func TestList_Defaults(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())

	want := repositories.ListFilter{Page: 1, PerPage: 6, Query: "hub"}
	repo.On("List", mock.Anything, want).Return([]*models.Tenant{{ID: 2}, {ID: 1}}, 2, nil)

	page, err := svc.List(context.Background(), repositories.ListFilter{Query: "hub"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 6, page.PerPage)
	assert.Len(t, page.Items, 2)
}

func TestList_Empty(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("List", mock.Anything, mock.Anything).Return(nil, 0, nil)

	page, err := svc.List(context.Background(), repositories.ListFilter{Page: 3, PerPage: 500})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, services.MaxPerPage, page.PerPage)
}

func TestUpdate(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("GetByID", mock.Anything, int64(5)).Return(&models.Tenant{ID: 5, Name: "old", Address: "old"}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(tn *models.Tenant) bool {
		return tn.ID == 5 && tn.Name == "new" && tn.Address == "addr"
	})).Return(nil)

	tenant, err := svc.Update(context.Background(), 5, Input{Name: "new", Address: "addr"})
	require.NoError(t, err)
	assert.Equal(t, "new", tenant.Name)
	repo.AssertExpectations(t)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, repositories.ErrNotFound)

	_, err := svc.Update(context.Background(), 9, Input{Name: "new"})
	assert.ErrorIs(t, err, services.ErrTenantNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDelete(t *testing.T) {
	repo := new(mocks.TenantRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("GetByID", mock.Anything, int64(5)).Return(&models.Tenant{ID: 5, Name: "Pizza Hub"}, nil)
	repo.On("Delete", mock.Anything, int64(5)).Return(nil)

	tenant, err := svc.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Pizza Hub", tenant.Name)
	repo.AssertExpectations(t)
}
