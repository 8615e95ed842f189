package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"github.com/pizza-app/auth-service/services/tenants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockTenantService is a mock implementation of TenantService
type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Create(ctx context.Context, in tenants.Input) (*models.Tenant, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) Get(ctx context.Context, id int64) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context, filter repositories.ListFilter) (*services.Page[*models.Tenant], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Page[*models.Tenant]), args.Error(1)
}

func (m *MockTenantService) Update(ctx context.Context, id int64, in tenants.Input) (*models.Tenant, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) Delete(ctx context.Context, id int64) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func tenantRouter(h *TenantHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/tenants", h.HandleCreate)
	r.Get("/tenants", h.HandleList)
	r.Get("/tenants/{id}", h.HandleGet)
	r.Patch("/tenants/{id}", h.HandleUpdate)
	r.Delete("/tenants/{id}", h.HandleDelete)
	return r
}

func TestTenantHandler_Create(t *testing.T) {
	svc := new(MockTenantService)
	router := tenantRouter(NewTenantHandler(svc, zap.NewNop()))
	svc.On("Create", mock.Anything, tenants.Input{Name: "Pizza Hub", Address: "MG Road"}).Return(&models.Tenant{ID: 3}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tenants", strings.NewReader(`{"name":" Pizza Hub ","address":"MG Road"}`)))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "Tenant created!!", body["message"])
	assert.Equal(t, map[string]interface{}{"id": float64(3)}, body["data"])
}

func TestTenantHandler_CreateValidation(t *testing.T) {
	svc := new(MockTenantService)
	router := tenantRouter(NewTenantHandler(svc, zap.NewNop()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tenants", strings.NewReader(`{"name":"  ","address":""}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decodeEnvelope(t, w)["error"], 2)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTenantHandler_Update(t *testing.T) {
	svc := new(MockTenantService)
	router := tenantRouter(NewTenantHandler(svc, zap.NewNop()))
	svc.On("Update", mock.Anything, int64(3), tenants.Input{Name: "Pizza Hub", Address: "Brigade Road"}).Return(&models.Tenant{ID: 3}, nil)
	svc.On("Update", mock.Anything, int64(4), mock.Anything).Return(nil, services.ErrTenantNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/tenants/3", strings.NewReader(`{"name":"Pizza Hub","address":"Brigade Road"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tenant has been updated", decodeEnvelope(t, w)["message"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/tenants/4", strings.NewReader(`{"name":"Pizza Hub","address":"Brigade Road"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTenantHandler_List(t *testing.T) {
	svc := new(MockTenantService)
	router := tenantRouter(NewTenantHandler(svc, zap.NewNop()))
	svc.On("List", mock.Anything, repositories.ListFilter{Query: "hub"}).
		Return(&services.Page[*models.Tenant]{Items: []*models.Tenant{}, Total: 0, CurrentPage: 1, PerPage: 6}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants?q=hub", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "All tenants fetched!!", body["message"])
	assert.Equal(t, []interface{}{}, body["data"])
	assert.Equal(t, float64(6), body["perPage"])
}

func TestTenantHandler_GetAndDelete(t *testing.T) {
	svc := new(MockTenantService)
	router := tenantRouter(NewTenantHandler(svc, zap.NewNop()))
	svc.On("Get", mock.Anything, int64(3)).Return(&models.Tenant{ID: 3, Name: "Pizza Hub"}, nil)
	svc.On("Delete", mock.Anything, int64(3)).Return(&models.Tenant{ID: 3, Name: "Pizza Hub"}, nil)
	svc.On("Get", mock.Anything, int64(9)).Return(nil, services.WrapInternal("failed to load tenant", errors.New("db down")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tenant fetched!!", decodeEnvelope(t, w)["message"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/tenants/3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tenant has been deleted", decodeEnvelope(t, w)["message"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/9", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
