// Package tenants implements tenant management.
package tenants

import (
	"context"
	"errors"
	"time"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"go.uber.org/zap"
)

// Input carries the writable tenant fields
type Input struct {
	Name    string
	Address string
}

// Service manages tenants
type Service struct {
	tenants repositories.TenantRepository
	logger  *zap.Logger
}

// NewService creates a tenant service
func NewService(tenants repositories.TenantRepository, logger *zap.Logger) *Service {
	return &Service{tenants: tenants, logger: logger}
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Tenant, error) {
	tenant := models.NewTenant(in.Name, in.Address)
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, services.WrapInternal("failed to store the tenant", err)
	}
	s.logger.Info("tenant created", zap.Int64("tenant_id", tenant.ID))
	return tenant, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookup(err)
	}
	return tenant, nil
}

// List returns one page of tenants, newest first
func (s *Service) List(ctx context.Context, filter repositories.ListFilter) (*services.Page[*models.Tenant], error) {
	filter = services.NormalizeFilter(filter)
	tenants, total, err := s.tenants.List(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list tenants", err)
	}
	return services.NewPage(tenants, total, filter), nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookup(err)
	}

	tenant.Name = in.Name
	tenant.Address = in.Address
	tenant.UpdatedAt = time.Now()

	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, mapLookup(err)
	}
	s.logger.Info("tenant updated", zap.Int64("tenant_id", id))
	return tenant, nil
}

// Delete removes a tenant and returns it. Member users lose their tenant
// reference but are kept.
func (s *Service) Delete(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookup(err)
	}
	if err := s.tenants.Delete(ctx, id); err != nil {
		return nil, mapLookup(err)
	}
	s.logger.Info("tenant deleted", zap.Int64("tenant_id", id))
	return tenant, nil
}

func mapLookup(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrTenantNotFound
	}
	return services.WrapInternal("failed to load tenant", err)
}
