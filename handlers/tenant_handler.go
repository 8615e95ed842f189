package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"github.com/pizza-app/auth-service/services/tenants"
	"github.com/pizza-app/auth-service/utils"
	"go.uber.org/zap"
)

// TenantRequest represents a request to create or update a tenant
type TenantRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"required,max=255"`
}

// TenantService defines the tenant management operations
type TenantService interface {
	Create(ctx context.Context, in tenants.Input) (*models.Tenant, error)
	Get(ctx context.Context, id int64) (*models.Tenant, error)
	List(ctx context.Context, filter repositories.ListFilter) (*services.Page[*models.Tenant], error)
	Update(ctx context.Context, id int64, in tenants.Input) (*models.Tenant, error)
	Delete(ctx context.Context, id int64) (*models.Tenant, error)
}

// TenantHandler handles the /tenants endpoints
type TenantHandler struct {
	service TenantService
	logger  *zap.Logger
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(service TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TenantHandler) decode(w http.ResponseWriter, r *http.Request) (tenants.Input, bool) {
	var req TenantRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return tenants.Input{}, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)

	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return tenants.Input{}, false
	}
	return tenants.Input{Name: req.Name, Address: req.Address}, true
}

// HandleCreate handles POST /tenants
func (h *TenantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "Tenant created!!", CreatedResponse{ID: tenant.ID})
}

// HandleUpdate handles PATCH /tenants/{id}
func (h *TenantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Tenant has been updated", CreatedResponse{ID: tenant.ID})
}

// HandleList handles GET /tenants
func (h *TenantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteList(w, "All tenants fetched!!", page.Items, page.Total, page.CurrentPage, page.PerPage)
}

// HandleGet handles GET /tenants/{id}
func (h *TenantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	tenant, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Tenant fetched!!", tenant)
}

// HandleDelete handles DELETE /tenants/{id}
func (h *TenantHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	tenant, err := h.service.Delete(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Tenant has been deleted", tenant)
}
