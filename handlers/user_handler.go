package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"github.com/pizza-app/auth-service/services/users"
	"github.com/pizza-app/auth-service/utils"
	"go.uber.org/zap"
)

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	UserName  string `json:"userName" validate:"required,min=3,max=15,username"`
	FirstName string `json:"firstName" validate:"required,max=50,alpha_name"`
	LastName  string `json:"lastName" validate:"required,max=50,alpha_name"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72,password"`
	Role      string `json:"role" validate:"required,oneof=customer admin manager"`
	TenantID  *int64 `json:"tenantId" validate:"required_unless=Role admin,omitempty,gt=0"`
}

// UpdateUserRequest represents a request to update a user
type UpdateUserRequest struct {
	UserName  string `json:"userName" validate:"required,min=3,max=15,username"`
	FirstName string `json:"firstName" validate:"required,max=50,alpha_name"`
	LastName  string `json:"lastName" validate:"required,max=50,alpha_name"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required,oneof=customer admin manager"`
	TenantID  *int64 `json:"tenantId" validate:"required_unless=Role admin,omitempty,gt=0"`
}

// CreatedResponse carries the id of a new resource
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// UserService defines the user management operations
type UserService interface {
	Create(ctx context.Context, in users.CreateInput) (*models.User, error)
	Update(ctx context.Context, id int64, in users.UpdateInput) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter repositories.ListFilter) (*services.Page[*models.User], error)
	Delete(ctx context.Context, id int64) (*models.User, error)
}

// UserHandler handles the /users endpoints
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreate handles POST /users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	user, err := h.service.Create(r.Context(), users.CreateInput{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      models.Role(req.Role),
		TenantID:  req.TenantID,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "user created!!", CreatedResponse{ID: user.ID})
}

// HandleUpdate handles PATCH /users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	var req UpdateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	user, err := h.service.Update(r.Context(), id, users.UpdateInput{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      models.Role(req.Role),
		TenantID:  req.TenantID,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "user updated!!", CreatedResponse{ID: user.ID})
}

// HandleList handles GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	filter.Role = models.Role(strings.TrimSpace(r.URL.Query().Get("role")))

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteList(w, "All users fetched successfully!!", page.Items, page.Total, page.CurrentPage, page.PerPage)
}

// HandleGet handles GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "User fetched successfully!!", user)
}

// HandleDelete handles DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	user, err := h.service.Delete(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "deleted user successfully!!", user)
}

// listFilter reads currentPage, perPage and q from the query string
func listFilter(r *http.Request) (repositories.ListFilter, error) {
	page, err := utils.ParseQueryInt(r, "currentPage")
	if err != nil {
		return repositories.ListFilter{}, err
	}
	perPage, err := utils.ParseQueryInt(r, "perPage")
	if err != nil {
		return repositories.ListFilter{}, err
	}
	return repositories.ListFilter{
		Page:    page,
		PerPage: perPage,
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
	}, nil
}
