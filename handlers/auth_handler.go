package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/pizza-app/auth-service/middleware"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/services"
	"github.com/pizza-app/auth-service/services/auth"
	"github.com/pizza-app/auth-service/utils"
	"go.uber.org/zap"
)

// RegisterRequest represents a self-service registration
type RegisterRequest struct {
	UserName  string `json:"userName" validate:"required,min=3,max=15,username"`
	FirstName string `json:"firstName" validate:"required,max=50,alpha_name"`
	LastName  string `json:"lastName" validate:"required,max=50,alpha_name"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72,password"`
}

// LoginRequest represents a login; email and user name must name the same account
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AccountResponse is the account summary returned by register and login
type AccountResponse struct {
	ID       int64       `json:"id"`
	UserName string      `json:"userName"`
	FullName string      `json:"fullName"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

// RefreshResponse identifies the user whose session was rotated
type RefreshResponse struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
}

// AuthService defines the session lifecycle operations
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.Session, error)
	Refresh(ctx context.Context, id middleware.AuthContext) (*auth.Session, error)
	Logout(ctx context.Context, id middleware.AuthContext) (*auth.LogoutResult, error)
	Self(ctx context.Context, id middleware.AuthContext) (*models.User, error)
}

// AuthHandler handles the /auth endpoints
type AuthHandler struct {
	service AuthService
	cookies *SessionCookies
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, cookies *SessionCookies, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		logger:  logger,
	}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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

	session, err := h.service.Register(r.Context(), auth.RegisterInput{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, session.AccessToken, session.RefreshToken)
	_ = utils.WriteCreated(w, "user created!!", accountResponse(session.User))
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := utils.ValidateStruct(&req); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	session, err := h.service.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, session.AccessToken, session.RefreshToken)
	_ = utils.WriteOK(w, "user logged in successfully!!!", accountResponse(session.User))
}

// HandleSelf handles GET /auth/self
func (h *AuthHandler) HandleSelf(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	user, err := h.service.Self(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "fetch user data successfully", user)
}

// HandleRefresh handles POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	session, err := h.service.Refresh(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, session.AccessToken, session.RefreshToken)
	_ = utils.WriteOK(w, "refresh token and access token generated successfully", RefreshResponse{
		ID:       session.User.ID,
		UserName: session.User.UserName,
	})
}

// HandleLogout handles POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	result, err := h.service.Logout(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.cookies.Clear(w)
	_ = utils.WriteOK(w, "loggout successfully!!!", result)
}

func (h *AuthHandler) identity(w http.ResponseWriter, r *http.Request) (middleware.AuthContext, bool) {
	id, ok := middleware.AuthContextFrom(r.Context())
	if !ok {
		HandleServiceError(w, r, services.ErrUnauthenticated, h.logger)
		return middleware.AuthContext{}, false
	}
	return id, true
}

func accountResponse(u *models.User) AccountResponse {
	return AccountResponse{
		ID:       u.ID,
		UserName: u.UserName,
		FullName: u.FullName(),
		Email:    u.Email,
		Role:     u.Role,
	}
}
