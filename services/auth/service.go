// Package auth implements the session lifecycle: register, login, refresh,
// logout and self.
package auth

import (
	"context"
	"errors"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"github.com/pizza-app/auth-service/services/events"
	"github.com/pizza-app/auth-service/services/token"
	"go.uber.org/zap"
)

// TokenIssuer signs the access and refresh tokens of a session
type TokenIssuer interface {
	GenerateAccessToken(ctx context.Context, id token.Identity) (string, error)
	GenerateRefreshToken(id token.Identity, sessionID int64) (string, error)
}

// SessionStore manages the session rows behind refresh tokens
type SessionStore interface {
	Persist(ctx context.Context, userID int64) (*models.RefreshToken, error)
	Revoke(ctx context.Context, sessionID int64) error
	Rotate(ctx context.Context, userID, oldSessionID int64) (*models.RefreshToken, error)
}

// EventEmitter receives auth lifecycle events
type EventEmitter interface {
	Emit(event *events.Event) error
}

// RegisterInput is a self-service registration request
type RegisterInput struct {
	UserName  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginInput identifies a user by email and user name together
type LoginInput struct {
	Email    string
	UserName string
	Password string
}

// Session is the result of a successful register, login or refresh
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	SessionID    int64
}

// LogoutResult identifies the session that was closed
type LogoutResult struct {
	ID   int64       `json:"id"`
	Role models.Role `json:"role"`
}

// Service drives the auth session lifecycle
type Service struct {
	users    repositories.UserRepository
	txMgr    repositories.TransactionManager
	sessions SessionStore
	tokens   TokenIssuer
	hasher   PasswordHasher
	events   EventEmitter
	logger   *zap.Logger
}

// NewService creates an auth service
func NewService(
	users repositories.UserRepository,
	txMgr repositories.TransactionManager,
	sessions SessionStore,
	tokens TokenIssuer,
	hasher PasswordHasher,
	emitter EventEmitter,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:    users,
		txMgr:    txMgr,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		events:   emitter,
		logger:   logger,
	}
}

// Register creates a customer account and opens its first session. The user
// row and the session row commit together or not at all.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := s.checkAvailable(ctx, in.UserName, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if services.IsValidationError(err) {
			return nil, err
		}
		return nil, services.WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.UserName, in.FirstName, in.LastName, in.Email, hash, models.RoleCustomer, nil)

	session, err := services.WithTransactionResult(ctx, s.txMgr, func(txCtx context.Context) (*Session, error) {
		if err := s.users.Create(txCtx, user); err != nil {
			return nil, services.MapUserWriteError(err)
		}
		return s.openSession(txCtx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("session_id", session.SessionID))
	s.emit(events.New(events.TypeUserRegistered, user.ID, user.Role, session.SessionID))

	return session, nil
}

// Login verifies credentials and opens a new session. Unknown users and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	user, err := s.users.GetByEmailAndUserName(ctx, in.Email, in.UserName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.CompareDummy(in.Password)
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.WrapInternal("failed to look up user", err)
	}

	if !s.hasher.Compare(user.PasswordHash, in.Password) {
		s.logger.Debug("password mismatch", zap.Int64("user_id", user.ID))
		return nil, services.ErrInvalidCredentials
	}

	session, err := services.WithTransactionResult(ctx, s.txMgr, func(txCtx context.Context) (*Session, error) {
		return s.openSession(txCtx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.Int64("session_id", session.SessionID))
	s.emit(events.New(events.TypeUserLoggedIn, user.ID, user.Role, session.SessionID).WithTenant(user.TenantRef()))

	return session, nil
}

// Refresh rotates the caller's session. The access token is signed before the
// store is touched, so a key failure leaves the old session usable.
func (s *Service) Refresh(ctx context.Context, auth token.AuthContext) (*Session, error) {
	user, err := s.loadUser(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}

	identity := token.IdentityFromUser(user)
	accessToken, err := s.tokens.GenerateAccessToken(ctx, identity)
	if err != nil {
		return nil, err
	}

	session, err := services.WithTransactionResult(ctx, s.txMgr, func(txCtx context.Context) (*Session, error) {
		record, err := s.sessions.Rotate(txCtx, user.ID, auth.SessionID)
		if err != nil {
			return nil, err
		}
		refreshToken, err := s.tokens.GenerateRefreshToken(identity, record.ID)
		if err != nil {
			return nil, err
		}
		return &Session{User: user, AccessToken: accessToken, RefreshToken: refreshToken, SessionID: record.ID}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session rotated",
		zap.Int64("user_id", user.ID),
		zap.Int64("old_session_id", auth.SessionID),
		zap.Int64("session_id", session.SessionID))
	s.emit(events.New(events.TypeSessionRefreshed, user.ID, user.Role, session.SessionID))

	return session, nil
}

// Logout revokes the caller's session. Revoking an already revoked session
// succeeds.
func (s *Service) Logout(ctx context.Context, auth token.AuthContext) (*LogoutResult, error) {
	if err := s.sessions.Revoke(ctx, auth.SessionID); err != nil {
		return nil, err
	}

	s.logger.Info("user logged out",
		zap.Int64("user_id", auth.UserID),
		zap.Int64("session_id", auth.SessionID))
	s.emit(events.New(events.TypeUserLoggedOut, auth.UserID, auth.Role, auth.SessionID))

	return &LogoutResult{ID: auth.SessionID, Role: auth.Role}, nil
}

// Self returns the caller's profile with its tenant
func (s *Service) Self(ctx context.Context, auth token.AuthContext) (*models.User, error) {
	user, err := s.users.GetByIDWithTenant(ctx, auth.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to load user", err)
	}
	return user, nil
}

// openSession persists a session row and signs both tokens for it. It must
// run inside a transaction so a signing failure discards the row.
func (s *Service) openSession(ctx context.Context, user *models.User) (*Session, error) {
	record, err := s.sessions.Persist(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	identity := token.IdentityFromUser(user)
	accessToken, err := s.tokens.GenerateAccessToken(ctx, identity)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(identity, record.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    record.ID,
	}, nil
}

func (s *Service) checkAvailable(ctx context.Context, userName, email string) error {
	taken, err := s.users.ExistsByUserName(ctx, userName)
	if err != nil {
		return services.WrapInternal("failed to check user name", err)
	}
	if taken {
		return services.ErrUserNameTaken
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return services.WrapInternal("failed to check email", err)
	}
	if taken {
		return services.ErrEmailTaken
	}
	return nil
}

func (s *Service) loadUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to load user", err)
	}
	return user, nil
}

func (s *Service) emit(event *events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(event); err != nil {
		s.logger.Warn("auth event not emitted",
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}
