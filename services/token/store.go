package token

import (
	"context"
	"errors"
	"time"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/services"
	"go.uber.org/zap"
)

// RefreshTokenStore keeps the server-side session records behind refresh tokens.
// A session is live exactly while its row exists and has not expired.
type RefreshTokenStore struct {
	tokens repositories.RefreshTokenRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a refresh token store
func NewStore(tokens repositories.RefreshTokenRepository, txMgr repositories.TransactionManager, logger *zap.Logger) *RefreshTokenStore {
	return &RefreshTokenStore{
		tokens: tokens,
		txMgr:  txMgr,
		logger: logger,
		now:    time.Now,
	}
}

// Persist creates a session for userID expiring one calendar year from now
func (s *RefreshTokenStore) Persist(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	record := models.NewRefreshToken(userID, s.now())
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, services.WrapStore("failed to persist refresh token", err)
	}
	return record, nil
}

// Revoke deletes a session. Revoking an unknown session succeeds.
func (s *RefreshTokenStore) Revoke(ctx context.Context, sessionID int64) error {
	if err := s.tokens.Delete(ctx, sessionID); err != nil {
		return services.WrapStore("failed to revoke refresh token", err)
	}
	return nil
}

// IsRevoked reports whether the session is unusable. Lookup failures count as
// revoked.
func (s *RefreshTokenStore) IsRevoked(ctx context.Context, userID, sessionID int64) bool {
	record, err := s.tokens.GetByIDAndUserID(ctx, sessionID, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("refresh token lookup failed, treating as revoked",
				zap.Int64("user_id", userID),
				zap.Int64("session_id", sessionID),
				zap.Error(err),
			)
		}
		return true
	}
	return record.IsExpired(s.now())
}

// Rotate replaces oldSessionID with a new session in one transaction. The new
// row is written before the old one is removed; on any failure neither change
// is kept. The old row must still exist: a session that was already revoked
// or rotated by a concurrent request fails with ErrUnauthenticated.
func (s *RefreshTokenStore) Rotate(ctx context.Context, userID, oldSessionID int64) (*models.RefreshToken, error) {
	return services.WithTransactionResult(ctx, s.txMgr, func(txCtx context.Context) (*models.RefreshToken, error) {
		record, err := s.Persist(txCtx, userID)
		if err != nil {
			return nil, err
		}
		deleted, err := s.tokens.DeleteOwned(txCtx, oldSessionID, userID)
		if err != nil {
			return nil, services.WrapStore("failed to revoke refresh token", err)
		}
		if !deleted {
			s.logger.Warn("refresh token already consumed",
				zap.Int64("user_id", userID),
				zap.Int64("session_id", oldSessionID))
			return nil, services.ErrUnauthenticated
		}
		return record, nil
	})
}
