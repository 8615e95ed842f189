package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"go.uber.org/zap"
)

// RefreshTokenRepository implements repositories.RefreshTokenRepository
type RefreshTokenRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *DB, logger *zap.Logger) repositories.RefreshTokenRepository {
	return &RefreshTokenRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a session record and populates its ID
func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	).Scan(&token.ID); err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	r.logger.Debug("refresh token stored", zap.Int64("id", token.ID), zap.Int64("user_id", token.UserID))
	return nil
}

// GetByIDAndUserID retrieves a session record owned by userID
func (r *RefreshTokenRepository) GetByIDAndUserID(ctx context.Context, id, userID int64) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, expires_at, created_at, updated_at
		FROM refresh_tokens
		WHERE id = $1 AND user_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	token := &models.RefreshToken{}
	err := executor.QueryRowContext(ctx, query, id, userID).Scan(
		&token.ID,
		&token.UserID,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("refresh token %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token, nil
}

// Delete removes a session record; a missing row is not an error
func (r *RefreshTokenRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		r.logger.Debug("refresh token already gone", zap.Int64("id", id))
	}
	return nil
}

// DeleteOwned removes the session record id of userID. It returns false when
// no such row existed, e.g. because a concurrent rotation already consumed it.
func (r *RefreshTokenRepository) DeleteOwned(ctx context.Context, id, userID int64) (bool, error) {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete refresh token: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
