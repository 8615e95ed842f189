package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"go.uber.org/zap"
)

// TenantRepository implements repositories.TenantRepository
type TenantRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB, logger *zap.Logger) repositories.TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a tenant and populates its ID
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query,
		tenant.Name,
		tenant.Address,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	).Scan(&tenant.ID); err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	r.logger.Debug("tenant created", zap.Int64("id", tenant.ID), zap.String("name", tenant.Name))
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*models.Tenant, error) {
	query := `
		SELECT id, name, address, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	tenant := &models.Tenant{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Address,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return tenant, nil
}

// List returns one page of tenants, newest first. Query matches "name address".
func (r *TenantRepository) List(ctx context.Context, filter repositories.ListFilter) ([]*models.Tenant, int, error) {
	var (
		where string
		args  []interface{}
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = " WHERE (name || ' ' || address) ILIKE $1"
	}

	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, name, address, created_at, updated_at FROM tenants%s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := executor.QueryContext(ctx, query, append(args, filter.PerPage, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]*models.Tenant, 0, filter.PerPage)
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Address,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating tenant rows: %w", err)
	}

	return tenants, total, nil
}

// Update updates a tenant's name and address
func (r *TenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2,
		    address = $3,
		    updated_at = $4
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Address,
		tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	if err := requireAffected(result, "tenant", tenant.ID); err != nil {
		return err
	}

	r.logger.Debug("tenant updated", zap.Int64("id", tenant.ID))
	return nil
}

// Delete deletes a tenant. Users referencing it get a NULL tenant_id.
func (r *TenantRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	if err := requireAffected(result, "tenant", id); err != nil {
		return err
	}

	r.logger.Debug("tenant deleted", zap.Int64("id", id))
	return nil
}
