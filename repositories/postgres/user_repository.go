package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"go.uber.org/zap"
)

const userColumns = `u.id, u.user_name, u.first_name, u.last_name, u.email, u.password_hash, u.role, u.tenant_id, u.created_at, u.updated_at`

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

// UserRepository implements repositories.UserRepository
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user and populates its ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_name, first_name, last_name, email, password_hash, role, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		user.UserName,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		nullableID(user.TenantID),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapUserConstraint(err))
	}

	r.logger.Debug("user created", zap.Int64("id", user.ID), zap.String("user_name", user.UserName))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmailAndUserName retrieves the user whose email and user name both match
func (r *UserRepository) GetByEmailAndUserName(ctx context.Context, email, userName string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 AND u.user_name = $2`
	return r.getOne(ctx, query, email, userName)
}

// GetByIDWithTenant retrieves a user by ID and attaches its tenant when it has one
func (r *UserRepository) GetByIDWithTenant(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `,
		       t.id, t.name, t.address, t.created_at, t.updated_at
		FROM users u
		LEFT JOIN tenants t ON t.id = u.tenant_id
		WHERE u.id = $1
	`

	var (
		tenantID                    sql.NullInt64
		tenantName, tenantAddress   sql.NullString
		tenantCreated, tenantUpdate sql.NullTime
	)

	executor := GetExecutor(ctx, r.db)
	row := executor.QueryRowContext(ctx, query, id)
	user, err := scanUser(row, &tenantID, &tenantName, &tenantAddress, &tenantCreated, &tenantUpdate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if tenantID.Valid {
		user.Tenant = &models.Tenant{
			ID:        tenantID.Int64,
			Name:      tenantName.String,
			Address:   tenantAddress.String,
			CreatedAt: tenantCreated.Time,
			UpdatedAt: tenantUpdate.Time,
		}
	}
	return user, nil
}

// ExistsByUserName reports whether a user name is taken
func (r *UserRepository) ExistsByUserName(ctx context.Context, userName string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE user_name = $1)`, userName)
}

// ExistsByEmail reports whether an email is taken
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

// List returns one page of users matching the filter, newest first
func (r *UserRepository) List(ctx context.Context, filter repositories.ListFilter) ([]*models.User, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("((u.first_name || ' ' || u.last_name) ILIKE $%d OR u.email ILIKE $%d)", len(args), len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("u.role = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	executor := GetExecutor(ctx, r.db)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users u%s ORDER BY u.id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	rows, err := executor.QueryContext(ctx, query, append(args, filter.PerPage, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, filter.PerPage)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, total, nil
}

// Update updates profile fields, role and tenant
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET user_name = $2,
		    first_name = $3,
		    last_name = $4,
		    email = $5,
		    role = $6,
		    tenant_id = $7,
		    updated_at = $8
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		user.ID,
		user.UserName,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Role,
		nullableID(user.TenantID),
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapUserConstraint(err))
	}

	if err := requireAffected(result, "user", user.ID); err != nil {
		return err
	}

	r.logger.Debug("user updated", zap.Int64("id", user.ID))
	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := requireAffected(result, "user", id); err != nil {
		return err
	}

	r.logger.Debug("user deleted", zap.Int64("id", id))
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	executor := GetExecutor(ctx, r.db)
	user, err := scanUser(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var exists bool
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser reads userColumns followed by any extra destinations
func scanUser(row rowScanner, extra ...interface{}) (*models.User, error) {
	user := &models.User{}
	var tenantID sql.NullInt64

	dest := append([]interface{}{
		&user.ID,
		&user.UserName,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&tenantID,
		&user.CreatedAt,
		&user.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if tenantID.Valid {
		id := tenantID.Int64
		user.TenantID = &id
	}
	return user, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// mapUserConstraint turns unique violations on users into *repositories.DuplicateError
func mapUserConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "users_user_name_key":
		return &repositories.DuplicateError{Field: "userName"}
	case "users_email_key":
		return &repositories.DuplicateError{Field: "email"}
	}
	return err
}

func requireAffected(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, repositories.ErrNotFound)
	}
	return nil
}
