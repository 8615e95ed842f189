package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

var userRowColumns = []string{"id", "user_name", "first_name", "last_name", "email", "password_hash", "role", "tenant_id", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("returns generated id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		user := models.NewUser("mario", "Mario", "Rossi", "mario@example.com", "hash", models.RoleCustomer, nil)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("mario", "Mario", "Rossi", "mario@example.com", "hash", "customer", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		require.NoError(t, repo.Create(ctx, user))
		assert.Equal(t, int64(11), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violations to duplicate errors", func(t *testing.T) {
		tests := []struct {
			constraint string
			field      string
		}{
			{"users_user_name_key", "userName"},
			{"users_email_key", "email"},
		}
		for _, tt := range tests {
			t.Run(tt.constraint, func(t *testing.T) {
				db, mock := newMockDB(t)
				repo := NewUserRepository(db, zap.NewNop())
				tenantID := int64(2)
				user := models.NewUser("mario", "Mario", "Rossi", "mario@example.com", "hash", models.RoleManager, &tenantID)

				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
					WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

				err := repo.Create(ctx, user)
				dup, ok := repositories.IsDuplicate(err)
				require.True(t, ok)
				assert.Equal(t, tt.field, dup.Field)
			})
		}
	})
}

func TestUserRepository_GetByEmailAndUserName(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("WHERE u.email = $1 AND u.user_name = $2")).
			WithArgs("mario@example.com", "mario").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(5, "mario", "Mario", "Rossi", "mario@example.com", "hash", "manager", 3, now, now))

		user, err := repo.GetByEmailAndUserName(ctx, "mario@example.com", "mario")
		require.NoError(t, err)
		assert.Equal(t, int64(5), user.ID)
		assert.Equal(t, models.RoleManager, user.Role)
		require.NotNil(t, user.TenantID)
		assert.Equal(t, int64(3), *user.TenantID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("WHERE u.email = $1 AND u.user_name = $2")).
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmailAndUserName(ctx, "x@example.com", "x")
		assert.Nil(t, user)
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})
}

func TestUserRepository_GetByIDWithTenant(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cols := append(append([]string{}, userRowColumns...), "t_id", "t_name", "t_address", "t_created_at", "t_updated_at")

	t.Run("with tenant", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN tenants t ON t.id = u.tenant_id")).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(5, "mario", "Mario", "Rossi", "m@example.com", "hash", "customer", 3, now, now, 3, "Pizza Co", "Main St", now, now))

		user, err := repo.GetByIDWithTenant(ctx, 5)
		require.NoError(t, err)
		require.NotNil(t, user.Tenant)
		assert.Equal(t, "Pizza Co", user.Tenant.Name)
	})

	t.Run("without tenant", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN tenants t ON t.id = u.tenant_id")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(1, "admin", "Ada", "Admin", "a@example.com", "hash", "admin", nil, now, now, nil, nil, nil, nil, nil))

		user, err := repo.GetByIDWithTenant(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, user.Tenant)
		assert.Nil(t, user.TenantID)
	})
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u WHERE ((u.first_name || ' ' || u.last_name) ILIKE $1 OR u.email ILIKE $1) AND u.role = $2")).
		WithArgs("%mar%", "manager").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY u.id DESC LIMIT $3 OFFSET $4")).
		WithArgs("%mar%", "manager", 6, 6).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(9, "mario", "Mario", "Rossi", "m@example.com", "hash", "manager", nil, now, now))

	users, total, err := repo.List(ctx, repositories.ListFilter{Page: 2, PerPage: 6, Query: "mar", Role: models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, users, 1)
	assert.Equal(t, "mario", users[0].UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("update missing user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, &models.User{ID: 99, Role: models.RoleCustomer})
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})

	t.Run("delete existing user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 4))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTenantRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	tenantCols := []string{"id", "name", "address", "created_at", "updated_at"}

	t.Run("create", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())
		tenant := models.NewTenant("Pizza Co", "Main St")

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tenants")).
			WithArgs("Pizza Co", "Main St", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

		require.NoError(t, repo.Create(ctx, tenant))
		assert.Equal(t, int64(3), tenant.ID)
	})

	t.Run("get missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM tenants")).
			WithArgs(int64(8)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 8)
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})

	t.Run("list without query", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tenants")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id DESC LIMIT $1 OFFSET $2")).
			WithArgs(6, 0).
			WillReturnRows(sqlmock.NewRows(tenantCols).
				AddRow(2, "B", "Addr B", now, now).
				AddRow(1, "A", "Addr A", now, now))

		tenants, total, err := repo.List(ctx, repositories.ListFilter{Page: 1, PerPage: 6})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, tenants, 2)
		assert.Equal(t, int64(2), tenants[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTenantRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tenants WHERE id = $1")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.True(t, errors.Is(repo.Delete(ctx, 1), repositories.ErrNotFound))
	})
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("create", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRefreshTokenRepository(db, zap.NewNop())
		token := models.NewRefreshToken(5, now)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
			WithArgs(int64(5), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		require.NoError(t, repo.Create(ctx, token))
		assert.Equal(t, int64(42), token.ID)
	})

	t.Run("lookup is scoped to the owner", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRefreshTokenRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
			WithArgs(int64(42), int64(6)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByIDAndUserID(ctx, 42, 6)
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})

	t.Run("delete of missing row succeeds", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRefreshTokenRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE id = $1")).
			WithArgs(int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, 42))
	})

	t.Run("owned delete reports whether a row went away", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRefreshTokenRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE id = $1 AND user_id = $2")).
			WithArgs(int64(42), int64(6)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE id = $1 AND user_id = $2")).
			WithArgs(int64(42), int64(6)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		deleted, err := repo.DeleteOwned(ctx, 42, 6)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeleteOwned(ctx, 42, 6)
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionManager_InTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits and routes repositories through the tx", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())
		repo := NewRefreshTokenRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
			_, ok := GetTransactionFromContext(txCtx)
			assert.True(t, ok)
			return repo.Delete(txCtx, 1)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := tm.InTransaction(ctx, func(context.Context, repositories.Transaction) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call joins the outer transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := tm.InTransaction(ctx, func(outer context.Context, outerTx repositories.Transaction) error {
			return tm.InTransaction(outer, func(_ context.Context, innerTx repositories.Transaction) error {
				assert.Same(t, outerTx, innerTx)
				return nil
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDB_HealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	db := Wrap(sqlDB, zap.NewNop())

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS tenants")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS refresh_tokens")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
