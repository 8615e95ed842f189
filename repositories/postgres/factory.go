package postgres

import (
	"context"

	"github.com/pizza-app/auth-service/config"
	"github.com/pizza-app/auth-service/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory owns the connection pool and hands out repositories bound to it
type RepositoryFactory struct {
	db         *DB
	initSchema bool
	logger     *zap.Logger
}

// NewRepositoryFactory opens the database described by cfg
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, initSchema: cfg.Database.InitSchema, logger: logger}, nil
}

// NewRepositoryFactoryFromDB builds a factory over an existing pool
func NewRepositoryFactoryFromDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// InitSchema applies migrations when DB_INIT_SCHEMA is enabled
func (f *RepositoryFactory) InitSchema(ctx context.Context) error {
	if !f.initSchema {
		f.logger.Info("schema initialization disabled")
		return nil
	}
	return f.db.InitSchema(ctx)
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:         NewUserRepository(f.db, f.logger),
		Tenants:       NewTenantRepository(f.db, f.logger),
		RefreshTokens: NewRefreshTokenRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
