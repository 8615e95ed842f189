package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pizza-app/auth-service/config"
	"github.com/pizza-app/auth-service/keys"
	"github.com/pizza-app/auth-service/middleware"
	"github.com/pizza-app/auth-service/repositories"
	"github.com/pizza-app/auth-service/repositories/postgres"
	"github.com/pizza-app/auth-service/services/auth"
	"github.com/pizza-app/auth-service/services/events"
	"github.com/pizza-app/auth-service/services/tenants"
	"github.com/pizza-app/auth-service/services/token"
	"github.com/pizza-app/auth-service/services/users"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Redis  *redis.Client
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users         repositories.UserRepository
	Tenants       repositories.TenantRepository
	RefreshTokens repositories.RefreshTokenRepository
	TxManager     repositories.TransactionManager

	// Tokens
	Keys     keys.Provider
	Issuer   *token.Issuer
	Verifier *token.JWKSVerifier
	Sessions *token.RefreshTokenStore

	// Services
	Hasher        *auth.BcryptHasher
	AuthService   *auth.Service
	UserService   *users.Service
	TenantService *tenants.Service
	Events        *events.Dispatcher

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter

	publisher events.Publisher
	closeOnce sync.Once
	closeErr  error
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires everything on top of an existing repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initTokens(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tokens: %w", err)
	}

	if err := deps.initEvents(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize events: %w", err)
	}

	deps.initServices(cfg)
	deps.initRedis(ctx, cfg)
	deps.initMiddleware(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase checks the connection and applies migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.RepoFactory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", d.Config.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Tenants = repos.Tenants
	d.RefreshTokens = repos.RefreshTokens
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initTokens builds the key provider, issuer, verifier and session store
func (d *Dependencies) initTokens(cfg *config.Config) error {
	provider, err := keys.NewProvider(cfg.Keys, d.Logger)
	if err != nil {
		return err
	}

	d.Keys = provider
	d.Issuer = token.NewIssuer(cfg.Tokens, provider)
	d.Verifier = token.NewJWKSVerifier(cfg.Tokens, d.Logger)
	d.Sessions = token.NewStore(d.RefreshTokens, d.TxManager, d.Logger)

	d.Logger.Info("token services initialized",
		zap.String("key_source", cfg.Keys.Source),
		zap.String("issuer", cfg.Tokens.Issuer),
		zap.String("jwks_uri", cfg.Tokens.JWKSURI))
	return nil
}

// initEvents starts the event dispatcher. Without a broker, events are logged.
func (d *Dependencies) initEvents(cfg *config.Config) error {
	var publisher events.Publisher = events.NewLogPublisher(d.Logger)
	if cfg.RabbitMQ.Enabled() {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			d.Logger.Warn("rabbitmq unavailable, logging auth events instead", zap.Error(err))
		} else {
			publisher = amqpPublisher
			d.Logger.Info("publishing auth events to rabbitmq", zap.String("queue", cfg.RabbitMQ.Queue))
		}
	}
	d.publisher = publisher

	dispatcherCfg := events.DefaultConfig()
	if cfg.RabbitMQ.WorkerCount > 0 {
		dispatcherCfg.WorkerCount = cfg.RabbitMQ.WorkerCount
	}
	if cfg.RabbitMQ.BufferSize > 0 {
		dispatcherCfg.BufferSize = cfg.RabbitMQ.BufferSize
	}

	d.Events = events.NewDispatcher(publisher, d.Logger, dispatcherCfg)
	return d.Events.Start()
}

// initServices builds the domain services
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Hasher = auth.NewBcryptHasher(cfg.BcryptCost)
	d.AuthService = auth.NewService(d.Users, d.TxManager, d.Sessions, d.Issuer, d.Hasher, d.Events, d.Logger)
	d.UserService = users.NewService(d.Users, d.Tenants, d.Hasher, d.Logger)
	d.TenantService = tenants.NewService(d.Tenants, d.Logger)
}

// initRedis connects the rate limiter store. Redis is optional: a failed
// ping is logged and the limiter fails open.
func (d *Dependencies) initRedis(ctx context.Context, cfg *config.Config) {
	if !cfg.Redis.Enabled() || !cfg.RateLimit.Enabled {
		d.Logger.Info("rate limiting disabled")
		return
	}

	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	d.Redis = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.Redis.Ping(pingCtx).Err(); err != nil {
		d.Logger.Warn("redis ping failed, rate limiter will fail open",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		return
	}
	d.Logger.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))
}

// initMiddleware builds the token stages and the rate limiter
func (d *Dependencies) initMiddleware(cfg *config.Config) {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Verifier, d.Issuer, d.Sessions, d.Logger)

	var scripter redis.Scripter
	if d.Redis != nil {
		scripter = d.Redis
	}
	d.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, scripter, d.Logger)
}

// Close gracefully shuts down all dependencies. Calling it again is a no-op.
func (d *Dependencies) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.closeErr = d.close()
	})
	return d.closeErr
}

func (d *Dependencies) close() error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Events != nil {
		if err := d.Events.Stop(eventsStopTimeout); err != nil && !errors.Is(err, events.ErrNotStarted) {
			errs = append(errs, fmt.Errorf("failed to stop event dispatcher: %w", err))
		}
	}

	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
