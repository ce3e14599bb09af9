// Package server wires the CampusHub process: storage, the session cache,
// token handling and both transports. It also owns graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"github.com/dmitrijs2005/campushub/internal/server/config"
	"github.com/dmitrijs2005/campushub/internal/server/counters"
	"github.com/dmitrijs2005/campushub/internal/server/idempotency"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/campushub/internal/server/rest"
	"github.com/dmitrijs2005/campushub/internal/server/services"
	"github.com/dmitrijs2005/campushub/internal/server/session"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/campushub/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client

	gate      *auth.Gate
	users     *services.UserService
	community *services.CommunityService
	store     *session.RedisStore
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(c.LogBackend)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	store := session.NewRedisStore(rdb, c.SessionKeyPrefix)
	if err := store.Ping(ctx); err != nil {
		// the gate reports 503 until redis answers
		logger.Warn(ctx, "session store not reachable at startup", "addr", c.RedisAddr, "error", err)
	}

	codec := auth.NewCodec([]byte(c.SecretKey))
	issuer := auth.NewIssuer(codec, store, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	guard := idempotency.NewGuard(store, c.IdempotencyTTL, logger)
	mutator := counters.NewMutator(dbx.NewSQLTransactor(db), m, c.CounterLockWait, logger)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		redis:     rdb,
		gate:      auth.NewGate(codec, issuer),
		users:     services.NewUserService(db, m, guard, issuer, logger),
		community: services.NewCommunityService(db, m, guard, mutator, logger),
		store:     store,
	}, nil
}

func (app *App) pingDB(ctx context.Context) error {
	return app.db.PingContext(ctx)
}

func (app *App) startRESTServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := rest.NewRouter(rest.Deps{
		Logger:    app.logger,
		Gate:      app.gate,
		Users:     app.users,
		Community: app.community,
		Health: map[string]rest.HealthCheck{
			"postgres": app.pingDB,
			"redis":    app.store.Ping,
		},
	})

	s := rest.NewServer(app.config.EndpointAddrHTTP, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.gate, map[string]gs.HealthCheck{
		"postgres": app.pingDB,
		"redis":    app.store.Ping,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until SIGINT, SIGTERM or SIGQUIT arrives or a transport fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startRESTServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if err := app.redis.Close(); err != nil {
		app.logger.Error(ctx, "redis close", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
	syncLogger(app.logger)
}

// syncLogger flushes buffered backends. It must run after the last log line.
func syncLogger(l logging.Logger) {
	if z, ok := l.(interface{ Sync() error }); ok {
		// stdout sync fails on some terminals
		_ = z.Sync()
	}
}

// exitCode is what main returns when startup fails.
const exitCode = 1

// Main loads configuration, builds the App and runs it.
func Main() int {
	ctx := context.Background()

	app, err := NewApp(ctx, config.LoadConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode
	}

	app.Run(ctx)
	return 0
}
