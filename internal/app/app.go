package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arnavshah/shift-planner-go/internal/config"
	"github.com/arnavshah/shift-planner-go/pkg/auth"
	"github.com/arnavshah/shift-planner-go/pkg/availability"
	"github.com/arnavshah/shift-planner-go/pkg/database"
	"github.com/arnavshah/shift-planner-go/pkg/handlers"
	"github.com/arnavshah/shift-planner-go/pkg/scheduler"
)

type App struct {
	Cfg       config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	Auth      *auth.Service
	Avail     *availability.Store
	Scheduler *scheduler.Scheduler
}

// New opens storage, picks a lock backend and builds the services.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	dbLevel := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		dbLevel = gormlogger.Info
	}
	db, err := database.Open(database.Options{
		DatabaseURL: cfg.DatabaseURL,
		DataPath:    cfg.DataPath,
		LogLevel:    dbLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{Cfg: cfg, Log: log, DB: db}

	var locker scheduler.Locker
	if a.Redis = openRedis(ctx, cfg, log); a.Redis != nil {
		locker = scheduler.NewRedisLocker(a.Redis, cfg.LockTTL, log)
		log.Info("using redis shift lock", zap.String("addr", cfg.RedisAddr))
	} else {
		locker = scheduler.NewMemoryLocker()
	}

	a.Auth = auth.NewService(db, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), cfg.BcryptCost, log)
	a.Avail = availability.NewStore(db, log)
	a.Scheduler = scheduler.New(db, a.Avail, locker, log)
	return a, nil
}

// openRedis returns nil when no address is configured or the server does
// not answer a ping.
func openRedis(ctx context.Context, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, falling back to in-process shift lock",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// Bootstrap creates the configured admin account if no admin exists.
func (a *App) Bootstrap(ctx context.Context) error {
	if a.Cfg.AdminEmail == "" {
		return nil
	}
	_, err := a.Auth.EnsureAdminExists(ctx, a.Cfg.AdminName, a.Cfg.AdminEmail, a.Cfg.AdminPassword, a.Cfg.AdminTimezone)
	return err
}

// Router builds the HTTP handler tree.
func (a *App) Router() *gin.Engine {
	gin.SetMode(a.Cfg.GinMode)
	return handlers.NewRouter(&handlers.Handler{
		Auth:      a.Auth,
		Avail:     a.Avail,
		Scheduler: a.Scheduler,
		Log:       a.Log,
	})
}

// Serve runs the HTTP server until ctx is done or SIGINT/SIGTERM arrives.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("server starting", zap.String("port", a.Cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Log.Info("shutdown signal received")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		a.Log.Warn("http server shutdown error", zap.Error(err))
	}
	return nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
