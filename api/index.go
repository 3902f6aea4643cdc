package handler

import (
	"context"
	"net/http"
	"sync"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/shift-planner-go/internal/app"
	"github.com/arnavshah/shift-planner-go/internal/config"
	"github.com/arnavshah/shift-planner-go/internal/logger"
)

var (
	initOnce sync.Once
	router   http.Handler
)

func setup() {
	cfg, err := config.Load()
	if err != nil {
		router = unavailable("configuration error")
		return
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		log = zap.NewNop()
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		router = unavailable("database unavailable")
		return
	}
	if err := a.Bootstrap(ctx); err != nil {
		log.Warn("admin bootstrap failed", zap.Error(err))
	}
	router = a.Router()
}

func unavailable(msg string) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable", "message": msg})
	})
	return r
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(setup)
	router.ServeHTTP(w, r)
}
