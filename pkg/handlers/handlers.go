package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/shift-planner-go/pkg/apperr"
	"github.com/arnavshah/shift-planner-go/pkg/auth"
	"github.com/arnavshah/shift-planner-go/pkg/availability"
	"github.com/arnavshah/shift-planner-go/pkg/models"
	"github.com/arnavshah/shift-planner-go/pkg/scheduler"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	Auth      *auth.Service
	Avail     *availability.Store
	Scheduler *scheduler.Scheduler
	Log       *zap.Logger

	// Now is the reference instant for weekly availability submissions.
	Now func() time.Time
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	if h.Now == nil {
		h.Now = time.Now
	}

	r := gin.New()
	r.Use(RequestLogger(h.Log), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Shift Planner API",
			"version": "1.0.0",
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	employee := api.Group("/employee")
	employee.Use(h.AuthMiddleware(), RequireRole(models.RoleEmployee))
	{
		employee.POST("/availability", h.SubmitAvailability)
		employee.GET("/availability", h.MyAvailability)
		employee.GET("/shifts", h.MyShifts)
	}

	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware(), RequireRole(models.RoleAdmin))
	{
		admin.GET("/all-availability", h.AllAvailability)
		admin.GET("/availability/:employeeId", h.EmployeeAvailability)
		admin.GET("/available-employees", h.AvailableEmployees)
		admin.POST("/shifts", h.CreateShift)
		admin.POST("/shifts/validate", h.ValidateShift)
		admin.GET("/shifts", h.AllShifts)
		admin.GET("/shifts.csv", h.ExportShiftsCSV)
	}

	return r
}

// RequestLogger logs one line per request through zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if uid := c.GetString(ctxUserID); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// AuthMiddleware verifies the bearer JWT and stores the caller's id and role.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := h.Auth.Tokens().VerifyToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose token carries a different role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, _ := c.Get(ctxRole)
		if r, ok := got.(models.Role); !ok || r != role {
			abort(c, http.StatusForbidden, "forbidden", "Access denied: "+string(role)+" role required")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

// respondError maps err onto a status code and the error body.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		abort(c, status, code, "internal server error")
		return
	}
	abort(c, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, auth.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role"
	}

	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindNone:
		return http.StatusInternalServerError, "internal"
	case apperr.KindNotFound:
		return http.StatusNotFound, string(kind)
	case apperr.KindShiftOverlap:
		return http.StatusConflict, string(kind)
	default:
		return http.StatusBadRequest, string(kind)
	}
}

// badRequest reports a body or query that failed binding.
func badRequest(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, "invalid_request", err.Error())
}

// bindError reports a binding failure, keeping the error kind when a
// field's own decoder rejected the value.
func (h *Handler) bindError(c *gin.Context, err error) {
	if apperr.KindOf(err) != apperr.KindNone {
		h.respondError(c, err)
		return
	}
	badRequest(c, err)
}

func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
