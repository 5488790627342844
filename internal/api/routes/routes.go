package routes

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/trustfreeze/backend/internal/api/handlers"
	"github.com/trustfreeze/backend/internal/api/middleware"
	"github.com/trustfreeze/backend/internal/logger"
	"github.com/trustfreeze/backend/internal/services"
)

// Deps are the shared components the routes are built from.
type Deps struct {
	DB      *gorm.DB
	Freeze  *services.FreezeService
	Metrics *prometheus.Registry
	// JWTSecret enables bearer auth on the freeze API when non-empty.
	JWTSecret string
}

// Register wires up the versioned API routes.
func Register(router *gin.Engine, deps Deps) error {
	if deps.DB == nil || deps.Freeze == nil {
		return errors.New("routes: database and freeze service are required")
	}

	router.GET("/api/v1/health", handlers.NewHealthHandler(deps.DB).Check)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	freeze := handlers.NewFreezeHandler(deps.Freeze)
	api := router.Group("/api/v1/freeze")

	read := []gin.HandlerFunc{}
	write := []gin.HandlerFunc{}
	if deps.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(deps.JWTSecret))
		read = append(read, middleware.RequireRole(middleware.RoleCompliance, middleware.RoleAuditor))
		write = append(write, middleware.RequireRole(middleware.RoleCompliance))
	} else {
		logger.Log().Warn("FREEZE_JWT_SECRET is empty; freeze API is unauthenticated")
	}

	mutations := api.Group("", write...)
	mutations.POST("/account/freeze", freeze.FreezeAccount)
	mutations.POST("/account/unfreeze", freeze.UnfreezeAccount)
	mutations.POST("/global/freeze", freeze.FreezeGlobal)
	mutations.POST("/global/unfreeze", freeze.UnfreezeGlobal)

	queries := api.Group("", read...)
	queries.GET("/status/:account", freeze.Status)
	queries.GET("/logs", freeze.ListLogs)
	queries.GET("/logs/latest", freeze.LatestLog)
	queries.GET("/logs/export", freeze.ExportLogs)

	return nil
}
