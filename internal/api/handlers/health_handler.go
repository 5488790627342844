package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trustfreeze/backend/internal/version"
)

// HealthHandler reports service metadata and whether the audit database answers.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /api/v1/health
func (h *HealthHandler) Check(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if err := h.pingDB(c.Request.Context()); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
		GetLogger(c).WithError(err).Warn("health check: database unreachable")
	}
	c.JSON(code, gin.H{
		"status":     status,
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
