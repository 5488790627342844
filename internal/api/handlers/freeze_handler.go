package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trustfreeze/backend/internal/api/middleware"
	"github.com/trustfreeze/backend/internal/ledger"
	"github.com/trustfreeze/backend/internal/models"
	"github.com/trustfreeze/backend/internal/services"
	"github.com/trustfreeze/backend/internal/util"
)

type FreezeHandler struct {
	service *services.FreezeService
}

func NewFreezeHandler(service *services.FreezeService) *FreezeHandler {
	return &FreezeHandler{service: service}
}

type accountFreezeRequest struct {
	IssuerSecret  string `json:"issuer_secret" binding:"required"`
	TargetAccount string `json:"target_account" binding:"required"`
	AssetCode     string `json:"asset_code" binding:"required"`
	Reason        string `json:"reason"`
}

type globalFreezeRequest struct {
	IssuerSecret string `json:"issuer_secret" binding:"required"`
	AssetCode    string `json:"asset_code" binding:"required"`
	Reason       string `json:"reason"`
}

// FreezeAccount handles POST /api/v1/freeze/account/freeze
func (h *FreezeHandler) FreezeAccount(c *gin.Context) {
	h.toggleAccount(c, models.FreezeActionFreeze)
}

// UnfreezeAccount handles POST /api/v1/freeze/account/unfreeze
func (h *FreezeHandler) UnfreezeAccount(c *gin.Context) {
	h.toggleAccount(c, models.FreezeActionUnfreeze)
}

// FreezeGlobal handles POST /api/v1/freeze/global/freeze
func (h *FreezeHandler) FreezeGlobal(c *gin.Context) {
	h.toggleGlobal(c, models.FreezeActionFreeze)
}

// UnfreezeGlobal handles POST /api/v1/freeze/global/unfreeze
func (h *FreezeHandler) UnfreezeGlobal(c *gin.Context) {
	h.toggleGlobal(c, models.FreezeActionUnfreeze)
}

func (h *FreezeHandler) toggleAccount(c *gin.Context, action models.FreezeAction) {
	var req accountFreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.ToggleAccountFreeze(c.Request.Context(), req.IssuerSecret, req.TargetAccount, req.AssetCode, action, req.Reason)
	if err != nil {
		completed := 0
		if result.TxHash != "" {
			completed = 1
		}
		respondFreezeError(c, err, completed)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FreezeHandler) toggleGlobal(c *gin.Context, action models.FreezeAction) {
	var req globalFreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	results, err := h.service.ToggleGlobalFreeze(c.Request.Context(), req.IssuerSecret, req.AssetCode, action, req.Reason)
	if err != nil {
		respondFreezeError(c, err, len(results))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

// Status handles GET /api/v1/freeze/status/:account
func (h *FreezeHandler) Status(c *gin.Context) {
	account := c.Param("account")
	code := c.Query("asset_code")
	issuer := c.Query("asset_issuer")

	frozen, err := h.service.IsFrozen(c.Request.Context(), account, code, issuer)
	if err != nil {
		respondFreezeError(c, err, 0)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account":      account,
		"asset_code":   code,
		"asset_issuer": issuer,
		"frozen":       frozen,
	})
}

// ListLogs handles GET /api/v1/freeze/logs
func (h *FreezeHandler) ListLogs(c *gin.Context) {
	var filter services.LogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	page, err := h.service.ListLogs(c.Request.Context(), filter)
	if err != nil {
		respondFreezeError(c, err, 0)
		return
	}
	c.JSON(http.StatusOK, page)
}

// LatestLog handles GET /api/v1/freeze/logs/latest
func (h *FreezeHandler) LatestLog(c *gin.Context) {
	row, err := h.service.GetLatestLog(c.Request.Context(), c.Query("account"), c.Query("asset_code"), c.Query("asset_issuer"))
	if err != nil {
		respondFreezeError(c, err, 0)
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no audit log for trustline"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// ExportLogs handles GET /api/v1/freeze/logs/export
func (h *FreezeHandler) ExportLogs(c *gin.Context) {
	var filter services.LogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	filename := fmt.Sprintf("freeze-audit-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	err := h.service.ExportLogs(c.Request.Context(), filter, c.Writer)
	if err == nil {
		return
	}
	if c.Writer.Written() {
		// Rows already went out; the truncated body is all the client gets.
		GetLogger(c).WithError(err).Error("export aborted mid-stream")
		c.Abort()
		return
	}
	c.Writer.Header().Del("Content-Disposition")
	c.Writer.Header().Del("Content-Type")
	respondFreezeError(c, err, 0)
}

// respondFreezeError maps service errors onto HTTP responses. completed is the
// number of trustlines the ledger changed before the failure.
func respondFreezeError(c *gin.Context, err error, completed int) {
	entry := GetLogger(c).WithField("error", util.SanitizeForLog(err.Error()))

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
		return
	}

	body := gin.H{"error": util.SanitizeForLog(err.Error())}
	if completed > 0 {
		body["completed"] = completed
	}

	var rej *ledger.RejectionError
	if errors.As(err, &rej) {
		entry.WithField("result_codes", rej.Codes()).Warn("ledger rejected request")
		body["result_codes"] = rej.Codes()
		c.JSON(http.StatusBadGateway, body)
		return
	}

	entry.WithField("completed", completed).Error("freeze request failed")
	c.JSON(http.StatusInternalServerError, body)
}

// GetLogger returns the request-scoped logger set by middleware.RequestID.
func GetLogger(c *gin.Context) *logrus.Entry {
	return middleware.GetRequestLogger(c)
}
