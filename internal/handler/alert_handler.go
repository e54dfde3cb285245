// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"safechat-go/internal/service"
	"safechat-go/pkg/es"
	"safechat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AlertHandler 负责处理审核端告警相关的 API 请求。
type AlertHandler struct {
	escalationService service.EscalationService
	alertIndex        *es.AlertIndex
}

// NewAlertHandler 创建一个新的 AlertHandler。
// alertIndex 可为 nil，表示 Elasticsearch 审计检索未启用。
func NewAlertHandler(escalationService service.EscalationService, alertIndex *es.AlertIndex) *AlertHandler {
	return &AlertHandler{
		escalationService: escalationService,
		alertIndex:        alertIndex,
	}
}

// List 返回最近的升级告警。
func (h *AlertHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	alerts := h.escalationService.ListRecent(limit)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"alerts":      alerts,
			"total_count": len(alerts),
		},
	})
}

// Search 在告警审计索引中按关键词检索。
func (h *AlertHandler) Search(c *gin.Context) {
	if h.alertIndex == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "告警检索未启用"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少查询参数 q"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	alerts, err := h.alertIndex.Search(c.Request.Context(), query, limit)
	if err != nil {
		log.Errorf("检索告警失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "检索告警失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"alerts":      alerts,
			"total_count": len(alerts),
		},
	})
}
