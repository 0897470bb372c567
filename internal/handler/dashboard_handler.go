package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ShowDashboard 渲染牧场概览面板。
func (a *API) ShowDashboard(c *gin.Context) {
	view := a.farmSettings(c)

	// 进入面板时刷新一次到期提醒
	if _, err := a.alerts.GenerateDueAlerts(view.AlertLeadDays); err != nil {
		log.Printf("generate due alerts failed: %v", err)
	}

	overview, err := a.dashboard.Overview(view.AlertLeadDays)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "dashboard.html", gin.H{
			"title": "牧场概览",
			"error": "加载概览数据失败",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"title":    "牧场概览",
		"username": currentUsername(c),
		"overview": overview,
	})
}

// GetDashboardOverview 以 JSON 形式返回概览统计，供前端局部刷新使用。
func (a *API) GetDashboardOverview(c *gin.Context) {
	view := a.farmSettings(c)

	overview, err := a.dashboard.Overview(view.AlertLeadDays)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取概览数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"overview": overview})
}

// ListRecentActivity 返回最近的后台操作动态
func (a *API) ListRecentActivity(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 10)

	entries, err := a.activities.ListRecent(limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取操作动态失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		item := gin.H{
			"id":         entry.ID,
			"entity":     entry.Entity,
			"entity_id":  entry.EntityID,
			"action":     entry.Action,
			"details":    entry.Details,
			"created_at": entry.CreatedAt,
		}
		if entry.User.ID != 0 {
			item["username"] = entry.User.Username
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"activities": items})
}
