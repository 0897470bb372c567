package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/service"
	"github.com/gin-gonic/gin"
)

type alertPayload struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	AnimalID uint   `json:"animal_id"`
	DueDate  string `json:"due_date"`
}

// ShowAlertList 渲染提醒中心页面
func (a *API) ShowAlertList(c *gin.Context) {
	onlyUnread := c.Query("unread") == "1"

	alerts, err := a.alerts.List(onlyUnread)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "alert_list.html", gin.H{
			"title": "提醒中心",
			"error": "获取提醒列表失败",
		})
		return
	}

	unreadCount, err := a.alerts.UnreadCount()
	if err != nil {
		unreadCount = 0
	}

	a.renderHTML(c, http.StatusOK, "alert_list.html", gin.H{
		"title":       "提醒中心",
		"alerts":      alerts,
		"unreadCount": unreadCount,
		"onlyUnread":  onlyUnread,
	})
}

// ListAlerts 返回提醒列表 JSON
func (a *API) ListAlerts(c *gin.Context) {
	onlyUnread := c.Query("unread") == "1"

	alerts, err := a.alerts.List(onlyUnread)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取提醒列表失败")
		return
	}

	items := make([]gin.H, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, alertToPayload(alert))
	}

	c.JSON(http.StatusOK, gin.H{"alerts": items})
}

// GetUnreadAlertCount 返回未读提醒数量，供侧边栏角标轮询。
func (a *API) GetUnreadAlertCount(c *gin.Context) {
	count, err := a.alerts.UnreadCount()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取未读数量失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// CreateAlert 新建手动提醒
func (a *API) CreateAlert(c *gin.Context) {
	var payload alertPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	} else {
		payload.Title = c.PostForm("title")
		payload.Message = c.PostForm("message")
		payload.Severity = c.PostForm("severity")
		payload.DueDate = c.PostForm("due_date")

		if raw := c.PostForm("animal_id"); raw != "" {
			val, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				respondError(c, http.StatusBadRequest, "无效的档案ID")
				return
			}
			payload.AnimalID = uint(val)
		}
	}

	duePtr, ok := parseOptionalDate(payload.DueDate)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的到期日期")
		return
	}

	input := service.AlertInput{
		Title:    payload.Title,
		Message:  payload.Message,
		Severity: payload.Severity,
		DueDate:  duePtr,
	}
	if payload.AnimalID > 0 {
		animalID := payload.AnimalID
		input.AnimalID = &animalID
	}

	alert, err := a.alerts.Create(input)
	if err != nil {
		handleAlertError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityAlert, alert.ID, db.ActivityActionCreate, alert.Title)
	c.JSON(http.StatusCreated, gin.H{
		"message": "提醒已创建",
		"alert":   alertToPayload(*alert),
	})
}

// MarkAlertRead 将单条提醒标记为已读
func (a *API) MarkAlertRead(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的提醒ID")
		return
	}

	alert, err := a.alerts.MarkRead(id)
	if err != nil {
		handleAlertError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "已标记为已读",
		"alert":   alertToPayload(*alert),
	})
}

// MarkAllAlertsRead 将全部提醒标记为已读
func (a *API) MarkAllAlertsRead(c *gin.Context) {
	affected, err := a.alerts.MarkAllRead()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "操作失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "全部提醒已读",
		"affected": affected,
	})
}

// DeleteAlert 删除提醒
func (a *API) DeleteAlert(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的提醒ID")
		return
	}

	if err := a.alerts.Delete(id); err != nil {
		handleAlertError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityAlert, id, db.ActivityActionDelete, "")
	c.JSON(http.StatusOK, gin.H{"message": "提醒已删除"})
}

// GenerateAlerts 立即扫描健康与农事到期事项并生成提醒
func (a *API) GenerateAlerts(c *gin.Context) {
	view := a.farmSettings(c)
	leadDays := parseIntQuery(c, "lead_days", view.AlertLeadDays)

	processed, err := a.alerts.GenerateDueAlerts(leadDays)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "生成提醒失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "提醒已刷新",
		"processed": processed,
	})
}

func alertToPayload(alert db.Alert) gin.H {
	item := gin.H{
		"id":         alert.ID,
		"title":      alert.Title,
		"message":    alert.Message,
		"severity":   alert.Severity,
		"source":     alert.Source,
		"is_read":    alert.IsRead,
		"created_at": alert.CreatedAt,
	}

	if alert.DueDate != nil {
		item["due_date"] = alert.DueDate.Format(dateFormat)
	}
	if alert.AnimalID != nil {
		item["animal_id"] = *alert.AnimalID
	}
	if alert.Animal != nil {
		item["animal"] = gin.H{
			"id":         alert.Animal.ID,
			"tag_number": alert.Animal.TagNumber,
			"name":       alert.Animal.Name,
		}
	}

	return item
}

func handleAlertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlertNotFound):
		respondError(c, http.StatusNotFound, "提醒不存在")
	case errors.Is(err, service.ErrAnimalNotFound):
		respondError(c, http.StatusNotFound, "关联的档案不存在")
	case errors.Is(err, service.ErrAlertInvalidInput):
		respondError(c, http.StatusBadRequest, "提醒信息不完整或不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
